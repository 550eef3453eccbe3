package voice

import (
	"errors"
	"testing"
	"time"
)

// chunk returns d worth of silence at the playback rate.
func chunk(d time.Duration) []byte {
	return make([]byte, int(d/time.Millisecond)*PlaybackSampleRate/1000*2)
}

func TestScheduler_BackToBack(t *testing.T) {
	r := newFakeRenderer(nil)
	s := NewScheduler(r)

	var starts []time.Duration
	for i := 0; i < 3; i++ {
		at, err := s.Enqueue(chunk(100*time.Millisecond), PlaybackSampleRate)
		if err != nil {
			t.Fatal(err)
		}
		starts = append(starts, at)
	}
	want := []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond}
	for i := range want {
		if starts[i] != want[i] {
			t.Fatalf("start[%d] = %v, want %v", i, starts[i], want[i])
		}
	}
	if got := s.NextPlaybackTime(); got != 300*time.Millisecond {
		t.Fatalf("next = %v", got)
	}
	if s.Pending() != 3 {
		t.Fatalf("pending = %d", s.Pending())
	}
}

func TestScheduler_LateChunkStartsAtClock(t *testing.T) {
	r := newFakeRenderer(nil)
	s := NewScheduler(r)

	if _, err := s.Enqueue(chunk(100*time.Millisecond), PlaybackSampleRate); err != nil {
		t.Fatal(err)
	}
	r.setNow(time.Second)
	at, err := s.Enqueue(chunk(50*time.Millisecond), PlaybackSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	if at != time.Second {
		t.Fatalf("late start = %v, want 1s", at)
	}
	if got := s.NextPlaybackTime(); got != 1050*time.Millisecond {
		t.Fatalf("next = %v", got)
	}
}

func TestScheduler_StartsNeverDecrease(t *testing.T) {
	r := newFakeRenderer(nil)
	s := NewScheduler(r)
	clock := []time.Duration{0, 10, 500, 20, 900, 905}
	var last time.Duration = -1
	for _, c := range clock {
		r.setNow(c * time.Millisecond)
		at, err := s.Enqueue(chunk(40*time.Millisecond), PlaybackSampleRate)
		if err != nil {
			t.Fatal(err)
		}
		if at < last {
			t.Fatalf("start %v before previous %v", at, last)
		}
		if at < c*time.Millisecond {
			t.Fatalf("start %v before clock %v", at, c*time.Millisecond)
		}
		last = at
	}
}

func TestScheduler_DoneRemovesPending(t *testing.T) {
	r := newFakeRenderer(nil)
	s := NewScheduler(r)
	for i := 0; i < 2; i++ {
		if _, err := s.Enqueue(chunk(10*time.Millisecond), PlaybackSampleRate); err != nil {
			t.Fatal(err)
		}
	}
	r.complete(0)
	if s.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", s.Pending())
	}
	r.complete(1)
	if s.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", s.Pending())
	}
}

func TestScheduler_DoneBeforePlayReturns(t *testing.T) {
	r := newFakeRenderer(nil)
	r.immediate = true
	s := NewScheduler(r)
	if _, err := s.Enqueue(chunk(10*time.Millisecond), PlaybackSampleRate); err != nil {
		t.Fatal(err)
	}
	if s.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", s.Pending())
	}
}

func TestScheduler_PlayError(t *testing.T) {
	r := newFakeRenderer(nil)
	r.playErr = errors.New("device lost")
	s := NewScheduler(r)
	if _, err := s.Enqueue(chunk(10*time.Millisecond), PlaybackSampleRate); err == nil {
		t.Fatal("expected error")
	}
	if s.Pending() != 0 {
		t.Fatalf("pending = %d", s.Pending())
	}
}

func TestScheduler_Flush(t *testing.T) {
	r := newFakeRenderer(nil)
	s := NewScheduler(r)
	for i := 0; i < 3; i++ {
		_, _ = s.Enqueue(chunk(100*time.Millisecond), PlaybackSampleRate)
	}
	r.setNow(50 * time.Millisecond)
	s.Flush()

	if got := s.NextPlaybackTime(); got != 50*time.Millisecond {
		t.Fatalf("cursor after flush = %v, want clock", got)
	}
	if s.Pending() != 0 {
		t.Fatalf("pending = %d", s.Pending())
	}
	for i, h := range r.handles() {
		if h.stops.Load() != 1 {
			t.Fatalf("handle %d stopped %d times", i, h.stops.Load())
		}
	}
	at, err := s.Enqueue(chunk(10*time.Millisecond), PlaybackSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	if at != 50*time.Millisecond {
		t.Fatalf("start after flush = %v, want clock", at)
	}
}

func TestScheduler_StopAll(t *testing.T) {
	r := newFakeRenderer(nil)
	s := NewScheduler(r)
	for i := 0; i < 2; i++ {
		_, _ = s.Enqueue(chunk(100*time.Millisecond), PlaybackSampleRate)
	}
	r.complete(0)

	s.StopAll()
	s.StopAll()

	hs := r.handles()
	if hs[0].stops.Load() != 0 {
		t.Fatal("finished chunk should not be stopped")
	}
	if hs[1].stops.Load() != 1 {
		t.Fatalf("pending chunk stopped %d times", hs[1].stops.Load())
	}
	if _, err := s.Enqueue(chunk(10*time.Millisecond), PlaybackSampleRate); !errors.Is(err, ErrClosed) {
		t.Fatalf("enqueue after stop err = %v", err)
	}
	// done after stop is harmless
	r.complete(1)
	if s.Pending() != 0 {
		t.Fatalf("pending = %d", s.Pending())
	}
}
