package voice

import (
	"sync"
	"time"
)

// Handle is one scheduled playback. Stop must be safe to call more than once
// and after the playback has finished.
type Handle interface {
	Stop()
}

// Renderer plays PCM16 chunks against its own clock. Play schedules pcm to
// start at the given clock time and calls done exactly once when the chunk
// has finished or was stopped; done may run before Play returns.
type Renderer interface {
	Now() time.Duration
	Play(at time.Duration, pcm []byte, sampleRate int, done func()) (Handle, error)
	Close() error
}

// Scheduler queues inbound audio back to back. Each chunk starts at
// max(renderer clock, end of the previous chunk), so chunks never overlap and
// no gap opens while audio keeps arriving ahead of its due time.
type Scheduler struct {
	r Renderer

	mu      sync.Mutex
	next    time.Duration
	seq     uint64
	pending map[uint64]Handle
	gen     uint64 // bumped by Flush
	stopped bool
}

// NewScheduler binds a scheduler to r.
func NewScheduler(r Renderer) *Scheduler {
	return &Scheduler{r: r, pending: make(map[uint64]Handle)}
}

// Enqueue schedules pcm and returns its start time. Chunks must be enqueued
// from one goroutine, in server order.
func (s *Scheduler) Enqueue(pcm []byte, sampleRate int) (time.Duration, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return 0, ErrClosed
	}
	start := s.r.Now()
	if s.next > start {
		start = s.next
	}
	s.next = start + Duration(len(pcm), sampleRate)
	s.seq++
	id, gen := s.seq, s.gen
	s.pending[id] = nil
	s.mu.Unlock()

	h, err := s.r.Play(start, pcm, sampleRate, func() { s.finish(id) })
	if err != nil {
		s.finish(id)
		return 0, err
	}

	s.mu.Lock()
	_, live := s.pending[id]
	stale := s.stopped || s.gen != gen
	if live && !stale {
		s.pending[id] = h
	}
	s.mu.Unlock()
	if stale {
		h.Stop()
	}
	return start, nil
}

func (s *Scheduler) finish(id uint64) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

// NextPlaybackTime is the clock time at which the next chunk would start if
// it arrived early.
func (s *Scheduler) NextPlaybackTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Pending reports how many chunks are scheduled and not yet finished.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush stops everything queued and pulls the playback cursor back to the
// renderer clock. Used when the user interrupts the assistant. This is the
// only place the cursor moves backwards; every chunk it skips over has just
// been stopped, and it never lands before the clock.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	hs := s.drain()
	s.next = s.r.Now()
	s.gen++
	s.mu.Unlock()
	for _, h := range hs {
		h.Stop()
	}
}

// StopAll stops every pending chunk and refuses further Enqueue calls.
// Repeated calls are no-ops.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	s.stopped = true
	hs := s.drain()
	s.mu.Unlock()
	for _, h := range hs {
		h.Stop()
	}
}

func (s *Scheduler) drain() []Handle {
	hs := make([]Handle, 0, len(s.pending))
	for id, h := range s.pending {
		if h != nil {
			hs = append(hs, h)
		}
		delete(s.pending, id)
	}
	return hs
}
