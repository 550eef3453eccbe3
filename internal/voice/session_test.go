package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// ---- fakes ----

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakeHandle struct {
	rec   *recorder
	stops atomic.Int32
}

func (h *fakeHandle) Stop() {
	if h.stops.Add(1) == 1 {
		h.rec.add("playback_stop")
	}
}

type fakePlay struct {
	at   time.Duration
	done func()
	h    *fakeHandle
}

type fakeRenderer struct {
	rec       *recorder
	immediate bool
	playErr   error

	mu     sync.Mutex
	now    time.Duration
	plays  []fakePlay
	closed int
}

func newFakeRenderer(rec *recorder) *fakeRenderer { return &fakeRenderer{rec: rec} }

func (r *fakeRenderer) Now() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now
}

func (r *fakeRenderer) setNow(d time.Duration) {
	r.mu.Lock()
	r.now = d
	r.mu.Unlock()
}

func (r *fakeRenderer) Play(at time.Duration, _ []byte, _ int, done func()) (Handle, error) {
	if r.playErr != nil {
		return nil, r.playErr
	}
	h := &fakeHandle{rec: r.rec}
	r.mu.Lock()
	r.plays = append(r.plays, fakePlay{at: at, done: done, h: h})
	r.mu.Unlock()
	if r.immediate {
		done()
	}
	return h, nil
}

func (r *fakeRenderer) Close() error {
	r.mu.Lock()
	r.closed++
	r.mu.Unlock()
	r.rec.add("renderer_close")
	return nil
}

func (r *fakeRenderer) complete(i int) {
	r.mu.Lock()
	done := r.plays[i].done
	r.mu.Unlock()
	done()
}

func (r *fakeRenderer) handles() []*fakeHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	hs := make([]*fakeHandle, len(r.plays))
	for i, p := range r.plays {
		hs[i] = p.h
	}
	return hs
}

func (r *fakeRenderer) playCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.plays)
}

type fakeOutput struct {
	r   *fakeRenderer
	err error
}

func (o fakeOutput) Open(int) (Renderer, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.r, nil
}

type fakeMic struct {
	rec      *recorder
	deny     bool
	frames   chan []float32
	acquired atomic.Int32
}

func (m *fakeMic) Acquire(context.Context, int) (Capture, error) {
	if m.deny {
		return nil, ErrMicrophoneDenied
	}
	m.acquired.Add(1)
	return &fakeCapture{m: m, closed: make(chan struct{})}, nil
}

type fakeCapture struct {
	m      *fakeMic
	closed chan struct{}
	once   sync.Once
}

func (c *fakeCapture) Read(context.Context) ([]float32, error) {
	select {
	case f, ok := <-c.m.frames:
		if !ok {
			return nil, io.EOF
		}
		return f, nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *fakeCapture) Close() error {
	c.once.Do(func() {
		c.m.rec.add("mic_release")
		close(c.closed)
	})
	return nil
}

type fakeConn struct {
	rec    *recorder
	in     chan []byte
	fail   chan error
	closed chan struct{}
	once   sync.Once

	mu   sync.Mutex
	sent [][]byte
}

func newFakeConn(rec *recorder) *fakeConn {
	return &fakeConn{
		rec:    rec,
		in:     make(chan []byte, 16),
		fail:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) Send(_ context.Context, msg []byte) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	c.mu.Lock()
	c.sent = append(c.sent, append([]byte(nil), msg...))
	c.mu.Unlock()
	if bytes.Contains(msg, []byte("audioStreamEnd")) {
		c.rec.add("stream_end")
	}
	return nil
}

func (c *fakeConn) Receive(context.Context) ([]byte, error) {
	select {
	case m := <-c.in:
		return m, nil
	case err := <-c.fail:
		return nil, err
	case <-c.closed:
		return nil, ErrClosed
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() {
		c.rec.add("conn_close")
		close(c.closed)
	})
	return nil
}

func (c *fakeConn) messages() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

type fakeDialer struct {
	conn  *fakeConn
	err   error
	url   atomic.Value
	dials atomic.Int32
}

func (d *fakeDialer) Dial(_ context.Context, url string) (Conn, error) {
	d.dials.Add(1)
	d.url.Store(url)
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

type fakeDescriptors struct {
	d   Descriptor
	err error
}

func (f fakeDescriptors) VoiceDescriptor(context.Context) (Descriptor, error) { return f.d, f.err }

// ---- harness ----

type harness struct {
	rec      *recorder
	conn     *fakeConn
	dialer   *fakeDialer
	mic      *fakeMic
	renderer *fakeRenderer
	bridge   *Bridge

	smu    sync.Mutex
	states []State
}

func newHarness(t *testing.T, mut func(*Config)) *harness {
	t.Helper()
	rec := &recorder{}
	h := &harness{
		rec:      rec,
		conn:     newFakeConn(rec),
		mic:      &fakeMic{rec: rec, frames: make(chan []float32, 4)},
		renderer: newFakeRenderer(rec),
	}
	h.dialer = &fakeDialer{conn: h.conn}
	cfg := Config{
		Descriptors: fakeDescriptors{d: Descriptor{URL: "wss://live.example/ws?key=secret", Model: "gemini-live"}},
		Dialer:      h.dialer,
		Microphone:  h.mic,
		Output:      fakeOutput{r: h.renderer},
		Transcribe:  true,
		OnState: func(_, to State) {
			h.smu.Lock()
			h.states = append(h.states, to)
			h.smu.Unlock()
		},
		Log: zerolog.Nop(),
	}
	if mut != nil {
		mut(&cfg)
	}
	h.bridge = NewBridge(cfg)
	return h
}

func (h *harness) stateLog() []State {
	h.smu.Lock()
	defer h.smu.Unlock()
	return append([]State(nil), h.states...)
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end")
	}
}

func audioFrame(pcm []byte) []byte {
	return []byte(`{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"` +
		base64.StdEncoding.EncodeToString(pcm) + `"}}]}}}`)
}

// ---- tests ----

func TestSession_Lifecycle(t *testing.T) {
	var transcript atomic.Int32
	h := newHarness(t, func(c *Config) {
		c.OnTranscript = func(Entry) { transcript.Add(1) }
	})
	s, err := h.bridge.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.State() != StateAwaitingSetupAck {
		t.Fatalf("state = %v", s.State())
	}
	if got, _ := h.dialer.url.Load().(string); got != "wss://live.example/ws?key=secret" {
		t.Fatalf("dialed %q", got)
	}
	sent := h.conn.messages()
	if len(sent) != 1 || !strings.Contains(string(sent[0]), `"model":"models/gemini-live"`) {
		t.Fatalf("first frame should be setup, got %q", sent)
	}

	// audio captured before the acknowledgement is dropped
	h.mic.frames <- []float32{0.1, 0.2}
	eventually(t, "dropped frame", func() bool { return s.Dropped() == 1 })
	if n := len(h.conn.messages()); n != 1 {
		t.Fatalf("sent %d frames before ack", n)
	}

	h.conn.in <- []byte(`{"setupComplete":{}}`)
	eventually(t, "streaming", func() bool { return s.State() == StateStreaming })

	h.mic.frames <- []float32{0.5}
	eventually(t, "audio upload", func() bool { return len(h.conn.messages()) == 2 })
	if !strings.Contains(string(h.conn.messages()[1]), `"realtimeInput":{"audio"`) {
		t.Fatalf("second frame = %s", h.conn.messages()[1])
	}

	h.conn.in <- audioFrame(make([]byte, 4800))
	h.conn.in <- []byte(`{"serverContent":{"outputTranscription":{"text":"Salom"},"turnComplete":true}}`)
	eventually(t, "playback", func() bool { return h.renderer.playCount() == 1 })
	eventually(t, "transcript", func() bool { return len(s.Transcript()) == 1 })
	if got := s.Transcript()[0]; got != (Entry{Speaker: SpeakerAssistant, Text: "Salom"}) {
		t.Fatalf("transcript = %+v", got)
	}
	if transcript.Load() != 1 {
		t.Fatal("OnTranscript not called")
	}
	if h.bridge.Active() != s {
		t.Fatal("bridge should report the running session")
	}

	s.Hangup()
	if s.State() != StateClosed {
		t.Fatalf("state after hangup = %v", s.State())
	}
	if s.Err() != nil {
		t.Fatalf("hangup err = %v", s.Err())
	}
	want := []string{"stream_end", "conn_close", "playback_stop", "mic_release", "renderer_close"}
	if got := h.rec.list(); !reflect.DeepEqual(got, want) {
		t.Fatalf("teardown order = %v, want %v", got, want)
	}
	wantStates := []State{StateConnecting, StateAwaitingSetupAck, StateStreaming, StateClosing, StateClosed}
	if got := h.stateLog(); !reflect.DeepEqual(got, wantStates) {
		t.Fatalf("states = %v, want %v", got, wantStates)
	}
	if err := s.Wait(); err != nil {
		t.Fatalf("Wait = %v", err)
	}

	s.Hangup()
	if got := h.rec.list(); len(got) != len(want) {
		t.Fatalf("second hangup repeated teardown: %v", got)
	}
	if h.bridge.Active() != nil {
		t.Fatal("bridge still holds the session")
	}
}

func TestBridge_OneSessionAtATime(t *testing.T) {
	h := newHarness(t, nil)
	s, err := h.bridge.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.bridge.Start(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("second start err = %v, want ErrBusy", err)
	}
	if h.mic.acquired.Load() != 1 {
		t.Fatalf("microphone acquired %d times", h.mic.acquired.Load())
	}
	s.Hangup()

	h.dialer.conn = newFakeConn(h.rec)
	s2, err := h.bridge.Start(context.Background())
	if err != nil {
		t.Fatalf("start after hangup: %v", err)
	}
	s2.Hangup()
}

func TestSession_MicrophoneDenied(t *testing.T) {
	h := newHarness(t, nil)
	h.mic.deny = true

	s, err := h.bridge.Start(context.Background())
	if !errors.Is(err, ErrMicrophoneDenied) {
		t.Fatalf("err = %v", err)
	}
	if s.State() != StateClosed || !errors.Is(s.Err(), ErrMicrophoneDenied) {
		t.Fatalf("state %v err %v", s.State(), s.Err())
	}
	if h.dialer.dials.Load() != 0 {
		t.Fatal("dialed without a microphone")
	}
	if got := h.stateLog(); !reflect.DeepEqual(got, []State{StateConnecting, StateClosed}) {
		t.Fatalf("states = %v", got)
	}
	if h.bridge.Active() != nil {
		t.Fatal("denied session still active")
	}
	if err := s.Wait(); !errors.Is(err, ErrMicrophoneDenied) {
		t.Fatalf("Wait = %v", err)
	}
}

func TestSession_DescriptorFailure(t *testing.T) {
	h := newHarness(t, func(c *Config) {
		c.Descriptors = fakeDescriptors{err: errors.New("503")}
	})
	s, err := h.bridge.Start(context.Background())
	if !errors.Is(err, ErrDescriptor) {
		t.Fatalf("err = %v", err)
	}
	if s.State() != StateClosed {
		t.Fatalf("state = %v", s.State())
	}
	if h.mic.acquired.Load() != 0 {
		t.Fatal("microphone acquired without a descriptor")
	}
}

func TestSession_DialFailureReleasesMicrophone(t *testing.T) {
	h := newHarness(t, nil)
	h.dialer.err = ErrTransport

	_, err := h.bridge.Start(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v", err)
	}
	want := []string{"mic_release", "renderer_close"}
	if got := h.rec.list(); !reflect.DeepEqual(got, want) {
		t.Fatalf("teardown = %v, want %v", got, want)
	}
}

func TestSession_RemoteError(t *testing.T) {
	h := newHarness(t, nil)
	s, err := h.bridge.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	h.conn.in <- []byte(`{"error":{"message":"quota exceeded"}}`)
	waitDone(t, s)

	var re *RemoteError
	if !errors.As(s.Err(), &re) || re.Message != "quota exceeded" {
		t.Fatalf("err = %v", s.Err())
	}
	got := h.rec.list()
	if len(got) == 0 || got[0] != "stream_end" || !contains(got, "mic_release") || !contains(got, "renderer_close") {
		t.Fatalf("teardown = %v", got)
	}
	if h.bridge.Active() != nil {
		t.Fatal("bridge still busy")
	}
}

func TestSession_RemoteClose(t *testing.T) {
	h := newHarness(t, nil)
	s, err := h.bridge.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	h.conn.in <- []byte(`{"setupComplete":{}}`)
	eventually(t, "streaming", func() bool { return s.State() == StateStreaming })
	h.conn.fail <- ErrRemoteClosed

	if err := s.Wait(); !errors.Is(err, ErrRemoteClosed) {
		t.Fatalf("err = %v", err)
	}
	if contains(h.rec.list(), "stream_end") {
		t.Fatal("stream end sent on a closed socket")
	}
}

func TestSession_MalformedFrame(t *testing.T) {
	h := newHarness(t, nil)
	s, err := h.bridge.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	h.conn.in <- []byte(`{{`)
	if err := s.Wait(); !errors.Is(err, ErrProtocol) {
		t.Fatalf("err = %v", err)
	}
}

func TestSession_CaptureEndIsLocal(t *testing.T) {
	h := newHarness(t, nil)
	s, err := h.bridge.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	close(h.mic.frames)
	if err := s.Wait(); err != nil {
		t.Fatalf("err = %v", err)
	}
	if s.State() != StateClosed {
		t.Fatalf("state = %v", s.State())
	}
}

func TestSession_InterruptFlushesPlayback(t *testing.T) {
	h := newHarness(t, nil)
	s, err := h.bridge.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Hangup()
	h.conn.in <- []byte(`{"setupComplete":{}}`)
	h.conn.in <- audioFrame(make([]byte, 4800))
	h.conn.in <- audioFrame(make([]byte, 4800))
	eventually(t, "two chunks", func() bool { return h.renderer.playCount() == 2 })

	h.conn.in <- []byte(`{"serverContent":{"interrupted":true}}`)
	eventually(t, "flush", func() bool {
		for _, hd := range h.renderer.handles() {
			if hd.stops.Load() == 0 {
				return false
			}
		}
		return true
	})
	if s.State() != StateStreaming {
		t.Fatalf("interrupt ended the session: %v", s.State())
	}
}

type gatedDescriptors struct {
	once    *sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g gatedDescriptors) VoiceDescriptor(context.Context) (Descriptor, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return Descriptor{URL: "wss://live.example/ws", Model: "gemini-live"}, nil
}

type gatedMic struct {
	*fakeMic
	entered chan struct{}
	release chan struct{}
}

func (g gatedMic) Acquire(ctx context.Context, rate int) (Capture, error) {
	close(g.entered)
	<-g.release
	return g.fakeMic.Acquire(ctx, rate)
}

func startAsync(b *Bridge) <-chan error {
	errc := make(chan error, 1)
	go func() {
		_, err := b.Start(context.Background())
		errc <- err
	}()
	return errc
}

func TestSession_HangupWhileResolvingDescriptor(t *testing.T) {
	gate := gatedDescriptors{once: &sync.Once{}, entered: make(chan struct{}), release: make(chan struct{})}
	h := newHarness(t, func(c *Config) { c.Descriptors = gate })

	errc := startAsync(h.bridge)
	<-gate.entered
	s := h.bridge.Active()
	if s == nil {
		t.Fatal("connecting session not visible")
	}
	s.Hangup()
	close(gate.release)

	if err := <-errc; !errors.Is(err, ErrClosed) {
		t.Fatalf("Start err = %v, want ErrClosed", err)
	}
	if s.State() != StateClosed {
		t.Fatalf("state = %v", s.State())
	}
	if h.mic.acquired.Load() != 0 || h.dialer.dials.Load() != 0 {
		t.Fatalf("acquired %d, dialed %d after hangup", h.mic.acquired.Load(), h.dialer.dials.Load())
	}
	if err := s.Wait(); err != nil {
		t.Fatalf("Wait = %v", err)
	}
	if got := h.stateLog(); !reflect.DeepEqual(got, []State{StateConnecting, StateClosed}) {
		t.Fatalf("states = %v", got)
	}

	s2, err := h.bridge.Start(context.Background())
	if err != nil {
		t.Fatalf("bridge not free after hangup: %v", err)
	}
	s2.Hangup()
}

func TestSession_HangupWhileAcquiringMicrophone(t *testing.T) {
	h := newHarness(t, nil)
	gate := gatedMic{fakeMic: h.mic, entered: make(chan struct{}), release: make(chan struct{})}
	h.bridge.cfg.Microphone = gate

	errc := startAsync(h.bridge)
	<-gate.entered
	s := h.bridge.Active()
	s.Hangup()
	close(gate.release)

	if err := <-errc; !errors.Is(err, ErrClosed) {
		t.Fatalf("Start err = %v", err)
	}
	if h.mic.acquired.Load() != 1 || !contains(h.rec.list(), "mic_release") {
		t.Fatalf("microphone not released: %v", h.rec.list())
	}
	if h.dialer.dials.Load() != 0 {
		t.Fatal("dialed after hangup")
	}
	if s.State() != StateClosed || h.bridge.Active() != nil {
		t.Fatalf("state %v active %v", s.State(), h.bridge.Active())
	}
}

func TestSession_NoAudioAfterStreamEnd(t *testing.T) {
	h := newHarness(t, nil)
	s, err := h.bridge.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	h.conn.in <- []byte(`{"setupComplete":{}}`)
	eventually(t, "streaming", func() bool { return s.State() == StateStreaming })

	stop := make(chan struct{})
	fed := make(chan struct{})
	go func() {
		defer close(fed)
		for {
			select {
			case h.mic.frames <- []float32{0.25}:
			case <-stop:
				return
			}
		}
	}()
	eventually(t, "audio upload", func() bool { return len(h.conn.messages()) > 3 })
	s.Hangup()
	close(stop)
	<-fed
	if err := s.Wait(); err != nil {
		t.Fatalf("Wait = %v", err)
	}

	msgs := h.conn.messages()
	end := -1
	for i, m := range msgs {
		if bytes.Contains(m, []byte("audioStreamEnd")) {
			end = i
		}
	}
	if end < 0 {
		t.Fatal("no stream end sent")
	}
	for _, m := range msgs[end+1:] {
		if bytes.Contains(m, []byte(`"audio":`)) {
			t.Fatalf("audio sent after stream end: %s", m)
		}
	}
}

func TestStateString(t *testing.T) {
	if StateAwaitingSetupAck.String() != "AWAITING_SETUP_ACK" || State(42).String() != "UNKNOWN" {
		t.Fatal("state names")
	}
	if StateIdle.Active() || !StateStreaming.Active() || StateClosed.Active() {
		t.Fatal("Active")
	}
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
