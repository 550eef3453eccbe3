package voice

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/metrics"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateAwaitingSetupAck
	StateStreaming
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateAwaitingSetupAck:
		return "AWAITING_SETUP_ACK"
	case StateStreaming:
		return "STREAMING"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	}
	return "UNKNOWN"
}

// Active reports whether a session in this state holds, or is acquiring,
// the audio devices.
func (s State) Active() bool { return s > StateIdle && s < StateClosed }

// Descriptor is where and with which model a session connects. URL carries
// a short-lived credential and is used for one session only.
type Descriptor struct {
	URL   string
	Model string
}

// DescriptorSource resolves a descriptor, typically from the storefront API.
type DescriptorSource interface {
	VoiceDescriptor(ctx context.Context) (Descriptor, error)
}

// Entry is one transcript fragment.
type Entry struct {
	Speaker Speaker
	Text    string
}

// Config wires a Bridge to its collaborators.
type Config struct {
	Descriptors       DescriptorSource
	Dialer            Dialer
	Microphone        Microphone
	Output            Output
	SystemInstruction string
	VoiceName         string
	Transcribe        bool

	// OnState and OnTranscript are optional observers. They run on session
	// goroutines and must not block.
	OnState      func(from, to State)
	OnTranscript func(Entry)

	Metrics *metrics.Metrics
	Log     zerolog.Logger
}

// Bridge runs at most one Session at a time.
type Bridge struct {
	cfg Config

	mu     sync.Mutex
	active *Session
}

// NewBridge returns a bridge for cfg.
func NewBridge(cfg Config) *Bridge {
	if cfg.Dialer == nil {
		cfg.Dialer = WSDialer{}
	}
	return &Bridge{cfg: cfg}
}

// Active returns the current session, or nil.
func (b *Bridge) Active() *Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Start connects a new session and returns once the setup message has been
// sent (state AWAITING_SETUP_ACK). It fails with ErrBusy while another
// session is active. On a connect failure the returned session is already
// CLOSED and its Err matches the returned error.
func (b *Bridge) Start(ctx context.Context) (*Session, error) {
	b.mu.Lock()
	if b.active != nil {
		b.mu.Unlock()
		return nil, ErrBusy
	}
	s := newSession(b)
	b.active = s
	b.mu.Unlock()

	if err := s.connect(ctx); err != nil {
		return s, err
	}
	s.run()
	return s, nil
}

func (b *Bridge) release(s *Session) {
	b.mu.Lock()
	if b.active == s {
		b.active = nil
	}
	b.mu.Unlock()
}

// Session is one live exchange. All methods are safe for concurrent use.
type Session struct {
	bridge *Bridge
	cfg    *Config
	log    zerolog.Logger

	mu         sync.Mutex
	state      State
	closed     bool // teardown has started; connect must not adopt new handles
	err        error
	transcript []Entry
	dropped    int

	conn     Conn
	capture  Capture
	renderer Renderer
	sched    *Scheduler

	// sendMu makes the STREAMING check and an audio Send one step, so no
	// frame follows the stream end marker.
	sendMu sync.Mutex

	ctx      context.Context
	cancel   context.CancelFunc
	tearOnce sync.Once
	done     chan struct{}
	pumps    chan struct{}
}

func newSession(b *Bridge) *Session {
	return &Session{
		bridge: b,
		cfg:    &b.cfg,
		log:    b.cfg.Log.With().Str("component", "voice").Logger(),
		done:   make(chan struct{}),
		pumps:  make(chan struct{}),
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err is the reason the session ended. It is nil while running and after a
// local hangup.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Transcript returns a copy of the text received so far, in arrival order.
func (s *Session) Transcript() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.transcript...)
}

// Dropped counts capture frames discarded before the setup acknowledgement.
func (s *Session) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Done is closed once the session is CLOSED and every resource is released.
func (s *Session) Done() <-chan struct{} { return s.done }

// Hangup ends the session from the local side. It returns after teardown has
// completed and is a no-op on a session that already ended.
func (s *Session) Hangup() {
	s.teardown(nil, true)
	<-s.done
}

// Wait blocks until the session ends and every pump has exited, then
// returns Err.
func (s *Session) Wait() error {
	<-s.done
	<-s.pumps
	return s.Err()
}

func (s *Session) setState(to State) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()
	s.notify(from, to)
}

func (s *Session) notify(from, to State) {
	if from == to {
		return
	}
	s.log.Debug().Str("from", from.String()).Str("to", to.String()).Msg("voice state")
	if s.cfg.OnState != nil {
		s.cfg.OnState(from, to)
	}
}

// advance moves from one state to the next only if the session is still in
// from. It reports whether the transition happened.
func (s *Session) advance(from, to State) bool {
	s.mu.Lock()
	if s.state != from {
		s.mu.Unlock()
		return false
	}
	s.state = to
	s.mu.Unlock()
	s.notify(from, to)
	return true
}

// connect runs IDLE -> CONNECTING -> AWAITING_SETUP_ACK. Failures before the
// socket is open go straight to CLOSED. A hangup while connecting wins: every
// handle acquired after it is released here and connect returns ErrClosed.
func (s *Session) connect(ctx context.Context) error {
	if !s.advance(StateIdle, StateConnecting) {
		return s.abandon()
	}
	cfg := s.cfg

	if cfg.Descriptors == nil {
		return s.fail(ErrDescriptor, "no_descriptor")
	}
	desc, err := cfg.Descriptors.VoiceDescriptor(ctx)
	if s.isClosed() {
		return s.abandon()
	}
	if err != nil {
		if !errors.Is(err, ErrDescriptor) {
			err = errors.Join(ErrDescriptor, err)
		}
		return s.fail(err, "no_descriptor")
	}

	if cfg.Microphone == nil {
		return s.fail(ErrMicrophoneDenied, "denied")
	}
	capture, err := cfg.Microphone.Acquire(ctx, CaptureSampleRate)
	if err != nil {
		if s.isClosed() {
			return s.abandon()
		}
		if errors.Is(err, ErrMicrophoneDenied) {
			return s.fail(err, "denied")
		}
		return s.fail(err, "error")
	}
	if !s.adopt(func() { s.capture = capture }, func() { _ = capture.Close() }) {
		return s.abandon()
	}

	if cfg.Output != nil {
		r, err := cfg.Output.Open(PlaybackSampleRate)
		if err != nil {
			return s.fail(err, "error")
		}
		if !s.adopt(func() { s.renderer, s.sched = r, NewScheduler(r) }, func() { _ = r.Close() }) {
			return s.abandon()
		}
	}

	conn, err := cfg.Dialer.Dial(ctx, desc.URL)
	if err != nil {
		if s.isClosed() {
			return s.abandon()
		}
		return s.fail(err, "error")
	}
	if !s.adopt(func() { s.conn = conn }, func() { _ = conn.Close() }) {
		return s.abandon()
	}

	msg, err := SetupMessage(SetupOptions{
		Model:             desc.Model,
		SystemInstruction: cfg.SystemInstruction,
		VoiceName:         cfg.VoiceName,
		Transcribe:        cfg.Transcribe,
	})
	if err == nil {
		err = conn.Send(ctx, msg)
	}
	if err != nil {
		if s.isClosed() {
			return s.abandon()
		}
		return s.fail(err, "error")
	}
	if !s.advance(StateConnecting, StateAwaitingSetupAck) {
		return s.abandon()
	}
	return nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// adopt hands a freshly acquired resource to the session. If teardown has
// already started, nothing would release it, so release runs now and adopt
// reports false.
func (s *Session) adopt(store, release func()) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		release()
		return false
	}
	store()
	s.mu.Unlock()
	return true
}

// abandon ends a connect that lost to a hangup. Teardown already ran.
func (s *Session) abandon() error {
	close(s.pumps)
	return ErrClosed
}

// fail tears down a session that never reached the pumps.
func (s *Session) fail(err error, outcome string) error {
	s.teardownWith(err, false, outcome)
	close(s.pumps)
	return err
}

// run starts the capture and receive pumps. The first pump to fail tears the
// session down; teardown in turn unblocks the other pump.
func (s *Session) run() {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.ctx, s.cancel = ctx, cancel
	if s.closed {
		cancel()
	}
	s.mu.Unlock()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.capturePump(gctx) })
	g.Go(func() error { return s.receivePump(gctx) })

	go func() {
		s.teardown(classify(g.Wait()))
		close(s.pumps)
	}()
	// A failing pump cancels gctx; tear down right away instead of waiting
	// for a capture read that may still be blocked.
	go func() {
		<-gctx.Done()
		if cause := context.Cause(gctx); !errors.Is(cause, context.Canceled) {
			s.teardown(classify(cause))
		}
	}()
}

// classify maps a pump exit onto teardown's cause. The capture source ending
// and exits caused by an earlier teardown count as local.
func classify(err error) (error, bool) {
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, ErrClosed) {
		return nil, true
	}
	return err, false
}

// capturePump forwards microphone frames in capture order. Frames read
// before the setup acknowledgement are dropped, never sent.
func (s *Session) capturePump(ctx context.Context) error {
	s.mu.Lock()
	capture, conn := s.capture, s.conn
	s.mu.Unlock()
	for {
		frame, err := capture.Read(ctx)
		if err != nil {
			return err
		}
		switch s.State() {
		case StateStreaming:
		case StateAwaitingSetupAck:
			s.mu.Lock()
			s.dropped++
			s.mu.Unlock()
			continue
		default:
			return ErrClosed
		}
		msg, err := AudioMessage(frame)
		if err != nil {
			return err
		}
		s.sendMu.Lock()
		if s.State() != StateStreaming {
			s.sendMu.Unlock()
			return ErrClosed
		}
		err = conn.Send(ctx, msg)
		s.sendMu.Unlock()
		if err != nil {
			if s.State() != StateStreaming {
				return ErrClosed
			}
			return err
		}
	}
}

// receivePump applies server events in arrival order.
func (s *Session) receivePump(ctx context.Context) error {
	s.mu.Lock()
	conn, sched := s.conn, s.sched
	s.mu.Unlock()
	for {
		raw, err := conn.Receive(ctx)
		if err != nil {
			if s.State() >= StateClosing {
				return ErrClosed
			}
			return err
		}
		events, err := Decode(raw)
		if err != nil {
			return err
		}
		for _, ev := range events {
			switch e := ev.(type) {
			case SetupAck:
				s.advance(StateAwaitingSetupAck, StateStreaming)
			case Audio:
				if sched == nil {
					continue
				}
				if _, err := sched.Enqueue(e.PCM, e.SampleRate); err != nil {
					if errors.Is(err, ErrClosed) {
						return ErrClosed
					}
					s.log.Warn().Err(err).Msg("playback schedule failed")
				}
			case Text:
				entry := Entry{Speaker: e.Speaker, Text: e.Text}
				s.mu.Lock()
				s.transcript = append(s.transcript, entry)
				s.mu.Unlock()
				if s.cfg.OnTranscript != nil {
					s.cfg.OnTranscript(entry)
				}
			case Interrupted:
				if sched != nil {
					sched.Flush()
				}
			case TurnComplete:
				s.log.Debug().Msg("model turn complete")
			case Error:
				return &RemoteError{Message: e.Message}
			}
		}
	}
}

func (s *Session) teardown(cause error, local bool) {
	outcome := "hangup"
	var re *RemoteError
	switch {
	case local:
	case errors.Is(cause, ErrRemoteClosed):
		outcome = "remote_closed"
	case errors.As(cause, &re):
		outcome = "remote_error"
	default:
		outcome = "error"
	}
	s.teardownWith(cause, local, outcome)
}

// teardownWith is the single exit path. Order: stop sending audio, send
// stream end if the socket is open, close the socket, stop pending playback,
// release the microphone, close the renderer. Runs once.
func (s *Session) teardownWith(cause error, local bool, outcome string) {
	s.tearOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		prev := s.state
		conn, capture, renderer, sched := s.conn, s.capture, s.renderer, s.sched
		cancel := s.cancel
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		// An audio Send in flight finishes before CLOSING; none starts after.
		s.sendMu.Lock()
		if prev >= StateAwaitingSetupAck {
			s.setState(StateClosing)
		}
		s.sendMu.Unlock()
		if conn != nil {
			if !errors.Is(cause, ErrRemoteClosed) && !errors.Is(cause, ErrTransport) {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				_ = conn.Send(ctx, AudioStreamEndMessage())
				cancel()
			}
			if err := conn.Close(); err != nil {
				s.log.Debug().Err(err).Msg("close transport")
			}
		}
		if sched != nil {
			sched.StopAll()
		}
		if capture != nil {
			_ = capture.Close()
		}
		if renderer != nil {
			if err := renderer.Close(); err != nil {
				s.log.Debug().Err(err).Msg("close renderer")
			}
		}

		s.mu.Lock()
		if !local {
			s.err = cause
		}
		s.mu.Unlock()
		s.setState(StateClosed)
		s.cfg.Metrics.VoiceSession(outcome)
		if cause != nil && !local {
			s.log.Warn().Err(cause).Str("outcome", outcome).Msg("voice session ended")
		} else {
			s.log.Info().Str("outcome", outcome).Msg("voice session ended")
		}
		s.bridge.release(s)
		close(s.done)
	})
}
