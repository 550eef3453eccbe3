package voice

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Microphone hands out an exclusive capture handle.
type Microphone interface {
	// Acquire opens capture at sampleRate. A refusal wraps ErrMicrophoneDenied.
	Acquire(ctx context.Context, sampleRate int) (Capture, error)
}

// Capture yields frames of samples in [-1, 1]. Read returns io.EOF when the
// source ends or after Close.
type Capture interface {
	Read(ctx context.Context) ([]float32, error)
	Close() error
}

// Output opens a rendering context.
type Output interface {
	Open(sampleRate int) (Renderer, error)
}

// ---- reader microphone ----

// SampleFormat is the raw sample encoding read by ReaderMicrophone.
type SampleFormat int

const (
	// SamplePCM16 is signed 16-bit little-endian, `arecord -f S16_LE`.
	SamplePCM16 SampleFormat = iota
	// SampleFloat32 is IEEE float32 little-endian, `arecord -f FLOAT_LE`.
	SampleFloat32
)

func (f SampleFormat) size() int {
	if f == SampleFloat32 {
		return 4
	}
	return 2
}

// ReaderMicrophone captures mono samples from R, PCM16 unless Format says
// otherwise, e.g. `arecord -f S16_LE -r 16000 -c 1 -t raw`. A nil R behaves
// like a denied permission.
type ReaderMicrophone struct {
	R      io.Reader
	Format SampleFormat
	// FrameSamples is the number of samples per frame; 0 means 100 ms.
	FrameSamples int

	held atomic.Bool
}

// Acquire implements Microphone. Only one capture may be open at a time.
func (m *ReaderMicrophone) Acquire(_ context.Context, sampleRate int) (Capture, error) {
	if m.R == nil {
		return nil, ErrMicrophoneDenied
	}
	if !m.held.CompareAndSwap(false, true) {
		return nil, ErrMicrophoneBusy
	}
	n := m.FrameSamples
	if n <= 0 {
		n = sampleRate / 10
	}
	if n <= 0 {
		n = CaptureSampleRate / 10
	}
	return &readerCapture{mic: m, format: m.Format, buf: make([]byte, m.Format.size()*n)}, nil
}

type readerCapture struct {
	mic    *ReaderMicrophone
	format SampleFormat
	buf    []byte
	mu     sync.Mutex
	closed atomic.Bool
}

// Read blocks on the underlying reader; Close does not interrupt a read that
// is already waiting, but the frame it returns is discarded.
func (c *readerCapture) Read(_ context.Context) ([]float32, error) {
	if c.closed.Load() {
		return nil, io.EOF
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.ReadFull(c.mic.R, c.buf)
	if c.closed.Load() {
		return nil, io.EOF
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}
	if c.format != SampleFloat32 {
		return DecodePCM16(c.buf)
	}
	out := make([]float32, len(c.buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(c.buf[4*i:]))
	}
	return out, nil
}

func (c *readerCapture) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.mic.held.Store(false)
	}
	return nil
}

// ---- writer renderer ----

// WriterOutput renders PCM16 to W in real time, e.g. into `aplay -f S16_LE
// -r 24000 -c 1`.
type WriterOutput struct {
	W io.Writer
}

// Open implements Output.
func (o WriterOutput) Open(int) (Renderer, error) {
	if o.W == nil {
		return nil, errors.New("voice: no audio output")
	}
	return NewWriterRenderer(o.W), nil
}

type playback struct {
	at      time.Duration
	pcm     []byte
	done    func()
	doneOne sync.Once
	stopped atomic.Bool
}

func (p *playback) Stop() { p.stopped.Store(true) }

func (p *playback) finish() { p.doneOne.Do(p.done) }

// WriterRenderer writes each chunk to an io.Writer when its start time on a
// wall clock is reached. Chunks are written in the order they were played,
// which the Scheduler guarantees is start-time order.
type WriterRenderer struct {
	w     io.Writer
	start time.Time
	queue chan *playback
	quit  chan struct{}
	wg    sync.WaitGroup

	closeOnce sync.Once
	now       func() time.Time
}

// NewWriterRenderer starts the writer goroutine. Close stops it.
func NewWriterRenderer(w io.Writer) *WriterRenderer {
	r := &WriterRenderer{
		w:     w,
		start: time.Now(),
		queue: make(chan *playback, 256),
		quit:  make(chan struct{}),
		now:   time.Now,
	}
	r.wg.Add(1)
	go r.loop()
	return r
}

// Now is the time elapsed since the renderer was opened.
func (r *WriterRenderer) Now() time.Duration { return r.now().Sub(r.start) }

// Play queues pcm for writing at the given clock time.
func (r *WriterRenderer) Play(at time.Duration, pcm []byte, _ int, done func()) (Handle, error) {
	if done == nil {
		done = func() {}
	}
	p := &playback{at: at, pcm: pcm, done: done}
	select {
	case <-r.quit:
		return nil, ErrClosed
	default:
	}
	select {
	case r.queue <- p:
		return p, nil
	case <-r.quit:
		return nil, ErrClosed
	}
}

func (r *WriterRenderer) loop() {
	defer r.wg.Done()
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	for {
		select {
		case <-r.quit:
			r.drain()
			return
		case p := <-r.queue:
			if wait := p.at - r.Now(); wait > 0 && !p.stopped.Load() {
				timer.Reset(wait)
				select {
				case <-timer.C:
				case <-r.quit:
					p.finish()
					r.drain()
					return
				}
			}
			if !p.stopped.Load() {
				_, _ = r.w.Write(p.pcm)
			}
			p.finish()
		}
	}
}

func (r *WriterRenderer) drain() {
	for {
		select {
		case p := <-r.queue:
			p.finish()
		default:
			return
		}
	}
}

// Close stops the writer goroutine and completes every queued chunk without
// writing it. Safe to repeat.
func (r *WriterRenderer) Close() error {
	r.closeOnce.Do(func() {
		close(r.quit)
		r.wg.Wait()
	})
	return nil
}
