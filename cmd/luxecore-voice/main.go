// Command luxecore-voice is a terminal voice client for the LUXECORE
// assistant. It reads 16 kHz mono PCM16 from stdin, streams it to the live
// voice endpoint described by the storefront API, and writes the 24 kHz
// reply audio to stdout. Logs and the transcript go to stderr.
//
//	arecord -f S16_LE -r 16000 -c 1 -t raw | luxecore-voice | aplay -f S16_LE -r 24000 -c 1
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/config"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/metrics"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/observability"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/storefront"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/sysutil"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/voice"
)

const service = "luxecore-voice"

var version = "dev"

const voiceInstruction = "Siz LUXECORE do'konining ovozli yordamchisisiz. Qisqa va samimiy javob bering, " +
	"foydalanuvchi qaysi tilda gapirsa, o'sha tilda javob qaytaring."

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// stdout carries audio.
	logger := sysutil.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty, service)
	logger.Info().Str("version", version).Str("storefront", cfg.StorefrontURL).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, service, version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	m := metrics.New("luxecore")
	client := storefront.New(storefront.Config{
		BaseURL:  cfg.StorefrontURL,
		Timeout:  10 * time.Second,
		Source:   "voice",
		ClientID: service,
	}, m, logger)

	bridge := voice.NewBridge(voice.Config{
		Descriptors:       client,
		Microphone:        microphone(os.Stdin),
		Output:            voice.WriterOutput{W: os.Stdout},
		SystemInstruction: voiceInstruction,
		Transcribe:        true,
		OnState: func(from, to voice.State) {
			logger.Debug().Str("from", from.String()).Str("to", to.String()).Msg("voice state")
		},
		OnTranscript: func(e voice.Entry) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", e.Speaker, e.Text)
		},
		Metrics: m,
		Log:     logger,
	})

	s, err := bridge.Start(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, voice.Message(err, cfg.VoiceLanguage))
		return err
	}

	go func() {
		select {
		case <-ctx.Done():
			s.Hangup()
		case <-s.Done():
		}
	}()

	err = s.Wait()
	logger.Info().Int("dropped_frames", s.Dropped()).Int("transcript", len(s.Transcript())).Msg("session ended")
	if err == nil || errors.Is(err, voice.ErrClosed) {
		return nil
	}
	fmt.Fprintln(os.Stderr, voice.Message(err, cfg.VoiceLanguage))
	return err
}

// microphone reads the S16_LE stream arecord writes to stdin.
func microphone(r io.Reader) *voice.ReaderMicrophone {
	return &voice.ReaderMicrophone{R: r, Format: voice.SamplePCM16}
}
