// Command luxecore-bot runs the LUXECORE Telegram storefront over long
// polling. It talks to the storefront API for catalog, orders and the
// assistant, and keeps per-user sessions in Redis (or memory without Redis).
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/assistant"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/bot"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/cache"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/config"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/metrics"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/observability"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/session"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/storefront"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/sysutil"
)

const service = "luxecore-bot"

var version = "dev"

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
	if cfg.Telegram.Token == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	logger := sysutil.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty, service)
	gin.SetMode(cfg.GinMode)
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

	m := metrics.Registry("luxecore")

	store, closeStore := newStore(ctx, cfg, logger)
	defer closeStore()

	client := storefront.New(storefront.Config{
		BaseURL:  cfg.StorefrontURL,
		Timeout:  15 * time.Second,
		Source:   "bot",
		ClientID: service,
	}, m, logger)

	engine := bot.New(bot.Deps{
		Catalog:           client,
		Orders:            client,
		Promos:            client,
		Tracker:           client,
		Assistant:         newAssistant(cfg, client, m, logger),
		SystemInstruction: cfg.Telegram.SystemPrompt,
	}, logger)

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("telegram login: %w", err)
	}
	api.Debug = cfg.Telegram.Debug
	logger.Info().Str("bot", api.Self.UserName).Msg("telegram authorized")

	transport := bot.NewTransport(api, engine, store, m, logger, bot.TransportConfig{
		RPS:   cfg.Telegram.RateRPS,
		Burst: cfg.Telegram.RateBurst,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return transport.Run(gctx) })
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	err = g.Wait()
	logger.Info().Msg("stopped")
	return err
}

// newStore picks Redis when it is configured and reachable, memory otherwise.
func newStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (session.Store, func()) {
	if !cfg.Redis.Enabled() {
		logger.Warn().Msg("REDIS_ADDR not set, sessions are kept in memory")
		return session.NewMemoryStore(cfg.Telegram.SessionTTL), func() {}
	}
	rdb := cache.New(cfg.Redis, "luxecore:", logger)
	if err := rdb.Ping(ctx); err != nil {
		logger.Warn().Err(err).Msg("redis ping failed, sessions are kept in memory")
		_ = rdb.Close()
		return session.NewMemoryStore(cfg.Telegram.SessionTTL), func() {}
	}
	return session.NewRedisStore(rdb, cfg.Telegram.SessionTTL), func() {
		if err := rdb.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed closing redis")
		}
	}
}

// newAssistant answers through the storefront generation proxy. With Gemini
// keys configured locally it falls back to calling Gemini directly when the
// proxy fails.
func newAssistant(cfg config.Config, proxy assistant.Generator, m *metrics.Metrics, logger zerolog.Logger) assistant.Generator {
	direct := assistant.New(assistant.Config{
		APIKeys: cfg.Gemini.APIKeys,
		Models:  cfg.Gemini.Models,
		Timeout: cfg.Gemini.Timeout,
	}, m, logger)
	if !direct.Configured() {
		return proxy
	}
	logger.Info().Int("models", len(cfg.Gemini.Models)).Msg("assistant falls back to direct Gemini")
	return assistant.Fallback(proxy, direct)
}
