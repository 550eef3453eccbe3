// Command luxecore-api serves the storefront HTTP API: catalog, orders,
// promo validation, tracking, voice descriptors and text generation.
//
// @title       LUXECORE Storefront API
// @version     1.0
// @description Catalog, checkout and assistant boundaries for the LUXECORE shop.
// @BasePath    /api
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
	"github.com/rs/zerolog"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/assistant"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/cache"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/config"
	httpapi "github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/http"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/metrics"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/notify"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/observability"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/repo"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/search"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/services"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/sysutil"
)

const service = "luxecore-api"

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
	logger := sysutil.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty, service)
	gin.SetMode(cfg.GinMode)
	logger.Info().Str("version", version).Str("db", cfg.DB.Driver).Msg("starting")

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

	db, err := repo.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	logger.Info().Msg("database migrated")

	var promoCache services.JSONCache
	if cfg.Redis.Enabled() {
		rdb := cache.New(cfg.Redis, "luxecore:", logger)
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed closing redis")
			}
		}()
		if err := rdb.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("redis ping failed, promo cache disabled")
		} else {
			promoCache = rdb
		}
	}

	promos := services.NewPromoService(db, promoCache, cfg.PromoCacheTTL, logger)
	orders := services.NewOrderService(db, promos, newNotifier(cfg, m, logger), logger)

	gen := assistant.New(assistant.Config{
		APIKeys: cfg.Gemini.APIKeys,
		Models:  cfg.Gemini.Models,
		Timeout: cfg.Gemini.Timeout,
	}, m, logger)
	asst := &services.AssistantService{MaxInputRunes: 4000, MaxHistory: 20, KnowledgeTop: 3}
	if gen.Configured() {
		asst.Generator = gen
	} else {
		logger.Warn().Msg("GEMINI_API_KEYS not set, text generation disabled")
	}
	if p := cfg.Gemini.KnowledgePath; p != "" {
		idx, err := search.NewIndexFromMarkdown(p)
		if err != nil {
			logger.Warn().Err(err).Str("path", p).Msg("assistant knowledge not loaded")
		} else {
			asst.Knowledge = idx
		}
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:        db,
		Orders:    orders,
		Promos:    promos,
		Catalog:   services.NewCatalogService(db),
		Voice:     &services.VoiceService{Endpoint: cfg.Gemini.LiveEndpoint, Model: cfg.Gemini.LiveModel, APIKeys: cfg.Gemini.APIKeys},
		Assistant: asst,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}
	return nil
}

// newNotifier returns the Telegram operator notifier, or a no-op when the bot
// token or admin chat is not configured.
func newNotifier(cfg config.Config, m *metrics.Metrics, logger zerolog.Logger) services.Notifier {
	if cfg.Telegram.Token == "" || cfg.Telegram.AdminChatID == 0 {
		logger.Info().Msg("operator notifications disabled")
		return notify.Nop{}
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram unavailable, operator notifications disabled")
		return notify.Nop{}
	}
	return notify.NewTelegram(bot, cfg.Telegram.AdminChatID, m, logger)
}
