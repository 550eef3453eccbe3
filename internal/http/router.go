// Package httpapi wires the storefront HTTP transport (Gin) to the services,
// middleware and handlers. It owns the cross-cutting concerns: tracing,
// correlation ids, redacted logging, panic recovery, compression, metrics,
// idempotent order replays, rate limiting, CORS and security headers.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/docs"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/config"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/http/handlers"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/http/middleware"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/repo"
)

// Deps are the collaborators behind the routes. DB backs the idempotency
// records and the readiness probe; nil services answer 503.
type Deps struct {
	DB        *gorm.DB
	Orders    handlers.OrderService
	Promos    handlers.PromoService
	Catalog   handlers.CatalogService
	Voice     handlers.VoiceService
	Assistant handlers.AssistantService
}

// idempotencyStore adapts the repo functions to the middleware lookup and
// the handler recorder.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func (s idempotencyStore) Lookup(ctx context.Context, clientID, scope, key string, now time.Time) (string, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, clientID, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.OrderID, true, nil
}

// Record stores the result. A concurrent duplicate already holds the same
// answer, so ErrDuplicate is not an error here.
func (s idempotencyStore) Record(ctx context.Context, clientID, scope, key, orderID string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, clientID, scope, key, orderID, status, s.ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// RegisterRoutes attaches middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry
//  2. RequestID
//  3. RedactingLogger (attaches the request logger)
//  4. Recovery
//  5. Body size limit
//  6. Metrics
//  7. Idempotency validator (before the limiter so replays bypass it)
//  8. Rate limiter
//  9. CORS, security headers, gzip
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-Telegram-Bot-Api-Secret-Token"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var idem *idempotencyStore
	var lookup middleware.IdempotencyLookup
	if d.DB != nil {
		idem = &idempotencyStore{db: d.DB, ttl: cfg.IdempotencyTTL}
		lookup = idem.Lookup
	}
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 128}, lookup))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClient(""))
	r.Use(rl.Handler())

	allowHeaders := []string{
		"Origin", "Content-Type", "Accept",
		middleware.HeaderIdempotencyKey, middleware.HeaderClientID, "If-None-Match",
	}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", middleware.HeaderReplayed}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even without an Origin header (simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "Sahifa topilmadi")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "Bu usul qo'llab-quvvatlanmaydi")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/ready", readiness(d.DB))

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	deps := handlers.Deps{
		Orders:    d.Orders,
		Promos:    d.Promos,
		Catalog:   d.Catalog,
		Voice:     d.Voice,
		Assistant: d.Assistant,
	}
	if idem != nil {
		deps.Idempotency = idem
	}
	h := handlers.New(deps)

	aiLimiter := middleware.NewRateLimiter(cfg.AIRateRPS, cfg.AIRateBurst, middleware.KeyByClient("ai"))

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/orders", h.CreateOrder)
		api.POST("/orders/track", h.TrackOrders)
		api.POST("/promo/validate", h.ValidatePromo)

		api.GET("/voice/session", middleware.NoStore(), h.VoiceSession)
		api.POST("/ai/generate", aiLimiter.Handler(), h.Generate)

		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/search", h.SearchProducts)
		api.GET("/categories", h.ListCategories)
	}
}

// readiness reports 503 until the database answers a ping.
func readiness(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled"})
			return
		}
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("readiness: db ping failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "db": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "up"})
	}
}

// limitBody caps request bodies at maxBytes; larger reads fail downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
