// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes the settings shared by
// the storefront API, the Telegram bot and the voice client: server timeouts,
// logging, database and cache connections, rate limiting, Gemini credentials
// and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "luxecore-api")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DatabaseConfig selects the GORM dialect and connection target.
type DatabaseConfig struct {
	Driver string // sqlite|postgres
	URL    string // sqlite file path or Postgres DSN (Supabase)
	Schema string // optional Postgres search_path
}

// RedisConfig describes the optional Redis connection. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	UseTLS   bool
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool { return strings.TrimSpace(r.Addr) != "" }

// GeminiConfig holds text generation and live voice settings.
type GeminiConfig struct {
	APIKeys      []string      // GEMINI_API_KEYS, tried in order
	Models       []string      // GEMINI_MODELS, fallback chain for text generation
	Timeout      time.Duration // per attempt
	LiveModel    string        // GEMINI_LIVE_MODEL
	LiveEndpoint string        // GEMINI_LIVE_ENDPOINT (websocket URL without key)

	// KnowledgePath is an optional markdown file of store help text used to
	// ground assistant answers (ASSISTANT_KNOWLEDGE_PATH).
	KnowledgePath string
}

// TelegramConfig holds the bot token and the operator chat for order alerts.
type TelegramConfig struct {
	Token        string
	AdminChatID  int64
	SessionTTL   time.Duration
	Debug        bool
	RateRPS      float64 // per-user updates per second
	RateBurst    int
	SystemPrompt string // assistant persona for the bot's AI mode
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DB            DatabaseConfig
	Redis         RedisConfig
	PromoCacheTTL time.Duration

	// Rate limiting
	RateRPS     float64 // tokens per second (>= 0)
	RateBurst   int     // bucket size (>= 1)
	AIRateRPS   float64 // stricter limit for /ai/generate
	AIRateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Upstreams
	Gemini        GeminiConfig
	Telegram      TelegramConfig
	StorefrontURL string // base URL of this API as seen by clients (bot, voice CLI)
	VoiceLanguage string // uz|ru|en

	// Observability
	OTEL OTELConfig
}

const defaultBotPrompt = "Siz LUXECORE onlayn do'konining maslahatchisisiz. " +
	"Qisqa, xushmuomala javob bering, o'zbek tilida yozing va faqat do'kon mahsulotlari, " +
	"yetkazib berish va to'lov haqida gapiring."

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// Storage
		DB: DatabaseConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			URL:    getenv("DATABASE_URL", "luxecore.db"),
			Schema: getenv("DB_SCHEMA", ""),
		},
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", ""),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getint("REDIS_DB", 0),
			UseTLS:   getbool("REDIS_TLS", false),
		},
		PromoCacheTTL: getdur("PROMO_CACHE_TTL", 5*time.Minute),

		// Rate limiting
		RateRPS:     getfloat("RATE_RPS", 5.0),
		RateBurst:   getint("RATE_BURST", 10),
		AIRateRPS:   getfloat("AI_RATE_RPS", 0.5),
		AIRateBurst: getint("AI_RATE_BURST", 3),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Upstreams
		Gemini: GeminiConfig{
			APIKeys:      splitCSV(getenv("GEMINI_API_KEYS", "")),
			Models:       splitCSV(getenv("GEMINI_MODELS", "gemini-2.5-flash,gemini-2.0-flash")),
			Timeout:      getdur("GEMINI_TIMEOUT", 30*time.Second),
			LiveModel:    getenv("GEMINI_LIVE_MODEL", "gemini-2.5-flash-native-audio-preview-09-2025"),
			LiveEndpoint: getenv("GEMINI_LIVE_ENDPOINT", "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"),

			KnowledgePath: getenv("ASSISTANT_KNOWLEDGE_PATH", ""),
		},
		Telegram: TelegramConfig{
			Token:       getenv("TELEGRAM_BOT_TOKEN", ""),
			AdminChatID: getint64("TELEGRAM_ADMIN_CHAT_ID", 0),
			SessionTTL:   getdur("BOT_SESSION_TTL", 72*time.Hour),
			Debug:        getbool("TELEGRAM_DEBUG", false),
			RateRPS:      getfloat("BOT_RATE_RPS", 1.0),
			RateBurst:    getint("BOT_RATE_BURST", 5),
			SystemPrompt: getenv("BOT_SYSTEM_PROMPT", defaultBotPrompt),
		},
		StorefrontURL: strings.TrimRight(getenv("STOREFRONT_URL", "http://localhost:8080/api"), "/"),
		VoiceLanguage: strings.ToLower(getenv("VOICE_LANGUAGE", "uz")),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "luxecore-api"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "postgresql" || cfg.DB.Driver == "supabase" {
		cfg.DB.Driver = "postgres"
	}
	switch cfg.VoiceLanguage {
	case "uz", "ru", "en":
	default:
		cfg.VoiceLanguage = "uz"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite", "postgres":
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if strings.TrimSpace(cfg.DB.URL) == "" {
		return cfg, errors.New("DATABASE_URL must not be empty")
	}
	if cfg.PromoCacheTTL <= 0 {
		return cfg, errors.New("PROMO_CACHE_TTL must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.AIRateRPS < 0 || cfg.AIRateBurst < 1 {
		return cfg, errors.New("AI_RATE_RPS must be >= 0 and AI_RATE_BURST >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if len(cfg.Gemini.Models) == 0 {
		return cfg, errors.New("GEMINI_MODELS must list at least one model")
	}
	if cfg.Gemini.Timeout <= 0 {
		return cfg, errors.New("GEMINI_TIMEOUT must be > 0")
	}
	if cfg.Telegram.SessionTTL <= 0 {
		return cfg, errors.New("BOT_SESSION_TTL must be > 0")
	}
	if cfg.Telegram.RateRPS <= 0 || cfg.Telegram.RateBurst < 1 {
		return cfg, errors.New("BOT_RATE_RPS must be > 0 and BOT_RATE_BURST >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
