// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// the messaging channel, model providers, catalog sources, and timeouts.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	apperrors "github.com/martinvidela/cursobot-go/internal/errors"
)

// Channel names supported by the server.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelLINE     = "line"
)

// Prompt rule-set variants. See internal/prompt.
const (
	RulesetStatus = "status"
	RulesetField  = "field"
	RulesetNotice = "notice"
)

// Config holds all application configuration
type Config struct {
	// Messaging channel selection: "whatsapp" (default) or "line"
	Channel string

	// WhatsApp Cloud API configuration
	WhatsAppToken       string // Graph API bearer token
	WhatsAppPhoneID     string // Sender phone number ID
	WhatsAppVerifyToken string // Webhook verification token

	// LINE configuration
	LineChannelToken  string
	LineChannelSecret string

	// LLM Configuration
	GeminiAPIKey string // Gemini API key
	GroqAPIKey   string // Groq API key (OpenAI-compatible provider)

	// LLM Model Configuration (optional, defaults apply if empty)
	GeminiModel         string
	GeminiFallbackModel string
	GroqModel           string
	GroqFallbackModel   string

	// LLM Provider Configuration
	LLMPrimaryProvider  string        // "gemini" or "groq" (default: "gemini")
	LLMFallbackProvider string        // (default: "groq")
	ModelCallTimeout    time.Duration // Bound on a single grounded model call

	// Prompt rule-set variant: "status" (default), "field", or "notice"
	PromptRuleset string

	// Catalog sources, first configured wins: snapshot, URL, then local file
	CatalogPath        string // Local JSON file
	CatalogURL         string // HTTP(S) source
	CatalogSnapshotKey string // Object-store snapshot key (requires R2 config)

	// Object store (Cloudflare R2 / S3-compatible) for catalog snapshots
	R2Endpoint    string
	R2AccessKeyID string
	R2SecretKey   string
	R2Bucket      string

	// Retrieval: enable BM25+Jaccard hybrid candidate ranking
	RAGHybrid bool

	// Observability
	BetterstackToken    string
	BetterstackEndpoint string
	SentryToken         string
	SentryHost          string
	SentryEnvironment   string

	// Metrics endpoint Basic Auth (empty password = no auth)
	MetricsUsername string
	MetricsPassword string

	// Bearer token guarding the outbound send/broadcast REST API
	APIToken string

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir string // Directory for the SQLite catalog database

	// Bot Configuration (embedded)
	Bot BotConfig
}

// BotConfig holds conversation pipeline configuration
type BotConfig struct {
	// Timeouts
	WebhookTimeout time.Duration // Budget for processing one inbound event

	// Per-conversation rate limit (token bucket)
	UserRateLimitBurst        float64 // Maximum burst tokens per conversation (default: 15)
	UserRateLimitRefillPerSec float64 // Tokens refilled per second (default: 0.1 = 1 per 10s)

	// Model-call budget (hourly refill + daily cap)
	LLMBurstTokens   float64 // Maximum burst tokens for model calls (default: 40)
	LLMRefillPerHour float64 // Tokens refilled per hour (default: 20)
	LLMDailyLimit    int     // Maximum model calls per day (default: 500, 0 = disabled)

	// Session lifecycle
	SessionIdleTTL       time.Duration // Evict sessions idle longer than this (default: 12h)
	SessionSweepInterval time.Duration // How often the eviction sweep runs (default: 10m)
}

// Load reads configuration from environment variables.
// It attempts to load .env file first, then reads from env vars.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Channel: getEnv("CHANNEL", ChannelWhatsApp),

		WhatsAppToken:       getEnv("WHATSAPP_TOKEN", ""),
		WhatsAppPhoneID:     getEnv("WHATSAPP_PHONE_ID", ""),
		WhatsAppVerifyToken: getEnv("WHATSAPP_VERIFY_TOKEN", ""),

		LineChannelToken:  getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineChannelSecret: getEnv("LINE_CHANNEL_SECRET", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GroqAPIKey:   getEnv("GROQ_API_KEY", ""),

		GeminiModel:         getEnv("GEMINI_MODEL", ""),
		GeminiFallbackModel: getEnv("GEMINI_FALLBACK_MODEL", ""),
		GroqModel:           getEnv("GROQ_MODEL", ""),
		GroqFallbackModel:   getEnv("GROQ_FALLBACK_MODEL", ""),

		LLMPrimaryProvider:  getEnv("LLM_PRIMARY_PROVIDER", "gemini"),
		LLMFallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", "groq"),
		ModelCallTimeout:    getDurationEnv("MODEL_CALL_TIMEOUT", ModelCall),

		PromptRuleset: getEnv("PROMPT_RULESET", RulesetStatus),

		CatalogPath:        getEnv("CATALOG_PATH", "cursos.json"),
		CatalogURL:         getEnv("CATALOG_URL", ""),
		CatalogSnapshotKey: getEnv("CATALOG_SNAPSHOT_KEY", ""),

		R2Endpoint:    getEnv("R2_ENDPOINT", ""),
		R2AccessKeyID: getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretKey:   getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:      getEnv("R2_BUCKET", ""),

		RAGHybrid: getBoolEnv("RAG_HYBRID", false),

		BetterstackToken:    getEnv("BETTERSTACK_TOKEN", ""),
		BetterstackEndpoint: getEnv("BETTERSTACK_ENDPOINT", ""),
		SentryToken:         getEnv("SENTRY_TOKEN", ""),
		SentryHost:          getEnv("SENTRY_HOST", "errors.betterstack.com"),
		SentryEnvironment:   getEnv("SENTRY_ENVIRONMENT", "production"),

		MetricsUsername: getEnv("METRICS_USERNAME", "prometheus"),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		APIToken: getEnv("API_TOKEN", ""),

		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		DataDir: getEnv("DATA_DIR", defaultDataDir()),

		Bot: BotConfig{
			WebhookTimeout:            getDurationEnv("WEBHOOK_TIMEOUT", WebhookProcessing),
			UserRateLimitBurst:        getFloatEnv("USER_RATE_LIMIT_BURST", 15.0),
			UserRateLimitRefillPerSec: getFloatEnv("USER_RATE_LIMIT_REFILL_PER_SEC", 0.1),
			LLMBurstTokens:            getFloatEnv("LLM_BURST_TOKENS", 40.0),
			LLMRefillPerHour:          getFloatEnv("LLM_REFILL_PER_HOUR", 20.0),
			LLMDailyLimit:             getIntEnv("LLM_DAILY_LIMIT", 500),
			SessionIdleTTL:            getDurationEnv("SESSION_IDLE_TTL", 12*time.Hour),
			SessionSweepInterval:      getDurationEnv("SESSION_SWEEP_INTERVAL", 10*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	switch c.Channel {
	case ChannelWhatsApp:
		if c.WhatsAppToken == "" {
			errs = append(errs, apperrors.NewValidationError("WHATSAPP_TOKEN", "required for the whatsapp channel"))
		}
		if c.WhatsAppPhoneID == "" {
			errs = append(errs, apperrors.NewValidationError("WHATSAPP_PHONE_ID", "required for the whatsapp channel"))
		}
	case ChannelLINE:
		if c.LineChannelToken == "" {
			errs = append(errs, apperrors.NewValidationError("LINE_CHANNEL_ACCESS_TOKEN", "required for the line channel"))
		}
		if c.LineChannelSecret == "" {
			errs = append(errs, apperrors.NewValidationError("LINE_CHANNEL_SECRET", "required for the line channel"))
		}
	default:
		errs = append(errs, apperrors.NewValidationError("CHANNEL", fmt.Sprintf("must be %q or %q, got %q", ChannelWhatsApp, ChannelLINE, c.Channel)))
	}

	switch c.PromptRuleset {
	case RulesetStatus, RulesetField, RulesetNotice:
	default:
		errs = append(errs, apperrors.NewValidationError("PROMPT_RULESET", fmt.Sprintf("must be status, field or notice, got %q", c.PromptRuleset)))
	}

	if c.Port == "" {
		errs = append(errs, apperrors.NewValidationError("PORT", "required"))
	}
	if c.DataDir == "" {
		errs = append(errs, apperrors.NewValidationError("DATA_DIR", "required"))
	}
	if c.ModelCallTimeout <= 0 {
		errs = append(errs, apperrors.NewValidationError("MODEL_CALL_TIMEOUT", fmt.Sprintf("must be positive, got %v", c.ModelCallTimeout)))
	}
	if c.CatalogSnapshotKey != "" && (c.R2Endpoint == "" || c.R2AccessKeyID == "" || c.R2SecretKey == "" || c.R2Bucket == "") {
		errs = append(errs, apperrors.NewValidationError("CATALOG_SNAPSHOT_KEY", "requires R2_ENDPOINT, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY and R2_BUCKET"))
	}
	if err := c.Bot.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bot config: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks bot pipeline configuration.
func (b *BotConfig) Validate() error {
	var errs []error

	if b.WebhookTimeout <= 0 {
		errs = append(errs, apperrors.NewValidationError("WEBHOOK_TIMEOUT", fmt.Sprintf("must be positive, got %v", b.WebhookTimeout)))
	}
	if b.UserRateLimitBurst <= 0 {
		errs = append(errs, apperrors.NewValidationError("USER_RATE_LIMIT_BURST", fmt.Sprintf("must be positive, got %v", b.UserRateLimitBurst)))
	}
	if b.UserRateLimitRefillPerSec <= 0 {
		errs = append(errs, apperrors.NewValidationError("USER_RATE_LIMIT_REFILL_PER_SEC", fmt.Sprintf("must be positive, got %v", b.UserRateLimitRefillPerSec)))
	}
	if b.LLMDailyLimit < 0 {
		errs = append(errs, apperrors.NewValidationError("LLM_DAILY_LIMIT", fmt.Sprintf("cannot be negative, got %d", b.LLMDailyLimit)))
	}
	if b.SessionIdleTTL <= 0 {
		errs = append(errs, apperrors.NewValidationError("SESSION_IDLE_TTL", fmt.Sprintf("must be positive, got %v", b.SessionIdleTTL)))
	}
	if b.SessionSweepInterval <= 0 {
		errs = append(errs, apperrors.NewValidationError("SESSION_SWEEP_INTERVAL", fmt.Sprintf("must be positive, got %v", b.SessionSweepInterval)))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SQLitePath returns the catalog database path inside DataDir.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "catalog.db")
}

// HasSnapshotStore reports whether the object-store snapshot source is configured.
func (c *Config) HasSnapshotStore() bool {
	return c.R2Endpoint != "" && c.R2AccessKeyID != "" && c.R2SecretKey != "" && c.R2Bucket != ""
}

// defaultDataDir returns the default data directory.
func defaultDataDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "cursobot")
	}
	return "data"
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
