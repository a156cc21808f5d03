package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"tenant-ingest/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	CORSAllowOrigin []string

	DatabaseURL      string
	MongoURL         string
	TenantCollection string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	Summarizer             string
	OpenAIAPIKey           string
	LLMModel               string
	OpenAITimeout          time.Duration
	SummarySentences       int
	SummaryMaxInputTokens  int
	SummaryMaxOutputTokens int

	MaxUploadBytes   int64
	ExtractTimeout   time.Duration
	SummarizeTimeout time.Duration
	StoreTimeout     time.Duration

	UploadRateLimit float64
	UploadBurst     int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	mongoURL := os.Getenv("MONGODB_URL")

	if env == "production" && (dbURL == "" || mongoURL == "") {
		telemetry.Warn("config.missing_store_urls", map[string]any{"env": env})
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		DatabaseURL:      dbURL,
		MongoURL:         mongoURL,
		TenantCollection: getEnv("TENANT_COLLECTION", "pdf_summaries"),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("UPLOAD_FOLDER", "./data/uploads"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),

		Summarizer:             normalizeSummarizer(getEnv("SUMMARIZER", "extractive")),
		OpenAIAPIKey:           getEnv("OPENAI_API_KEY", ""),
		LLMModel:               getEnv("LLM_MODEL", "gpt-3.5-turbo"),
		OpenAITimeout:          getEnvDuration("OPENAI_TIMEOUT", 120*time.Second),
		SummarySentences:       getEnvInt("SUMMARY_SENTENCES", 5),
		SummaryMaxInputTokens:  getEnvInt("SUMMARY_MAX_INPUT_TOKENS", 3000),
		SummaryMaxOutputTokens: getEnvInt("SUMMARY_MAX_OUTPUT_TOKENS", 200),

		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		ExtractTimeout:   getEnvDuration("EXTRACT_TIMEOUT", 60*time.Second),
		SummarizeTimeout: getEnvDuration("SUMMARIZE_TIMEOUT", 120*time.Second),
		StoreTimeout:     getEnvDuration("STORE_TIMEOUT", 15*time.Second),

		UploadRateLimit: getEnvFloat("RATE_LIMIT_UPLOAD_RPS", 5),
		UploadBurst:     getEnvInt("RATE_LIMIT_UPLOAD_BURST", 10),
	}
}

// IsDevLike reports whether the environment may fall back to in-memory stores.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		warnInvalid(key, raw, def)
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		warnInvalid(key, raw, def)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val <= 0 {
		warnInvalid(key, raw, def.String())
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeSummarizer(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	default:
		return "extractive"
	}
}

func warnInvalid(key, raw string, def any) {
	telemetry.Warn("config.invalid_value", map[string]any{"key": key, "value": raw, "default": def})
}
