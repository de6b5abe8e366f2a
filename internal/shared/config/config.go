package config

import (
	"strings"

	"github.com/spf13/viper"

	"resume-builder/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	LLMProvider     string
	LLMModel        string
	OpenAIAPIKey    string
	GeminiAPIKey    string
	DatabaseURL     string
	Env             string
	JWTSecret       string
	JournalPath     string
	LogLevel        string
	OptimizeRate    float64
	OptimizeBurst   int
	ChromePath      string
}

var defaults = map[string]any{
	"PORT":               "8080",
	"ENV":                "dev",
	"CORS_ALLOW_ORIGINS": "http://localhost:3000,http://localhost:5173",
	"OBJECT_STORE":       "local",
	"LOCAL_STORE_DIR":    "./data",
	"LLM_PROVIDER":       "gemini",
	"LLM_MODEL":          "",
	"JOURNAL_PATH":       "",
	"LOG_LEVEL":          "info",
	"OPTIMIZE_RATE":      0.2,
	"OPTIMIZE_BURST":     3,
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	env := normalizeEnv(v.GetString("ENV"))
	dbURL := strings.TrimSpace(v.GetString("DATABASE_URL"))

	if env == "production" && dbURL == "" {
		telemetry.Warn("config.database_url_missing", map[string]any{"env": env})
	}

	return Config{
		Port:            v.GetString("PORT"),
		CORSAllowOrigin: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		ObjectStoreType: normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:   v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:       v.GetString("AWS_REGION"),
		S3Bucket:        v.GetString("S3_BUCKET"),
		S3Prefix:        v.GetString("S3_PREFIX"),
		SSEKMSKeyID:     v.GetString("SSE_KMS_KEY_ID"),
		LLMProvider:     normalizeProvider(v.GetString("LLM_PROVIDER")),
		LLMModel:        v.GetString("LLM_MODEL"),
		OpenAIAPIKey:    v.GetString("OPENAI_API_KEY"),
		GeminiAPIKey:    v.GetString("GEMINI_API_KEY"),
		DatabaseURL:     dbURL,
		Env:             env,
		JWTSecret:       v.GetString("JWT_SECRET"),
		JournalPath:     v.GetString("JOURNAL_PATH"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		OptimizeRate:    v.GetFloat64("OPTIMIZE_RATE"),
		OptimizeBurst:   v.GetInt("OPTIMIZE_BURST"),
		ChromePath:      v.GetString("CHROME_PATH"),
	}
}

// IsDevLike reports whether the environment allows in-memory fallbacks and dev identity headers.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
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
	case "development", "dev":
		return "dev"
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

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "none", "off", "local":
		return "none"
	default:
		return "gemini"
	}
}
