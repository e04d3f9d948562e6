package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string

	DatabaseURL     string
	ExperienceStore string
	SQLitePath      string
	CacheStore      string
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	LLMProvider   string
	LLMModel      string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAITimeout time.Duration
	GeminiAPIKey  string

	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingServiceURL string
	EmbeddingDimensions int

	DownloadSigningSecret string
	DownloadURLTTL        time.Duration

	SQSQueueURL string
	RabbitMQURL string

	Pipeline Pipeline
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience. Existing env wins.
	for _, path := range []string{".env", "cmd/.env"} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				log.Printf("config: load %s: %v", path, err)
			}
		}
	}

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	secret := getEnv("DOWNLOAD_SIGNING_SECRET", "")
	if secret == "" {
		if env == "production" {
			log.Printf("DOWNLOAD_SIGNING_SECRET is required in production")
		}
		secret = "dev-download-secret"
	}

	pipeline := DefaultPipeline()
	if path := getEnv("PIPELINE_CONFIG", ""); path != "" {
		overlay, err := LoadPipelineFile(path, pipeline)
		if err != nil {
			log.Printf("config: pipeline overlay %s ignored: %v", path, err)
		} else {
			pipeline = overlay
		}
	}
	pipeline = pipelineFromEnv(pipeline)

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             env,

		DatabaseURL:     dbURL,
		ExperienceStore: normalizeExperienceStore(getEnv("EXPERIENCE_STORE", ""), dbURL),
		SQLitePath:      getEnv("SQLITE_PATH", "./data/experiences.db"),
		CacheStore:      normalizeCacheStore(getEnv("CACHE_STORE", ""), dbURL),
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),

		LLMProvider:   strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		LLMModel:      getEnv("LLM_MODEL", "gpt-4o-mini"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		OpenAITimeout: getEnvDuration("OPENAI_TIMEOUT_SECONDS", 120*time.Second),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),

		EmbeddingProvider:   strings.ToLower(getEnv("EMBEDDING_PROVIDER", "hash")),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingServiceURL: getEnv("EMBEDDING_SERVICE_URL", ""),
		EmbeddingDimensions: getEnvInt("EMBEDDING_DIMENSIONS", 768),

		DownloadSigningSecret: secret,
		DownloadURLTTL:        maxDuration(getEnvDuration("DOWNLOAD_URL_TTL", 15*time.Minute), time.Minute),

		SQSQueueURL: getEnv("RA_SQS_QUEUE_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		Pipeline: pipeline,
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
	if err != nil || val <= 0 {
		log.Printf("config: %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val <= 0 {
		log.Printf("config: %s invalid duration %q, using %s", key, raw, def)
		return def
	}
	return val
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
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
	case "test":
		return "test"
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

func normalizeExperienceStore(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pg", "postgres":
		return "pg"
	case "sqlite":
		return "sqlite"
	case "memory":
		return "memory"
	}
	if dbURL != "" {
		return "pg"
	}
	return "memory"
}

func normalizeCacheStore(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pg", "postgres":
		return "pg"
	case "memory":
		return "memory"
	}
	if dbURL != "" {
		return "pg"
	}
	return "memory"
}
