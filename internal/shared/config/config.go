package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"resume-ranker/internal/cohort"
	"resume-ranker/internal/jobs"
	"resume-ranker/internal/matching"
	"resume-ranker/internal/shared/telemetry"
)

// Config holds application configuration. It is loaded once in main and
// passed to constructors.
type Config struct {
	Env             string   `yaml:"env"`
	Port            string   `yaml:"port"`
	CORSAllowOrigin []string `yaml:"cors_allow_origins"`
	DatabaseURL     string   `yaml:"database_url"`

	ObjectStoreType string `yaml:"object_store"`
	LocalStoreDir   string `yaml:"local_store_dir"`
	AWSRegion       string `yaml:"aws_region"`
	S3Bucket        string `yaml:"s3_bucket"`
	S3Prefix        string `yaml:"s3_prefix"`
	SSEKMSKeyID     string `yaml:"sse_kms_key_id"`
	SQSQueueURL     string `yaml:"sqs_queue_url"`

	EmbeddingsURL     string        `yaml:"embeddings_url"`
	EmbeddingsModel   string        `yaml:"embeddings_model"`
	EmbeddingsTimeout time.Duration `yaml:"embeddings_timeout"`

	LLMProvider   string        `yaml:"llm_provider"`
	LLMModel      string        `yaml:"llm_model"`
	LLMBaseURL    string        `yaml:"llm_base_url"`
	LLMTimeout    time.Duration `yaml:"llm_timeout"`
	OpenAIAPIKey  string        `yaml:"openai_api_key"`
	LLMDailyLimit int           `yaml:"llm_daily_limit"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	Log       telemetry.Config          `yaml:"log"`
	Worker    jobs.WorkerConfig         `yaml:"worker"`
	Shortlist matching.ShortlistOptions `yaml:"shortlist"`
	Cohort    CohortConfig              `yaml:"cohort"`
}

// CohortConfig overrides the comparison and gap thresholds.
type CohortConfig struct {
	Comparator cohort.Policy `yaml:"comparator"`
	Gaps       cohort.Policy `yaml:"gaps"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Env:               "dev",
		Port:              "8080",
		CORSAllowOrigin:   []string{"http://localhost:5173"},
		ObjectStoreType:   "local",
		LocalStoreDir:     "./data",
		EmbeddingsTimeout: 30 * time.Second,
		LLMProvider:       "openai",
		LLMTimeout:        60 * time.Second,
		LLMDailyLimit:     5,
		RateLimitRPS:      5,
		RateLimitBurst:    20,
		Log:               telemetry.Config{Level: "info", Format: "json"},
		Shortlist:         matching.DefaultShortlistOptions(),
		Cohort: CohortConfig{
			Comparator: cohort.ComparatorPolicy,
			Gaps:       cohort.GapPolicy,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE, then .env files, then the process environment. Later sources
// win.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	loadEnvFiles(".env", "cmd/.env")
	applyEnv(&cfg)

	cfg.Env = normalizeEnv(cfg.Env)
	cfg.ObjectStoreType = normalizeStoreType(cfg.ObjectStoreType)
	if cfg.Env == "production" && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required in production")
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Env, "ENV")
	setString(&cfg.Port, "PORT")
	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		cfg.CORSAllowOrigin = splitAndTrim(v)
	}
	setString(&cfg.DatabaseURL, "DATABASE_URL")

	setString(&cfg.ObjectStoreType, "OBJECT_STORE")
	setString(&cfg.LocalStoreDir, "LOCAL_STORE_DIR")
	setString(&cfg.AWSRegion, "AWS_REGION")
	setString(&cfg.S3Bucket, "S3_BUCKET")
	setString(&cfg.S3Prefix, "S3_PREFIX")
	setString(&cfg.SSEKMSKeyID, "SSE_KMS_KEY_ID")
	setString(&cfg.SQSQueueURL, "SQS_QUEUE_URL")

	setString(&cfg.EmbeddingsURL, "EMBEDDINGS_URL")
	setString(&cfg.EmbeddingsModel, "EMBEDDINGS_MODEL")
	setDuration(&cfg.EmbeddingsTimeout, "EMBEDDINGS_TIMEOUT")

	setString(&cfg.LLMProvider, "LLM_PROVIDER")
	setString(&cfg.LLMModel, "LLM_MODEL")
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setDuration(&cfg.LLMTimeout, "LLM_TIMEOUT")
	setString(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	setInt(&cfg.LLMDailyLimit, "LLM_DAILY_LIMIT")

	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setInt(&cfg.RedisDB, "REDIS_DB")

	setFloat(&cfg.RateLimitRPS, "RATE_LIMIT_RPS")
	setInt(&cfg.RateLimitBurst, "RATE_LIMIT_BURST")

	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")

	setString(&cfg.Worker.ID, "WORKER_ID")
	setInt(&cfg.Worker.Concurrency, "WORKER_CONCURRENCY")
	setDuration(&cfg.Worker.PollInterval, "WORKER_POLL_INTERVAL")
	setDuration(&cfg.Worker.LeaseTTL, "WORKER_LEASE_TTL")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
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
