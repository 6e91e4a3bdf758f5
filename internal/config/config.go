// Package config loads XoptYmiZ configuration from environment variables,
// an optional .env file, and an optional YAML config file. Environment
// values always win over file values.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LLM provider identifiers.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// LLM inference
	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	OllamaHost      string `yaml:"ollama_host"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`

	// Pipeline tuning
	MaxEntities      int           `yaml:"max_entities"`
	MinImportance    int           `yaml:"min_importance"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
	IngestTimeout    time.Duration `yaml:"ingest_timeout"`
	BatchConcurrency int           `yaml:"batch_concurrency"`
	BatchDelay       time.Duration `yaml:"batch_delay"`

	// HTTP server
	ServerPort string `yaml:"server_port"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Load reads configuration: defaults, then the YAML file (if present), then
// a .env file (if present), then real environment variables.
func Load() Config {
	// .env is best-effort; a missing file is not an error.
	_ = godotenv.Load()

	cfg := defaults()

	path := getEnv("XOPTYMIZ_CONFIG", "xoptymiz.yaml")
	if err := loadYAML(path, &cfg); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load config file, using env/defaults", "file", path, "error", err)
	}

	applyEnv(&cfg)
	return cfg
}

func defaults() Config {
	return Config{
		SurrealDBURL:       "ws://localhost:8000/rpc",
		SurrealDBNamespace: "xoptymiz",
		SurrealDBDatabase:  "graph",
		SurrealDBUser:      "root",
		SurrealDBPass:      "root",
		SurrealDBAuthLevel: "root",

		LLMProvider: ProviderOllama,
		LLMModel:    "llama3",
		OllamaHost:  "http://localhost:11434",

		MaxEntities:      25,
		MinImportance:    3,
		FetchTimeout:     15 * time.Second,
		IngestTimeout:    60 * time.Second,
		BatchConcurrency: 5,
		BatchDelay:       500 * time.Millisecond,

		ServerPort: "8090",

		LogFile:  "/tmp/xoptymiz.log",
		LogLevel: slog.LevelInfo,
	}
}

// loadYAML reads a YAML config file with ${ENV} expansion.
func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.SurrealDBURL = getEnv("SURREALDB_URL", cfg.SurrealDBURL)
	cfg.SurrealDBNamespace = getEnv("SURREALDB_NAMESPACE", cfg.SurrealDBNamespace)
	cfg.SurrealDBDatabase = getEnv("SURREALDB_DATABASE", cfg.SurrealDBDatabase)
	cfg.SurrealDBUser = getEnv("SURREALDB_USER", cfg.SurrealDBUser)
	cfg.SurrealDBPass = getEnv("SURREALDB_PASS", cfg.SurrealDBPass)
	cfg.SurrealDBAuthLevel = getEnv("SURREALDB_AUTH_LEVEL", cfg.SurrealDBAuthLevel)

	cfg.LLMProvider = getEnv("XOPTYMIZ_LLM_PROVIDER", cfg.LLMProvider)
	cfg.LLMModel = getEnv("XOPTYMIZ_LLM_MODEL", cfg.LLMModel)
	cfg.OllamaHost = getEnv("OLLAMA_HOST", cfg.OllamaHost)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)

	cfg.MaxEntities = getEnvInt("XOPTYMIZ_MAX_ENTITIES", cfg.MaxEntities)
	cfg.MinImportance = getEnvInt("XOPTYMIZ_MIN_IMPORTANCE", cfg.MinImportance)
	cfg.FetchTimeout = getEnvDuration("XOPTYMIZ_FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.IngestTimeout = getEnvDuration("XOPTYMIZ_INGEST_TIMEOUT", cfg.IngestTimeout)
	cfg.BatchConcurrency = getEnvInt("XOPTYMIZ_BATCH_CONCURRENCY", cfg.BatchConcurrency)
	cfg.BatchDelay = getEnvDuration("XOPTYMIZ_BATCH_DELAY", cfg.BatchDelay)

	cfg.ServerPort = getEnv("XOPTYMIZ_SERVER_PORT", cfg.ServerPort)

	cfg.LogFile = getEnv("XOPTYMIZ_LOG_FILE", cfg.LogFile)
	cfg.LogLevel = parseLogLevel(getEnv("XOPTYMIZ_LOG_LEVEL", ""), cfg.LogLevel)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string, defaultLevel slog.Level) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return defaultLevel
	}
}
