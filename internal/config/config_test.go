package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := defaults()

	if cfg.SurrealDBURL != "ws://localhost:8000/rpc" {
		t.Errorf("unexpected default SurrealDB URL: %s", cfg.SurrealDBURL)
	}
	if cfg.BatchConcurrency != 5 {
		t.Errorf("default batch concurrency = %d, want 5", cfg.BatchConcurrency)
	}
	if cfg.MaxEntities != 25 || cfg.MinImportance != 3 {
		t.Errorf("unexpected annotation defaults: %d/%d", cfg.MaxEntities, cfg.MinImportance)
	}
	if cfg.IngestTimeout != 60*time.Second {
		t.Errorf("default ingest timeout = %s", cfg.IngestTimeout)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SURREALDB_NAMESPACE", "test-ns")
	t.Setenv("XOPTYMIZ_MAX_ENTITIES", "7")
	t.Setenv("XOPTYMIZ_FETCH_TIMEOUT", "3s")
	t.Setenv("XOPTYMIZ_LOG_LEVEL", "debug")

	cfg := defaults()
	applyEnv(&cfg)

	if cfg.SurrealDBNamespace != "test-ns" {
		t.Errorf("namespace = %s, want test-ns", cfg.SurrealDBNamespace)
	}
	if cfg.MaxEntities != 7 {
		t.Errorf("max entities = %d, want 7", cfg.MaxEntities)
	}
	if cfg.FetchTimeout != 3*time.Second {
		t.Errorf("fetch timeout = %s, want 3s", cfg.FetchTimeout)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("log level = %v, want debug", cfg.LogLevel)
	}
}

func TestApplyEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("XOPTYMIZ_MAX_ENTITIES", "not-a-number")
	t.Setenv("XOPTYMIZ_BATCH_DELAY", "soon")

	cfg := defaults()
	applyEnv(&cfg)

	if cfg.MaxEntities != 25 {
		t.Errorf("invalid int should keep default, got %d", cfg.MaxEntities)
	}
	if cfg.BatchDelay != 500*time.Millisecond {
		t.Errorf("invalid duration should keep default, got %s", cfg.BatchDelay)
	}
}

func TestLoadYAMLExpandsEnv(t *testing.T) {
	t.Setenv("TEST_DB_USER", "yaml-user")

	dir := t.TempDir()
	path := filepath.Join(dir, "xoptymiz.yaml")
	content := "surrealdb_user: ${TEST_DB_USER}\nserver_port: \"9999\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := defaults()
	if err := loadYAML(path, &cfg); err != nil {
		t.Fatalf("loadYAML failed: %v", err)
	}

	if cfg.SurrealDBUser != "yaml-user" {
		t.Errorf("user = %s, want yaml-user", cfg.SurrealDBUser)
	}
	if cfg.ServerPort != "9999" {
		t.Errorf("port = %s, want 9999", cfg.ServerPort)
	}
	// Untouched fields keep defaults.
	if cfg.SurrealDBDatabase != "graph" {
		t.Errorf("database = %s, want graph", cfg.SurrealDBDatabase)
	}
}

func TestLoadYAMLMissingFile(t *testing.T) {
	cfg := defaults()
	err := loadYAML(filepath.Join(t.TempDir(), "nope.yaml"), &cfg)
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("test message", "key", "value")

	if !strings.Contains(stderr.String(), "test message") {
		t.Error("stderr handler should receive the message")
	}

	// File output is JSON.
	var entry map[string]any
	if err := json.Unmarshal(file.Bytes(), &entry); err != nil {
		t.Fatalf("file output not JSON: %v", err)
	}
	if entry["msg"] != "test message" || entry["key"] != "value" {
		t.Errorf("unexpected JSON entry: %v", entry)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in, slog.LevelInfo); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
