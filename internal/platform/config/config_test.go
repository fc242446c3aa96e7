package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"studyhub/internal/platform/config"
)

func TestNewAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected sqlite driver, got %s", cfg.Database.Driver)
	}
	if cfg.Database.DSN != filepath.Join(dir, ".studyhub", "studyhub.db") {
		t.Fatalf("unexpected dsn %s", cfg.Database.DSN)
	}
	if cfg.StatePath != filepath.Join(dir, ".studyhub", "timer-state.json") {
		t.Fatalf("unexpected state path %s", cfg.StatePath)
	}
	if cfg.Timer.DefaultMinutes != 25 || cfg.User.ID != "local" {
		t.Fatalf("unexpected defaults %+v %+v", cfg.Timer, cfg.User)
	}
}

func TestNewReadsYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := "user:\n  id: student-7\n  email: s7@example.com\ntimer:\n  default_minutes: 50\nlocation: UTC\n"
	if err := os.WriteFile(filepath.Join(dir, "studyhub.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("STUDYHUB_REDIS_ADDRESS", "localhost:6379")

	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.User.ID != "student-7" || cfg.User.Email != "s7@example.com" {
		t.Fatalf("user not loaded from yaml: %+v", cfg.User)
	}
	if cfg.Timer.DefaultMinutes != 50 {
		t.Fatalf("expected 50 minutes, got %d", cfg.Timer.DefaultMinutes)
	}
	if cfg.Redis.Address != "localhost:6379" {
		t.Fatalf("expected env override, got %q", cfg.Redis.Address)
	}
	if cfg.Location.String() != "UTC" {
		t.Fatalf("expected UTC location, got %s", cfg.Location)
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := config.New(""); err == nil {
		t.Fatalf("empty data dir must fail")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "studyhub.yaml"), []byte("database:\n  driver: mongo\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.New(dir); err == nil {
		t.Fatalf("unsupported driver must fail")
	}
}
