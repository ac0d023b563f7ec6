package config

import (
	"os"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/carelink_test")
	t.Cleanup(func() { os.Unsetenv("DATABASE_URL") })
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.DBMaxConns != 20 {
		t.Errorf("expected default max conns 20, got %d", cfg.DBMaxConns)
	}
	if cfg.DefaultHospital != "default" {
		t.Errorf("expected default hospital slug 'default', got %s", cfg.DefaultHospital)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("PORT", "9000")
	os.Setenv("ENV", "production")
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("ENV")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %s", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Error("expected IsProduction() to be true")
	}
}

func TestLoad_KafkaBrokers(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Cleanup(func() { os.Unsetenv("KAFKA_BROKERS") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.EventsEnabled() {
		t.Error("expected events to be enabled")
	}
	if len(cfg.KafkaBrokers) != 2 {
		t.Errorf("expected 2 brokers, got %d", len(cfg.KafkaBrokers))
	}
}

func TestValidate_ProductionWithoutAuth(t *testing.T) {
	cfg := &Config{Env: "production"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for production without auth configuration")
	}
}

func TestValidate_ProductionWithIssuer(t *testing.T) {
	cfg := &Config{Env: "production", AuthIssuer: "https://auth.example.com"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_DevelopmentWithoutAuth(t *testing.T) {
	cfg := &Config{Env: "development"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_EventsWithoutTopic(t *testing.T) {
	cfg := &Config{Env: "development", KafkaBrokers: []string{"kafka:9092"}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when brokers are set without a topic")
	}
}
