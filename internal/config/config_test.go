package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/exams?sslmode=disable")
	t.Setenv("NAVIGATION_TTL", "2h")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if cfg.NavigationTTL != 2*time.Hour {
		t.Errorf("NavigationTTL = %v, want 2h", cfg.NavigationTTL)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Kafka.Brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.DSN() != "postgres://u:p@db:5432/exams?sslmode=disable" {
		t.Errorf("DSN() = %s", cfg.DSN())
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "ok", cfg: Config{Port: "8080", NavigationTTL: time.Hour, Database: DatabaseConfig{Host: "localhost"}}},
		{name: "bad port", cfg: Config{Port: "http", NavigationTTL: time.Hour, Database: DatabaseConfig{Host: "localhost"}}, wantErr: true},
		{name: "zero ttl", cfg: Config{Port: "8080", Database: DatabaseConfig{Host: "localhost"}}, wantErr: true},
		{name: "no database", cfg: Config{Port: "8080", NavigationTTL: time.Hour}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_DSNFromParts(t *testing.T) {
	cfg := Config{Database: DatabaseConfig{Host: "h", Port: "1", User: "u", Password: "p", Name: "n", SSLMode: "disable"}}
	want := "host=h port=1 user=u password=p dbname=n sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %s, want %s", got, want)
	}
}
