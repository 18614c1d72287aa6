package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_PRIVATE_KEY_PATH", "keys/private.pem")
	t.Setenv("JWT_REFRESH_SECRET", "test-refresh-secret-that-is-at-least-32-characters")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)

	ctx := context.Background()
	cfg, err := Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	// Test default values
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected Server.Port to be '8080', got '%s'", cfg.Server.Port)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected Server.Host to be '0.0.0.0', got '%s'", cfg.Server.Host)
	}

	if cfg.Server.ReadTimeout.Duration != 15*time.Second {
		t.Errorf("Expected Server.ReadTimeout to be 15s, got %v", cfg.Server.ReadTimeout.Duration)
	}

	if cfg.Postgres.Host != "localhost" {
		t.Errorf("Expected Postgres.Host to be 'localhost', got '%s'", cfg.Postgres.Host)
	}

	if cfg.Redis.Host != "localhost" {
		t.Errorf("Expected Redis.Host to be 'localhost', got '%s'", cfg.Redis.Host)
	}

	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("Expected NATS.URL to be 'nats://localhost:4222', got '%s'", cfg.NATS.URL)
	}

	if cfg.JWT.AccessTokenExpiry.Duration != 15*time.Minute {
		t.Errorf("Expected JWT.AccessTokenExpiry to be 15m, got %v", cfg.JWT.AccessTokenExpiry.Duration)
	}

	if cfg.JWT.RefreshTokenExpiry.Duration != 7*24*time.Hour {
		t.Errorf("Expected JWT.RefreshTokenExpiry to be 7d, got %v", cfg.JWT.RefreshTokenExpiry.Duration)
	}

	if cfg.JWT.ResetTokenExpiry.Duration != 5*time.Minute {
		t.Errorf("Expected JWT.ResetTokenExpiry to be 5m, got %v", cfg.JWT.ResetTokenExpiry.Duration)
	}

	if cfg.JWT.KeyID != "main" {
		t.Errorf("Expected JWT.KeyID to be 'main', got '%s'", cfg.JWT.KeyID)
	}

	if cfg.Codes.VerificationTTL.Duration != 15*time.Minute {
		t.Errorf("Expected Codes.VerificationTTL to be 15m, got %v", cfg.Codes.VerificationTTL.Duration)
	}

	if cfg.Security.Argon2Memory != 65536 {
		t.Errorf("Expected Security.Argon2Memory to be 65536, got %d", cfg.Security.Argon2Memory)
	}

	if cfg.Profile.URL != "" {
		t.Errorf("Expected Profile.URL to default to empty, got '%s'", cfg.Profile.URL)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be 'development', got '%s'", cfg.Env)
	}

	// Test CORS defaults
	if len(cfg.CORS.AllowedOrigins) == 0 {
		t.Error("Expected CORS.AllowedOrigins to have at least one value")
	}

	if len(cfg.CORS.AllowedMethods) == 0 {
		t.Error("Expected CORS.AllowedMethods to have at least one value")
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("POSTGRES_HOST", "postgres.example.com")
	t.Setenv("JWT_ACCESS_TOKEN_EXPIRY", "30m")
	t.Setenv("CODES_RESET_TTL", "3m")
	t.Setenv("NATS_URL", "nats://broker:4222")
	t.Setenv("ENV", "production")

	ctx := context.Background()
	cfg, err := Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected Server.Port to be '9090', got '%s'", cfg.Server.Port)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Expected Server.Host to be '127.0.0.1', got '%s'", cfg.Server.Host)
	}

	if cfg.Postgres.Host != "postgres.example.com" {
		t.Errorf("Expected Postgres.Host to be 'postgres.example.com', got '%s'", cfg.Postgres.Host)
	}

	if cfg.JWT.AccessTokenExpiry.Duration != 30*time.Minute {
		t.Errorf("Expected JWT.AccessTokenExpiry to be 30m, got %v", cfg.JWT.AccessTokenExpiry.Duration)
	}

	if cfg.Codes.ResetTTL.Duration != 3*time.Minute {
		t.Errorf("Expected Codes.ResetTTL to be 3m, got %v", cfg.Codes.ResetTTL.Duration)
	}

	if cfg.NATS.URL != "nats://broker:4222" {
		t.Errorf("Expected NATS.URL to be 'nats://broker:4222', got '%s'", cfg.NATS.URL)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be 'production', got '%s'", cfg.Env)
	}
}

func TestLoadWithoutPrivateKeyPath(t *testing.T) {
	os.Unsetenv("JWT_PRIVATE_KEY_PATH")
	t.Setenv("JWT_REFRESH_SECRET", "test-refresh-secret-that-is-at-least-32-characters")

	ctx := context.Background()
	_, err := Load(ctx)
	if err == nil {
		t.Error("Expected error when JWT_PRIVATE_KEY_PATH is not set")
	}
}

func TestLoadWithShortRefreshSecret(t *testing.T) {
	t.Setenv("JWT_PRIVATE_KEY_PATH", "keys/private.pem")
	t.Setenv("JWT_REFRESH_SECRET", "short")

	ctx := context.Background()
	_, err := Load(ctx)
	if err == nil {
		t.Error("Expected error when JWT_REFRESH_SECRET is too short")
	}
}

func TestPostgresDSN(t *testing.T) {
	pg := PostgresConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "test_user",
		Password: "test_password",
		DBName:   "test_db",
		SSLMode:  "disable",
	}

	dsn := pg.DSN()
	expected := "host=localhost port=5432 user=test_user password=test_password dbname=test_db sslmode=disable"
	if dsn != expected {
		t.Errorf("Expected DSN to be '%s', got '%s'", expected, dsn)
	}
}

func TestRedisAddress(t *testing.T) {
	redis := RedisConfig{
		Host: "localhost",
		Port: "6379",
	}

	addr := redis.Address()
	expected := "localhost:6379"
	if addr != expected {
		t.Errorf("Expected Address to be '%s', got '%s'", expected, addr)
	}
}
