package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	NATS     NATSConfig     `env:",prefix=NATS_"`
	JWT      JWTConfig      `env:",prefix=JWT_"`
	Codes    CodesConfig    `env:",prefix=CODES_"`
	Security SecurityConfig `env:",prefix="`
	Profile  ProfileConfig  `env:",prefix=PROFILE_"`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host           string `env:"HOST,default=localhost"`
	Port           string `env:"PORT,default=5432"`
	User           string `env:"USER,default=auth_service"`
	Password       string `env:"PASSWORD,default=auth_service_password"`
	DBName         string `env:"DB,default=auth_service_db"`
	SSLMode        string `env:"SSLMODE,default=disable"`
	MigrationsPath string `env:"MIGRATIONS_PATH,default=migrations"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

type NATSConfig struct {
	URL           string   `env:"URL,default=nats://localhost:4222"`
	MaxReconnects int      `env:"MAX_RECONNECTS,default=10"`
	ReconnectWait Duration `env:"RECONNECT_WAIT,default=2s"`
}

type JWTConfig struct {
	PrivateKeyPath     string   `env:"PRIVATE_KEY_PATH,required"`
	KeyID              string   `env:"KEY_ID,default=main"`
	Issuer             string   `env:"ISSUER,default=auth-service"`
	Audience           string   `env:"AUDIENCE,default=synapse"`
	RefreshSecret      string   `env:"REFRESH_SECRET,required"`
	AccessTokenExpiry  Duration `env:"ACCESS_TOKEN_EXPIRY,default=15m"`
	RefreshTokenExpiry Duration `env:"REFRESH_TOKEN_EXPIRY,default=7d"`
	ResetTokenExpiry   Duration `env:"RESET_TOKEN_EXPIRY,default=5m"`
	ServiceTokenExpiry Duration `env:"SERVICE_TOKEN_EXPIRY,default=1m"`
}

type CodesConfig struct {
	VerificationTTL Duration `env:"VERIFICATION_TTL,default=15m"`
	ResetTTL        Duration `env:"RESET_TTL,default=10m"`
}

type SecurityConfig struct {
	Argon2Memory      uint32   `env:"ARGON2_MEMORY_KB,default=65536"`
	Argon2Time        uint32   `env:"ARGON2_TIME,default=2"`
	Argon2Parallelism uint8    `env:"ARGON2_PARALLELISM,default=2"`
	RateLimitRequests int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow   Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
}

// ProfileConfig configures the external user-profile collaborator. Profile
// provisioning is skipped entirely when URL is empty.
type ProfileConfig struct {
	URL     string   `env:"SERVICE_URL,default="`
	Timeout Duration `env:"TIMEOUT,default=5s"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(config.JWT.RefreshSecret) < 32 {
		return nil, fmt.Errorf("JWT_REFRESH_SECRET must be at least 32 characters long")
	}

	return &config, nil
}

// LoadWithDefaults loads configuration with default context
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}
