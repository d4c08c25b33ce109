package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Bot      BotConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

type AuthConfig struct {
	AccessSecret           string
	RefreshSecret          string
	SigningAlg             string
	AccessTokenExpiry      time.Duration
	RefreshTokenExpiry     time.Duration
	AttemptTTL             time.Duration
	AttemptCleanupInterval time.Duration
	MagicLinkBase          string
}

type BotConfig struct {
	Token string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	accessSecret := getEnv("JWT_ACCESS_SECRET", "")
	if accessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	refreshSecret := getEnv("JWT_REFRESH_SECRET", "")
	if refreshSecret == "" {
		return nil, fmt.Errorf("JWT_REFRESH_SECRET is required")
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "ki2panel"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			AllowedOrigins: parseAllowedOrigins(env),
		},
		Auth: AuthConfig{
			AccessSecret:           accessSecret,
			RefreshSecret:          refreshSecret,
			SigningAlg:             getEnv("JWT_ALG", "HS256"),
			AccessTokenExpiry:      getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 60*time.Minute),
			RefreshTokenExpiry:     getEnvAsDuration("REFRESH_TOKEN_EXPIRY", 14*24*time.Hour),
			AttemptTTL:             getEnvAsDuration("ATTEMPT_TTL", 15*time.Minute),
			AttemptCleanupInterval: getEnvAsDuration("ATTEMPT_CLEANUP_INTERVAL", 1*time.Hour),
			MagicLinkBase:          getEnv("MAGIC_LINK_BASE", "https://ki2helper.pp.ua/magic-login"),
		},
		Bot: BotConfig{
			Token: getEnv("BOT_TOKEN", ""),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}

	switch cfg.Auth.SigningAlg {
	case "HS256", "HS384", "HS512":
	default:
		return nil, fmt.Errorf("JWT_ALG must be one of HS256, HS384, HS512 (got %q)", cfg.Auth.SigningAlg)
	}

	if err := validateSecret("JWT_ACCESS_SECRET", accessSecret, env); err != nil {
		return nil, err
	}
	if err := validateSecret("JWT_REFRESH_SECRET", refreshSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateSecret enforces minimum strength standards for signing secrets
func validateSecret(name, secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("%s must be at least %d characters in %s environment (got %d)",
			name, minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("%s cannot be a common weak value", name)
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{}
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	// Development: panel frontend dev servers
	return []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
}
