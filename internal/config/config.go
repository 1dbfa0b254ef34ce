// Package config loads server settings from the environment. A .env file in the
// working directory is read first when present; real environment variables win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything cmd/server and cmd/bootstrap need.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	DatabaseURL string
	DBMaxConns  int

	JWTSecret string
	JWTIssuer string

	// RedisAddr enables the redis branch selection store; empty keeps selections
	// in process memory.
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	BranchSessionTTL time.Duration

	PolicyCacheSize int
	PolicyCacheTTL  time.Duration

	// StrictScopes turns nested scope mismatches into panics.
	StrictScopes bool

	Bootstrap BootstrapConfig
}

// BootstrapConfig configures the startup seed.
type BootstrapConfig struct {
	Enabled bool

	DefaultBranchCode string
	DefaultBranchName string

	AdminUsername    string
	AdminPassword    string
	AdminDisplayName string
	AdminBranchCode  string
}

// IsDevelopment reports whether the server runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads the configuration. envFiles defaults to ".env"; missing files are ignored.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		Env:      getEnv("APP_ENV", "development"),
		Port:     getEnv("APP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBMaxConns:  getEnvInt("DB_MAX_CONNS", 25),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTIssuer: getEnv("JWT_ISSUER", "branchpos"),

		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		BranchSessionTTL: getEnvDuration("BRANCH_SESSION_TTL", 12*time.Hour),

		PolicyCacheSize: getEnvInt("POLICY_CACHE_SIZE", 4096),
		PolicyCacheTTL:  getEnvDuration("POLICY_CACHE_TTL", 30*time.Second),

		StrictScopes: getEnvBool("STRICT_SCOPES", false),

		Bootstrap: BootstrapConfig{
			Enabled:           getEnvBool("BOOTSTRAP_ENABLED", true),
			DefaultBranchCode: getEnv("BOOTSTRAP_BRANCH_CODE", "MAIN"),
			DefaultBranchName: getEnv("BOOTSTRAP_BRANCH_NAME", "Main branch"),
			AdminUsername:     os.Getenv("BOOTSTRAP_ADMIN_USERNAME"),
			AdminPassword:     os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
			AdminDisplayName:  getEnv("BOOTSTRAP_ADMIN_DISPLAY_NAME", "Administrator"),
			AdminBranchCode:   os.Getenv("BOOTSTRAP_ADMIN_BRANCH"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if (c.Bootstrap.AdminUsername == "") != (c.Bootstrap.AdminPassword == "") {
		return errors.New("BOOTSTRAP_ADMIN_USERNAME and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	return nil
}

// ValidateServer checks the settings only the API server needs.
func (c Config) ValidateServer() error {
	if c.JWTSecret == "" && !c.IsDevelopment() {
		return errors.New("JWT_SECRET is required outside development")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
