// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// minSecretLen is the shortest signing secret the server will accept.
// Anything shorter makes forging session tokens feasible, so startup fails
// hard instead of serving with a weak secret.
const minSecretLen = 32

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env        string        // application environment ("dev", "prod")
	Port       string        // HTTP port to listen on
	DBDriver   string        // "sqlite3" (default) or "mysql"
	SQLitePath string        // database file path when DBDriver is sqlite3
	DBUser     string        // MySQL username
	DBPass     string        // MySQL password (optional)
	DBHost     string        // MySQL host address
	DBPort     string        // MySQL port number
	DBName     string        // MySQL database name
	JWTSecret  string        // secret used to sign session tokens, >= 32 bytes
	BcryptCost int           // bcrypt cost for password hashing
	SessionTTL time.Duration // session token lifetime
}

// Load reads configuration from environment variables and returns a Config.
// A missing or too-short JWT_SECRET and an unknown DB_DRIVER are fatal: the
// process must not start serving in either case.
func Load() Config {
	env := getenv("APP_ENV", "dev")
	cfg := Config{
		Env:        env,
		Port:       getenv("APP_PORT", "8080"),
		DBDriver:   getenv("DB_DRIVER", "sqlite3"),
		JWTSecret:  must("JWT_SECRET"),
		BcryptCost: intenv("BCRYPT_COST", 10),
		SessionTTL: time.Duration(intenv("SESSION_TTL_DAYS", 7)) * 24 * time.Hour,
	}
	if len(cfg.JWTSecret) < minSecretLen {
		log.Fatalf("JWT_SECRET must be at least %d bytes, got %d", minSecretLen, len(cfg.JWTSecret))
	}

	switch cfg.DBDriver {
	case "sqlite3":
		def := "prod.db"
		if env == "dev" {
			def = "dev.db"
		}
		cfg.SQLitePath = getenv("SQLITE_PATH", def)
	case "mysql":
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	default:
		log.Fatalf("unsupported DB_DRIVER: %q", cfg.DBDriver)
	}
	return cfg
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// getenv retrieves an environment variable with a fallback default.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// intenv retrieves an integer environment variable with a fallback default.
func intenv(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
