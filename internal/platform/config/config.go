package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	SessionTTL    time.Duration
}

// Database captures the Postgres connection. An empty URL selects the
// in-memory stores, which is the development default.
type Database struct {
	URL string
}

// RedisConfig captures the Redis connection for session storage. An empty
// URL selects the in-memory session store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// BootstrapAdmin is the seeded administrator account. Registration cannot
// create sys_admin accounts, so the first one has to come from here.
type BootstrapAdmin struct {
	Email    string
	Password string
}

// Config is the full process configuration.
type Config struct {
	Server               Server
	Database             Database
	Redis                RedisConfig
	Bootstrap            BootstrapAdmin
	DeviceFingerprinting bool
}

// FromEnv builds the configuration from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("TRUSTRENT_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	sessionTTL := 24 * time.Hour
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			sessionTTL = parsed
		}
	}

	return Config{
		Server: Server{
			Addr:          addr,
			JWTSigningKey: jwtSigningKey,
			JWTIssuer:     envOr("JWT_ISSUER", "trustrent"),
			JWTAudience:   envOr("JWT_AUDIENCE", "trustrent-api"),
			SessionTTL:    sessionTTL,
		},
		Database: Database{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Bootstrap: BootstrapAdmin{
			Email:    os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
			Password: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		},
		DeviceFingerprinting: os.Getenv("DEVICE_FINGERPRINTING") != "false",
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
