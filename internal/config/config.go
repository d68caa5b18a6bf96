package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	commoncfg "carconnect/common/config"

	"github.com/joho/godotenv"
)

// Config carconnect-api settings
type Config struct {
	HTTP struct {
		Addr        string
		BodyLimit   string
		CORSOrigins []string
	}
	Database       commoncfg.DatabaseConfig
	DBMigrate      bool
	PlatformSchema string
	RedisEnabled   bool
	Redis          commoncfg.RedisConfig
	Log            struct {
		Level  string
		Format string
	}
	JWT struct {
		Secret string
		TTL    time.Duration
		Issuer string
	}
	Audit struct {
		Enabled      bool
		StreamPrefix string
		StreamMaxLen int64
		Buffer       int
	}
	LoginRateLimit    string
	HistoryFanout     int
	ParameterCacheTTL time.Duration
}

// Load reads the environment. A .env file in the working directory is applied first
// when present; real environment variables win over it.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTP.BodyLimit = getEnv("HTTP_BODY_LIMIT", "2M")
	cfg.HTTP.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "*"))

	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "carconnect",
		SSLMode:  "disable",
		MaxConns: 25,
		MaxIdle:  5,
	}
	cfg.Database.LoadFromEnv("DB")
	cfg.DBMigrate = getEnv("DB_MIGRATE", "false") == "true"
	cfg.PlatformSchema = getEnv("PLATFORM_SCHEMA", "carConnectPro")

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379", PoolSize: 10}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.JWT.Secret = getEnv("JWT_SECRET", "change-me-in-production")
	cfg.JWT.TTL = parseDuration(getEnv("JWT_TTL", "24h"), 24*time.Hour)
	cfg.JWT.Issuer = getEnv("JWT_ISSUER", "carconnect")

	cfg.Audit.Enabled = getEnv("AUDIT_ENABLED", "true") == "true"
	cfg.Audit.StreamPrefix = getEnv("AUDIT_STREAM_PREFIX", "carconnect:audit")
	cfg.Audit.StreamMaxLen = int64(parseInt(getEnv("AUDIT_STREAM_MAXLEN", "100000"), 100000))
	cfg.Audit.Buffer = parseInt(getEnv("AUDIT_BUFFER", "256"), 256)

	cfg.LoginRateLimit = getEnv("LOGIN_RATE_LIMIT", "10-M")
	cfg.HistoryFanout = parseInt(getEnv("HISTORY_FANOUT", "4"), 4)
	cfg.ParameterCacheTTL = parseDuration(getEnv("PARAMETER_CACHE_TTL", "10m"), 10*time.Minute)

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
