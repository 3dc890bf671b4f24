package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type StoreDriver string

const (
	StoreFS       StoreDriver = "fs"
	StoreSQLite   StoreDriver = "sqlite"
	StorePostgres StoreDriver = "postgres"
	StoreRedis    StoreDriver = "redis"
	StoreMemory   StoreDriver = "memory"
)

type Config struct {
	HTTPAddr string

	StoreDriver StoreDriver
	StoreDSN    string // sqlite/postgres
	StorePath   string // fs

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	HistoryKey string
	DateLayout string // empty = grading.DefaultDateLayout

	LogLevel  string
	LogPretty bool

	CORSOrigins []string
}

// Load reads an optional .env file and then the environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		HTTPAddr:      envOr("HTTP_ADDR", ":8080"),
		StoreDriver:   StoreDriver(strings.ToLower(envOr("STORE_DRIVER", string(StoreFS)))),
		StoreDSN:      os.Getenv("STORE_DSN"),
		StorePath:     envOr("STORE_PATH", "./data"),
		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),
		HistoryKey:    envOr("HISTORY_KEY", "testHistory"),
		DateLayout:    os.Getenv("GRADECALC_DATE_LAYOUT"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		LogPretty:     envBool("LOG_PRETTY", false),
		CORSOrigins:   csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return v
	}
	return def
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
