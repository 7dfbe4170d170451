package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	MySQLDSN       string
	ApartmentsJSON string // non-empty switches the registry to config-blob mode

	RedisAddr string
	RedisDB   int
	RedisPass string

	BedsBase string
	BedsKey  string
	BedsRPS  int

	// cache lifetimes by category
	AvailabilityTTL time.Duration
	ApartmentTTL    time.Duration
	PolicyTTL       time.Duration

	UpstreamTimeout time.Duration

	// warmer knobs
	Workers  int
	WarmDays int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:          env("APP_ENV", "prod"),
		HTTPAddr:        env("HTTP_ADDR", ":8080"),
		MetricsAddr:     env("METRICS_ADDR", ":9100"),
		MySQLDSN:        env("MYSQL_DSN", "root:root@tcp(localhost:3306)/villarosa?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		ApartmentsJSON:  env("APARTMENTS_JSON", ""),
		RedisAddr:       env("REDIS_ADDR", "localhost:6379"),
		RedisPass:       env("REDIS_PASSWORD", ""),
		RedisDB:         atoi("REDIS_DB", 0),
		BedsBase:        env("BEDS_BASE_URL", "https://api.beds.example/v2"),
		BedsKey:         env("BEDS_API_KEY", ""),
		BedsRPS:         atoi("BEDS_RPS", 5),
		AvailabilityTTL: time.Duration(atoi("AVAILABILITY_TTL_SECONDS", 600)) * time.Second,
		ApartmentTTL:    time.Duration(atoi("APARTMENT_TTL_SECONDS", 3600)) * time.Second,
		PolicyTTL:       time.Duration(atoi("POLICY_TTL_SECONDS", 86400)) * time.Second,
		UpstreamTimeout: time.Duration(atoi("UPSTREAM_TIMEOUT_SECONDS", 10)) * time.Second,
		Workers:         atoi("WARM_WORKERS", 4),
		WarmDays:        atoi("WARM_DAYS", 90),
	}
	if c.BedsKey == "" {
		log.Warn().Msg("BEDS_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
