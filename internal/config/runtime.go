package config

import (
	"os"
	"strconv"
	"time"
)

type Runtime struct {
	HTTPAddr      string
	CacheMaxItems int
	MaxSteps      int
	ObsBuffer     int
	Parallelism   int
	LogLevel      string

	// DomainFile points at a YAML file with entry, rating and attributes.
	// DomainSpec ("x:1:4001,m:1:4001") is used when no file is given.
	DomainFile string
	DomainSpec string
	Entry      string
	Rating     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
}

func Load() Runtime {
	return Runtime{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		CacheMaxItems: getenvInt("WORKFLOW_CACHE_MAX_ITEMS", 1024, 1),
		MaxSteps:      getenvInt("WORKFLOW_MAX_STEPS", 10_000, 1),
		ObsBuffer:     getenvInt("WORKFLOW_OBS_BUFFER", 4096, 1),
		Parallelism:   getenvInt("WORKFLOW_PARALLELISM", 4, 1),
		LogLevel:      getenv("LOG_LEVEL", "info"),

		DomainFile: os.Getenv("WORKFLOW_DOMAIN_FILE"),
		DomainSpec: os.Getenv("WORKFLOW_DOMAIN"),
		Entry:      os.Getenv("WORKFLOW_ENTRY"),
		Rating:     os.Getenv("WORKFLOW_RATING"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvInt("REDIS_DB", 0, 0),
		RedisTTL:      getenvDuration("REDIS_TTL", 24*time.Hour),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback, min int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min {
		return fallback
	}
	return v
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
