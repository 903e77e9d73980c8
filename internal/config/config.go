package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	DatabaseURL string // empty runs with the in-memory audit store
	TurnLimit   time.Duration
	QueueBound  int
	Retention   time.Duration
}

// Load reads .env when present, then the environment. Every value has
// a local-dev default so `go run ./cmd/server` works out of the box.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:        getenv("ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		TurnLimit:   time.Duration(getint("TURN_SECONDS", 30)) * time.Second,
		QueueBound:  getint("QUEUE_BOUND", 64),
		Retention:   time.Duration(getint("ROOM_RETENTION_SECONDS", 300)) * time.Second,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
