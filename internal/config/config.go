package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DatabaseURL string
	RedisURL    string
	ServerPort  int

	DataDir        string
	FileLimit      int
	Symbols        []string
	ForceReprocess bool
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, query caching disabled")
	}

	cfg.ServerPort = 8080
	if v := strings.TrimSpace(os.Getenv("SERVER_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ServerPort = n
		}
	}

	cfg.DataDir = strings.TrimSpace(os.Getenv("DATA_DIR"))
	if cfg.DataDir == "" {
		cfg.DataDir = "data/daily"
	}

	if v := strings.TrimSpace(os.Getenv("FILE_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FileLimit = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("SYMBOLS")); v != "" {
		for _, s := range strings.Split(v, ",") {
			s = strings.ToUpper(strings.TrimSpace(s))
			if s != "" {
				cfg.Symbols = append(cfg.Symbols, s)
			}
		}
	}

	cfg.ForceReprocess = strings.EqualFold(strings.TrimSpace(os.Getenv("FORCE_REPROCESS")), "true")

	return cfg
}
