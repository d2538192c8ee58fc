package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the retrieval chat service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	CorpusPath          string
	IndexPath           string
	SimilarityThreshold float64
	HistoryLimit        int

	EmbedProvider string
	EmbedBaseURL  string
	EmbedModel    string
	EmbedDim      int

	LLMProvider     string
	LLMBaseURL      string
	LLMModel        string
	LLMAPIKey       string
	GenerateTimeout time.Duration
	GenerateRetries int

	MongoURI    string
	DatabaseURL string

	MemoryTTL      time.Duration
	MemoryMaxBytes int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("SOLACE_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("SOLACE_METRICS_NAMESPACE", "solace"),
		AllowAnyOrigin:   false,
		CorpusPath:       envOrDefault("SOLACE_CORPUS_PATH", "data/corpus.json"),
		IndexPath:        envOrDefault("SOLACE_INDEX_PATH", "data/corpus.svix"),
		EmbedProvider:    envOrDefault("SOLACE_EMBED_PROVIDER", "ollama"),
		EmbedBaseURL:     stringsTrimSpace("SOLACE_EMBED_BASE_URL"),
		// all-minilm matches the 384-dim corpus artifacts shipped with the service.
		EmbedModel:  envOrDefault("SOLACE_EMBED_MODEL", "all-minilm"),
		EmbedDim:    384,
		LLMProvider: envOrDefault("SOLACE_LLM_PROVIDER", "auto"),
		// Ollama exposes an OpenAI-compatible surface under /v1.
		LLMBaseURL:               envOrDefault("SOLACE_LLM_BASE_URL", "http://localhost:11434/v1"),
		LLMModel:                 envOrDefault("SOLACE_LLM_MODEL", "llama3.1"),
		LLMAPIKey:                stringsTrimSpace("OPENAI_API_KEY"),
		MongoURI:                 stringsTrimSpace("SOLACE_MONGO_URI"),
		DatabaseURL:              stringsTrimSpace("DATABASE_URL"),
		SimilarityThreshold:      0.7,
		HistoryLimit:             5,
		GenerateTimeout:          60 * time.Second,
		GenerateRetries:          1,
		MemoryTTL:                30 * time.Minute,
		MemoryMaxBytes:           8 << 10,
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 2 * time.Minute,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("SOLACE_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("SOLACE_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.GenerateTimeout, err = durationFromEnv("SOLACE_GENERATE_TIMEOUT", cfg.GenerateTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryTTL, err = durationFromEnv("SOLACE_MEMORY_TTL", cfg.MemoryTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.SimilarityThreshold, err = floatFromEnv("SOLACE_SIMILARITY_THRESHOLD", cfg.SimilarityThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryLimit, err = intFromEnv("SOLACE_HISTORY_LIMIT", cfg.HistoryLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.EmbedDim, err = intFromEnv("SOLACE_EMBED_DIM", cfg.EmbedDim)
	if err != nil {
		return Config{}, err
	}
	cfg.GenerateRetries, err = intFromEnv("SOLACE_GENERATE_RETRIES", cfg.GenerateRetries)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryMaxBytes, err = intFromEnv("SOLACE_MEMORY_MAX_BYTES", cfg.MemoryMaxBytes)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("SOLACE_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.SimilarityThreshold <= 0 || cfg.SimilarityThreshold > 1 {
		return Config{}, fmt.Errorf("SOLACE_SIMILARITY_THRESHOLD must be in (0, 1]")
	}
	if cfg.HistoryLimit <= 0 {
		return Config{}, fmt.Errorf("SOLACE_HISTORY_LIMIT must be positive")
	}
	if cfg.EmbedDim <= 0 {
		return Config{}, fmt.Errorf("SOLACE_EMBED_DIM must be positive")
	}
	if cfg.GenerateTimeout <= 0 {
		return Config{}, fmt.Errorf("SOLACE_GENERATE_TIMEOUT must be positive")
	}
	if cfg.GenerateRetries < 0 {
		return Config{}, fmt.Errorf("SOLACE_GENERATE_RETRIES must be >= 0")
	}
	if cfg.MemoryMaxBytes <= 0 {
		return Config{}, fmt.Errorf("SOLACE_MEMORY_MAX_BYTES must be positive")
	}
	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("SOLACE_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
