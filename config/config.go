package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds runtime settings read from the environment
type Config struct {
	Port        string
	DatabaseURL string

	GeminiAPIKey        string
	GenerationModel     string
	EmbeddingModel      string
	EmbeddingDimensions int
	EmbeddingRatePerSec float64

	CollaboratorTimeout  time.Duration
	CollaboratorAttempts int
	CollaboratorBackoff  time.Duration

	KarmaCacheTTL     time.Duration
	KarmaDeadline     time.Duration
	KarmaDefaultLimit int
	KarmaMaxLimit     int

	ScoringPolicyFile string
}

// Load reads the configuration from environment variables, falling back to defaults
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GenerationModel:   getEnv("GEMINI_GENERATION_MODEL", "gemini-2.5-flash"),
		EmbeddingModel:    getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
		ScoringPolicyFile: os.Getenv("SCORING_POLICY_FILE"),
	}

	var err error
	if cfg.EmbeddingDimensions, err = getEnvInt("EMBEDDING_DIMENSIONS", 768); err != nil {
		return nil, err
	}
	if cfg.EmbeddingRatePerSec, err = getEnvFloat("EMBEDDING_RATE_PER_SEC", 5); err != nil {
		return nil, err
	}
	if cfg.CollaboratorTimeout, err = getEnvDuration("COLLABORATOR_TIMEOUT", 12*time.Second); err != nil {
		return nil, err
	}
	if cfg.CollaboratorAttempts, err = getEnvInt("COLLABORATOR_ATTEMPTS", 2); err != nil {
		return nil, err
	}
	if cfg.CollaboratorBackoff, err = getEnvDuration("COLLABORATOR_BACKOFF", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.KarmaCacheTTL, err = getEnvDuration("KARMA_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.KarmaDeadline, err = getEnvDuration("KARMA_DEADLINE", 20*time.Second); err != nil {
		return nil, err
	}
	if cfg.KarmaDefaultLimit, err = getEnvInt("KARMA_DEFAULT_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.KarmaMaxLimit, err = getEnvInt("KARMA_MAX_LIMIT", 50); err != nil {
		return nil, err
	}

	if cfg.EmbeddingDimensions <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIMENSIONS must be positive, got %d", cfg.EmbeddingDimensions)
	}
	if cfg.CollaboratorAttempts < 1 {
		return nil, fmt.Errorf("COLLABORATOR_ATTEMPTS must be at least 1, got %d", cfg.CollaboratorAttempts)
	}
	if cfg.KarmaDefaultLimit <= 0 || cfg.KarmaDefaultLimit > cfg.KarmaMaxLimit {
		return nil, fmt.Errorf("KARMA_DEFAULT_LIMIT must be in (0, %d], got %d", cfg.KarmaMaxLimit, cfg.KarmaDefaultLimit)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
