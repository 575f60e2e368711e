package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the chess tutoring service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	DatabaseURL string

	// Engine settings. STOCKFISH_PATH overrides the discovery order in
	// internal/engine; an empty value falls back to common install paths.
	StockfishPath  string
	EngineMoveTime time.Duration
	AnalysisDepth  int

	// Explanation generator (any OpenAI-compatible endpoint; Ollama works).
	ExplainBaseURL string
	ExplainAPIKey  string
	ExplainModel   string
	ExplainTTL     time.Duration

	CacheDir string

	PuzzleDBPath      string
	PuzzleMaxAttempts int

	EpisodeLength   int
	TrainerInterval time.Duration
	EpisodeMaxAge   time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "caissa"),
		AllowAnyOrigin:    false,
		DatabaseURL:       stringsTrimSpace("DATABASE_URL"),
		StockfishPath:     stringsTrimSpace("STOCKFISH_PATH"),
		ExplainBaseURL:    stringsTrimSpace("EXPLAIN_BASE_URL"),
		ExplainAPIKey:     envOrDefault("EXPLAIN_API_KEY", "ollama"),
		ExplainModel:      envOrDefault("EXPLAIN_MODEL", "mistral"),
		CacheDir:          stringsTrimSpace("CACHE_DIR"),
		PuzzleDBPath:      envOrDefault("PUZZLE_DB_PATH", "puzzles.db"),
		PuzzleMaxAttempts: 5,
		EpisodeLength:     8,
		AnalysisDepth:     15,
		EngineMoveTime:    time.Second,
		ExplainTTL:        24 * time.Hour,
		ShutdownTimeout:   15 * time.Second,
		TrainerInterval:   time.Minute,
		EpisodeMaxAge:     10 * time.Minute,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.EngineMoveTime, err = durationFromEnv("ENGINE_MOVE_TIME", cfg.EngineMoveTime)
	if err != nil {
		return Config{}, err
	}
	cfg.ExplainTTL, err = durationFromEnv("EXPLAIN_CACHE_TTL", cfg.ExplainTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.TrainerInterval, err = durationFromEnv("TRAINER_INTERVAL", cfg.TrainerInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.EpisodeMaxAge, err = durationFromEnv("EPISODE_MAX_AGE", cfg.EpisodeMaxAge)
	if err != nil {
		return Config{}, err
	}
	cfg.AnalysisDepth, err = intFromEnv("ANALYSIS_DEPTH", cfg.AnalysisDepth)
	if err != nil {
		return Config{}, err
	}
	cfg.EpisodeLength, err = intFromEnv("EPISODE_LENGTH", cfg.EpisodeLength)
	if err != nil {
		return Config{}, err
	}
	cfg.PuzzleMaxAttempts, err = intFromEnv("PUZZLE_MAX_ATTEMPTS", cfg.PuzzleMaxAttempts)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.AnalysisDepth <= 0 {
		return Config{}, fmt.Errorf("ANALYSIS_DEPTH must be positive")
	}
	if cfg.EpisodeLength <= 0 {
		return Config{}, fmt.Errorf("EPISODE_LENGTH must be positive")
	}
	if cfg.PuzzleMaxAttempts <= 0 {
		return Config{}, fmt.Errorf("PUZZLE_MAX_ATTEMPTS must be positive")
	}
	if cfg.EngineMoveTime < 50*time.Millisecond {
		return Config{}, fmt.Errorf("ENGINE_MOVE_TIME must be at least 50ms")
	}
	if cfg.TrainerInterval < time.Second {
		return Config{}, fmt.Errorf("TRAINER_INTERVAL must be at least 1s")
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
