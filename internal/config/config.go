package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mauv0809/pingpong-elo/internal/elo"
	"github.com/mauv0809/pingpong-elo/internal/league"
)

// Load reads configuration from environment variables and .env file.
// Invalid configuration is fatal.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	cfg, err := FromEnv()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	return cfg
}

// FromEnv builds a Config from the process environment.
func FromEnv() (Config, error) {
	dbName, ok := os.LookupEnv("DB_NAME")
	if !ok || dbName == "" {
		return Config{}, fmt.Errorf("required environment variable DB_NAME is not set")
	}

	cfg := Config{
		DBName: dbName,
		Port:   getEnv("PORT", "8080"),
		Turso: TursoConfig{
			PrimaryURL: os.Getenv("TURSO_PRIMARY_URL"),
			AuthToken:  os.Getenv("TURSO_AUTH_TOKEN"),
		},
		Slack: SlackConfig{
			Token:         os.Getenv("SLACK_BOT_TOKEN"),
			ChannelID:     os.Getenv("SLACK_CHANNEL_ID"),
			SigningSecret: os.Getenv("SLACK_SIGNING_SECRET"),
		},
		ProjectID: os.Getenv("GCP_PROJECT"),
	}

	var err error
	if cfg.Rating.StartingRating, err = getInt("STARTING_RATING", 400); err != nil {
		return Config{}, err
	}
	if cfg.Rating.KThreshold, err = getInt("K_THRESHOLD", elo.DefaultThreshold); err != nil {
		return Config{}, err
	}
	if cfg.Rating.KProvisional, err = getFloat("K_PROVISIONAL", elo.DefaultProvisional); err != nil {
		return Config{}, err
	}
	if cfg.Rating.KEstablished, err = getFloat("K_ESTABLISHED", elo.DefaultEstablished); err != nil {
		return Config{}, err
	}

	if cfg.Rating.RecalculateOnStart, err = getBool("RECALCULATE_ON_START", false); err != nil {
		return Config{}, err
	}

	order, ok := league.ParseMatchOrder(os.Getenv("MATCH_ORDER"))
	if !ok {
		return Config{}, fmt.Errorf("invalid MATCH_ORDER %q: must be \"id\" or \"played_at\"", os.Getenv("MATCH_ORDER"))
	}
	cfg.Rating.Order = order

	if cfg.Slack.Token != "" && cfg.Slack.ChannelID == "" {
		return Config{}, fmt.Errorf("SLACK_CHANNEL_ID is required when SLACK_BOT_TOKEN is set")
	}
	return cfg, nil
}

// Policy returns the K-factor policy described by the config.
func (r RatingConfig) Policy() elo.KFactorPolicy {
	return elo.ThresholdPolicy{
		Threshold:   r.KThreshold,
		Provisional: r.KProvisional,
		Established: r.KEstablished,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, value)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive number", key, value)
	}
	return f, nil
}

func getBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: must be true or false", key, value)
	}
	return b, nil
}
