package config

import "github.com/mauv0809/pingpong-elo/internal/league"

// Config holds all configuration for the application.
type Config struct {
	DBName    string
	Port      string
	Turso     TursoConfig
	Rating    RatingConfig
	Slack     SlackConfig
	ProjectID string
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}

// RatingConfig parameterizes the rating engine.
type RatingConfig struct {
	StartingRating int
	KThreshold     int
	KProvisional   float64
	KEstablished   float64
	Order          league.MatchOrder

	// RecalculateOnStart replays the ledger once at boot. Off by default;
	// POST /admin/recalculate does the same on demand.
	RecalculateOnStart bool
}

// SlackConfig is optional; an empty Token disables notifications.
type SlackConfig struct {
	Token         string
	ChannelID     string
	SigningSecret string
}
