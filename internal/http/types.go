package http

import (
	"net/http"

	"github.com/mauv0809/pingpong-elo/internal/config"
	"github.com/mauv0809/pingpong-elo/internal/engine"
	"github.com/mauv0809/pingpong-elo/internal/league"
	"github.com/mauv0809/pingpong-elo/internal/metrics"
	"github.com/mauv0809/pingpong-elo/internal/notifier"
	"github.com/mauv0809/pingpong-elo/internal/pubsub"
)

type Server struct {
	Engine         engine.RatingEngine
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Notifier       notifier.Notifier
	Router         *http.ServeMux
	pubsub         pubsub.PubSubClient
}

// playerRequest is the body of POST /players. Keys match case-insensitively,
// so older clients sending "ELO" still set the rating.
type playerRequest struct {
	Username     string   `json:"username"`
	Elo          int      `json:"elo"`
	Description  string   `json:"description"`
	Achievements []string `json:"achievements"`
}

// gameRequest is one game as submitted by clients. date_played is a unix
// timestamp in seconds.
type gameRequest struct {
	P1         string `json:"p1"`
	P2         string `json:"p2"`
	Winner     string `json:"winner"`
	Season     int    `json:"season"`
	DatePlayed *int64 `json:"date_played"`
	Doubles    bool   `json:"doubles"`
	Archived   bool   `json:"archived"`
}

type batchRequest struct {
	Games          []gameRequest `json:"games"`
	UseCurrentTime bool          `json:"use_current_time"`
}

type gameResponse struct {
	ID         int64  `json:"id"`
	P1         string `json:"p1"`
	P2         string `json:"p2"`
	Winner     string `json:"winner"`
	Season     int    `json:"season"`
	DatePlayed *int64 `json:"date_played"`
	Doubles    bool   `json:"doubles"`
	Archived   bool   `json:"archived"`
}

type dataResponse struct {
	Players     []league.Player `json:"players"`
	Games       []gameResponse  `json:"games"`
	MatchCounts map[string]int  `json:"match_counts"`
}

type recalculationResponse struct {
	DryRun    bool             `json:"dry_run"`
	Players   int              `json:"players"`
	Applied   int              `json:"applied"`
	Anomalies []engine.Anomaly `json:"anomalies"`
	Duration  string           `json:"duration"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
