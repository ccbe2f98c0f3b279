package notifier

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pingpong-elo/internal/engine"
	"github.com/mauv0809/pingpong-elo/internal/league"
)

var _ Notifier = Noop{}

// Noop is used when Slack is not configured. Slash command responses are
// plain text.
type Noop struct{}

func (Noop) SendMatchResult(_ context.Context, outcome engine.Outcome, _ bool) error {
	log.Debug("Notifications disabled, skipping match result", "matchID", outcome.Match.ID)
	return nil
}

func (Noop) SendAnomalies(_ context.Context, trigger string, anomalies []engine.Anomaly, _ bool) error {
	log.Debug("Notifications disabled, skipping anomaly report", "trigger", trigger, "count", len(anomalies))
	return nil
}

func (Noop) SendLeaderboard(_ context.Context, players []league.Player, _ bool) error {
	log.Debug("Notifications disabled, skipping leaderboard", "players", len(players))
	return nil
}

func (Noop) FormatLeaderboardResponse(players []league.Player) (any, error) {
	return map[string]any{"players": players}, nil
}

func (Noop) FormatPlayerResponse(player *league.Player) (any, error) {
	return player, nil
}

func (Noop) FormatPlayerNotFoundResponse(query string) (any, error) {
	return map[string]string{"text": "No player found matching " + query}, nil
}
