package notifier

import (
	"context"

	"github.com/mauv0809/pingpong-elo/internal/engine"
	"github.com/mauv0809/pingpong-elo/internal/league"
)

// Notifier defines a high-level interface for sending notifications about league events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For recorded matches
	SendMatchResult(ctx context.Context, outcome engine.Outcome, dryRun bool) error
	// For full replays that reported skipped ledger entries
	SendAnomalies(ctx context.Context, trigger string, anomalies []engine.Anomaly, dryRun bool) error
	SendLeaderboard(ctx context.Context, players []league.Player, dryRun bool) error

	// For formatting responses for slash commands
	FormatLeaderboardResponse(players []league.Player) (any, error)
	FormatPlayerResponse(player *league.Player) (any, error)
	FormatPlayerNotFoundResponse(query string) (any, error)
}
