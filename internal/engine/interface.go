package engine

import (
	"context"

	"github.com/mauv0809/pingpong-elo/internal/league"
)

// RatingEngine is the surface the HTTP, Slack and CLI collaborators use.
type RatingEngine interface {
	RegisterPlayer(ctx context.Context, p league.Player) (*league.Player, error)
	RecordMatch(ctx context.Context, fields league.MatchFields) (*Outcome, error)
	RecordMatches(ctx context.Context, batch []league.MatchFields) ([]Outcome, error)
	EditMatch(ctx context.Context, id int64, fields league.MatchFields) (*Result, error)
	DeleteMatch(ctx context.Context, id int64) (*Result, error)
	RecalculateAll(ctx context.Context) (*Result, error)
	Preview(ctx context.Context) (*Result, error)

	Player(ctx context.Context, id string) (*league.Player, error)
	Players(ctx context.Context) ([]league.Player, error)
	Match(ctx context.Context, id int64) (*league.Match, error)
	Matches(ctx context.Context, filter league.MatchFilter) ([]league.Match, error)
	Snapshot(ctx context.Context) (*Snapshot, error)
	Vacuum(ctx context.Context) error
}

var _ RatingEngine = (*Engine)(nil)
