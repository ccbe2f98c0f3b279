package engine

import (
	"sync"
	"time"

	"github.com/mauv0809/pingpong-elo/internal/elo"
	"github.com/mauv0809/pingpong-elo/internal/league"
	"github.com/mauv0809/pingpong-elo/internal/metrics"
)

// DefaultStartingRating is the rating new players and every recalculation start from.
const DefaultStartingRating = 400

// Engine owns the rating state of one league. Mutating operations are
// serialized; reads go straight to the store.
type Engine struct {
	store    league.Store
	metrics  metrics.Metrics
	policy   elo.KFactorPolicy
	starting int
	order    league.MatchOrder
	mu       sync.Mutex
}

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	StartingRating int
	Policy         elo.KFactorPolicy
	Order          league.MatchOrder
}

// RatingChange is the effect of one match on one participant.
type RatingChange struct {
	PlayerID string  `json:"player"`
	Before   int     `json:"before"`
	After    int     `json:"after"`
	K        float64 `json:"k"`
}

// Delta is the signed rating change.
func (c RatingChange) Delta() int {
	return c.After - c.Before
}

// AppliedMatch records how a match moved both participants.
type AppliedMatch struct {
	MatchID int64        `json:"match_id"`
	Winner  RatingChange `json:"winner"`
	Loser   RatingChange `json:"loser"`
}

// AnomalyReason classifies a ledger entry that replay had to skip.
type AnomalyReason string

const (
	ReasonMissingPlayer       AnomalyReason = "missing_player"
	ReasonInvalidParticipants AnomalyReason = "invalid_participants"
)

// Anomaly is a non-fatal inconsistency found while replaying the ledger.
type Anomaly struct {
	MatchID int64         `json:"match_id"`
	Reason  AnomalyReason `json:"reason"`
	Detail  string        `json:"detail"`
}

// Result is the outcome of a full replay of the ledger.
type Result struct {
	States    map[string]league.PlayerState `json:"states"`
	Applied   []AppliedMatch                `json:"applied"`
	Anomalies []Anomaly                     `json:"anomalies"`
	Duration  time.Duration                 `json:"duration"`
}

// Outcome is returned when a match is recorded.
type Outcome struct {
	Match        league.Match `json:"match"`
	Winner       RatingChange `json:"winner"`
	Loser        RatingChange `json:"loser"`
	Recalculated bool         `json:"recalculated"`
	Anomalies    []Anomaly    `json:"anomalies,omitempty"`
}

// Snapshot is a read-only view of the league for reporting collaborators.
type Snapshot struct {
	Players     []league.Player `json:"players"`
	Matches     []league.Match  `json:"games"`
	MatchCounts map[string]int  `json:"match_counts"`
}
