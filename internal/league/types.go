package league

import (
	"database/sql"
	"sync"
	"time"
)

// store handles all database operations for the league.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// tx is a Tx bound to a single SQL transaction.
type tx struct {
	tx *sql.Tx
}

// Player is a registered league member.
type Player struct {
	ID           string    `json:"username"`
	Rating       int       `json:"elo"`
	GamesPlayed  int       `json:"games_played"`
	Description  string    `json:"description"`
	Achievements []string  `json:"achievements"`
	CreatedAt    time.Time `json:"created_at"`
}

// PlayerState is the engine-derived part of a player: the persisted rating and
// the number of matches applied to it so far.
type PlayerState struct {
	Rating      int `json:"elo"`
	GamesPlayed int `json:"games_played"`
}

// MatchFields are the caller-supplied fields of a match, used by append and edit.
type MatchFields struct {
	Player1  string     `json:"p1"`
	Player2  string     `json:"p2"`
	Winner   string     `json:"winner"`
	PlayedAt *time.Time `json:"date_played,omitempty"`
	Season   int        `json:"season"`
	Archived bool       `json:"archived"`
	Doubles  bool       `json:"doubles"`
}

// Match is a ledger entry. ID is assigned on append and never reused.
type Match struct {
	ID int64 `json:"id"`
	MatchFields
}

// Loser returns the participant that is not the winner.
func (m MatchFields) Loser() string {
	if m.Winner == m.Player1 {
		return m.Player2
	}
	return m.Player1
}

// MatchOrder selects the replay order of the ledger.
type MatchOrder int

const (
	// OrderDefault is the zero value. The engine replaces it with its
	// configured order and the store lists by id.
	OrderDefault MatchOrder = iota
	// OrderByID is the canonical order: ascending ledger id.
	OrderByID
	// OrderByPlayedAt sorts by played_at, untimed matches first, ties by id.
	OrderByPlayedAt
)

// ParseMatchOrder maps a config value ("id" or "played_at") to a MatchOrder.
func ParseMatchOrder(s string) (MatchOrder, bool) {
	switch s {
	case "", "id":
		return OrderByID, true
	case "played_at":
		return OrderByPlayedAt, true
	}
	return OrderByID, false
}

func (o MatchOrder) String() string {
	if o == OrderByPlayedAt {
		return "played_at"
	}
	return "id"
}

// Less reports whether a is replayed before b.
func (o MatchOrder) Less(a, b Match) bool {
	if o == OrderByPlayedAt {
		switch {
		case a.PlayedAt == nil && b.PlayedAt != nil:
			return true
		case a.PlayedAt != nil && b.PlayedAt == nil:
			return false
		case a.PlayedAt != nil && b.PlayedAt != nil && !a.PlayedAt.Equal(*b.PlayedAt):
			return a.PlayedAt.Before(*b.PlayedAt)
		}
	}
	return a.ID < b.ID
}

// MatchFilter narrows ListMatches. Zero values mean "no filter" and the
// default order.
type MatchFilter struct {
	Season   int
	Archived *bool
	Order    MatchOrder
}

// MatchState is the lifecycle state of a ledger entry.
type MatchState string

const (
	StateProposed  MatchState = "PROPOSED"
	StateValidated MatchState = "VALIDATED"
	StatePersisted MatchState = "PERSISTED"
	StateActive    MatchState = "ACTIVE"
	StateEdited    MatchState = "EDITED"
	StateDeleted   MatchState = "DELETED"
)

// RequiresRecalculation reports whether entering this state invalidates the
// ratings derived so far.
func (s MatchState) RequiresRecalculation() bool {
	return s == StateEdited || s == StateDeleted
}
