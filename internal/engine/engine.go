package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pingpong-elo/internal/elo"
	"github.com/mauv0809/pingpong-elo/internal/league"
	"github.com/mauv0809/pingpong-elo/internal/metrics"
)

// ErrInconsistentLedger is returned when a new match names a player that is
// not registered.
var ErrInconsistentLedger = errors.New("inconsistent ledger")

// New creates an Engine on top of store.
func New(store league.Store, metrics metrics.Metrics, opts Options) *Engine {
	if opts.StartingRating == 0 {
		opts.StartingRating = DefaultStartingRating
	}
	if opts.Policy == nil {
		opts.Policy = elo.DefaultPolicy()
	}
	if opts.Order == league.OrderDefault {
		opts.Order = league.OrderByID
	}
	return &Engine{
		store:    store,
		metrics:  metrics,
		policy:   opts.Policy,
		starting: opts.StartingRating,
		order:    opts.Order,
	}
}

// StartingRating returns the rating every replay starts from.
func (e *Engine) StartingRating() int {
	return e.starting
}

// RegisterPlayer adds a player to the directory. A zero rating is replaced by
// the starting rating. Any explicit rating only lasts until the next
// recalculation, which resets everyone to the starting rating.
//
// If the ledger already names the player (an edited match can), those matches
// start counting now, so the ratings are recalculated in the same transaction.
func (e *Engine) RegisterPlayer(ctx context.Context, p league.Player) (*league.Player, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p.Rating == 0 {
		p.Rating = e.starting
	}
	p.GamesPlayed = 0
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	var (
		created *league.Player
		res     *Result
	)
	err := e.store.Update(ctx, func(tx league.Tx) error {
		if err := tx.CreatePlayer(p); err != nil {
			return err
		}
		named, err := e.ledgerNames(tx, p.ID)
		if err != nil {
			return err
		}
		if named {
			log.Info("Ledger already names new player, replaying ledger", "playerID", p.ID)
			if res, err = e.recalculate(tx); err != nil {
				return err
			}
		}
		created, err = tx.GetPlayer(p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if res != nil {
		e.observe(res)
	}
	return created, nil
}

// ledgerNames reports whether any match names id as a participant.
func (e *Engine) ledgerNames(tx league.Tx, id string) (bool, error) {
	matches, err := tx.ListMatches(league.MatchFilter{})
	if err != nil {
		return false, err
	}
	for _, m := range matches {
		if m.Player1 == id || m.Player2 == id {
			return true, nil
		}
	}
	return false, nil
}

// RecordMatch appends a match and applies it to both participants in one
// transaction. Both participants must already be registered.
func (e *Engine) RecordMatch(ctx context.Context, fields league.MatchFields) (*Outcome, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var outcome *Outcome
	err := e.store.Update(ctx, func(tx league.Tx) error {
		var err error
		outcome, err = e.record(tx, fields)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.metrics.IncMatchesRecorded()
	if outcome.Recalculated {
		e.metrics.IncRecalculations()
		e.metrics.AddAnomalies(len(outcome.Anomalies))
	}
	log.Info("Recorded match", "matchID", outcome.Match.ID, "winner", outcome.Winner.PlayerID, "delta", outcome.Winner.Delta(), "loser", outcome.Loser.PlayerID, "recalculated", outcome.Recalculated)
	return outcome, nil
}

// RecordMatches records a batch of matches atomically, in order. If any match
// fails, nothing in the batch is written.
func (e *Engine) RecordMatches(ctx context.Context, batch []league.MatchFields) ([]Outcome, error) {
	for i, fields := range batch {
		if err := fields.Validate(); err != nil {
			return nil, fmt.Errorf("game %d: %w", i, err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var outcomes []Outcome
	err := e.store.Update(ctx, func(tx league.Tx) error {
		outcomes = make([]Outcome, 0, len(batch))
		for i, fields := range batch {
			outcome, err := e.record(tx, fields)
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}
			outcomes = append(outcomes, *outcome)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, outcome := range outcomes {
		e.metrics.IncMatchesRecorded()
		if outcome.Recalculated {
			e.metrics.IncRecalculations()
			e.metrics.AddAnomalies(len(outcome.Anomalies))
		}
	}
	log.Info("Recorded match batch", "count", len(outcomes))
	return outcomes, nil
}

func (e *Engine) record(tx league.Tx, fields league.MatchFields) (*Outcome, error) {
	states := make(map[string]league.PlayerState, 2)
	for _, id := range []string{fields.Player1, fields.Player2} {
		p, err := tx.GetPlayer(id)
		if errors.Is(err, league.ErrNotFound) {
			return nil, fmt.Errorf("player %q is not registered: %w", id, ErrInconsistentLedger)
		}
		if err != nil {
			return nil, err
		}
		states[p.ID] = league.PlayerState{Rating: p.Rating, GamesPlayed: p.GamesPlayed}
	}

	id, err := tx.AppendMatch(fields)
	if err != nil {
		return nil, err
	}
	match := league.Match{ID: id, MatchFields: fields}

	last, err := e.sortsLast(tx, match)
	if err != nil {
		return nil, err
	}
	if !last {
		log.Info("Match does not sort last, replaying ledger", "matchID", id, "order", e.order)
		res, err := e.recalculate(tx)
		if err != nil {
			return nil, err
		}
		outcome := &Outcome{Match: match, Recalculated: true, Anomalies: res.Anomalies}
		for _, applied := range res.Applied {
			if applied.MatchID == id {
				outcome.Winner, outcome.Loser = applied.Winner, applied.Loser
				break
			}
		}
		return outcome, nil
	}

	applied := applyMatch(states, match, e.policy)
	if err := tx.SetPlayerStates(states); err != nil {
		return nil, err
	}
	return &Outcome{Match: match, Winner: applied.Winner, Loser: applied.Loser}, nil
}

// sortsLast reports whether match is the final entry of the ledger in replay
// order. In id order a fresh append always is.
func (e *Engine) sortsLast(tx league.Tx, match league.Match) (bool, error) {
	if e.order == league.OrderByID {
		return true, nil
	}
	matches, err := tx.ListMatches(league.MatchFilter{Order: e.order})
	if err != nil {
		return false, err
	}
	for _, m := range matches {
		if m.ID != match.ID && e.order.Less(match, m) {
			return false, nil
		}
	}
	return true, nil
}

// EditMatch replaces the fields of a match and recalculates all ratings in
// the same transaction.
func (e *Engine) EditMatch(ctx context.Context, id int64, fields league.MatchFields) (*Result, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	return e.mutate(ctx, id, league.StateEdited, func(tx league.Tx) error {
		return tx.EditMatch(id, fields)
	})
}

// DeleteMatch removes a match and recalculates all ratings in the same
// transaction.
func (e *Engine) DeleteMatch(ctx context.Context, id int64) (*Result, error) {
	return e.mutate(ctx, id, league.StateDeleted, func(tx league.Tx) error {
		return tx.DeleteMatch(id)
	})
}

func (e *Engine) mutate(ctx context.Context, id int64, state league.MatchState, fn func(tx league.Tx) error) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res *Result
	err := e.store.Update(ctx, func(tx league.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		log.Info("Match changed", "matchID", id, "state", state)
		if !state.RequiresRecalculation() {
			return nil
		}
		var err error
		res, err = e.recalculate(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if res != nil {
		e.observe(res)
	}
	return res, nil
}

// RecalculateAll replays the whole ledger and persists the resulting ratings
// atomically.
func (e *Engine) RecalculateAll(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res *Result
	err := e.store.Update(ctx, func(tx league.Tx) error {
		var err error
		res, err = e.recalculate(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.observe(res)
	return res, nil
}

// Preview replays the ledger without persisting anything.
func (e *Engine) Preview(ctx context.Context) (*Result, error) {
	var res *Result
	err := e.store.View(ctx, func(tx league.Tx) error {
		var err error
		res, err = e.replay(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Engine) recalculate(tx league.Tx) (*Result, error) {
	res, err := e.replay(tx)
	if err != nil {
		return nil, err
	}
	if err := tx.SetPlayerStates(res.States); err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Engine) replay(tx league.Tx) (*Result, error) {
	players, err := tx.ListPlayers()
	if err != nil {
		return nil, err
	}
	matches, err := tx.ListMatches(league.MatchFilter{Order: e.order})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := Replay(players, matches, e.starting, e.policy)
	res.Duration = time.Since(start)
	log.Info("Replayed ledger", "players", len(players), "matches", len(matches), "applied", len(res.Applied), "anomalies", len(res.Anomalies), "duration", res.Duration)
	return &res, nil
}

func (e *Engine) observe(res *Result) {
	e.metrics.IncRecalculations()
	e.metrics.ObserveRecalculationDuration(res.Duration.Seconds())
	e.metrics.AddAnomalies(len(res.Anomalies))
}

func (e *Engine) Player(ctx context.Context, id string) (*league.Player, error) {
	var p *league.Player
	err := e.store.View(ctx, func(tx league.Tx) error {
		var err error
		p, err = tx.GetPlayer(id)
		return err
	})
	return p, err
}

// Players returns the directory sorted by rating.
func (e *Engine) Players(ctx context.Context) ([]league.Player, error) {
	var players []league.Player
	err := e.store.View(ctx, func(tx league.Tx) error {
		var err error
		players, err = tx.ListPlayers()
		return err
	})
	return players, err
}

func (e *Engine) Match(ctx context.Context, id int64) (*league.Match, error) {
	var m *league.Match
	err := e.store.View(ctx, func(tx league.Tx) error {
		var err error
		m, err = tx.GetMatch(id)
		return err
	})
	return m, err
}

// Matches lists the ledger. The engine's replay order is used unless the
// filter asks for a specific one.
func (e *Engine) Matches(ctx context.Context, filter league.MatchFilter) ([]league.Match, error) {
	if filter.Order == league.OrderDefault {
		filter.Order = e.order
	}
	var matches []league.Match
	err := e.store.View(ctx, func(tx league.Tx) error {
		var err error
		matches, err = tx.ListMatches(filter)
		return err
	})
	return matches, err
}

// Snapshot returns the players, the non-archived matches and the number of
// non-archived singles matches each player took part in, read in one
// transaction.
func (e *Engine) Snapshot(ctx context.Context) (*Snapshot, error) {
	notArchived := false
	snap := &Snapshot{MatchCounts: make(map[string]int)}
	err := e.store.View(ctx, func(tx league.Tx) error {
		var err error
		if snap.Players, err = tx.ListPlayers(); err != nil {
			return err
		}
		snap.Matches, err = tx.ListMatches(league.MatchFilter{Archived: &notArchived, Order: e.order})
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, p := range snap.Players {
		snap.MatchCounts[p.ID] = 0
	}
	for _, m := range snap.Matches {
		if m.Doubles {
			continue
		}
		snap.MatchCounts[m.Player1]++
		snap.MatchCounts[m.Player2]++
	}
	return snap, nil
}

func (e *Engine) Vacuum(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Vacuum(ctx)
}
