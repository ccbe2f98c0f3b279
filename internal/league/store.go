package league

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// New creates a new Store backed by db.
func New(db *sql.DB) Store {
	return &store{
		db: db,
	}
}

// Update holds the write lock for the whole transaction, so readers never see
// intermediate per-match state.
func (s *store) Update(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, true, fn)
}

func (s *store) View(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.run(ctx, false, fn)
}

func (s *store) run(ctx context.Context, commit bool, fn func(tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin transaction", err)
	}

	if err := fn(&tx{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			log.Error("Failed to roll back transaction", "error", rbErr)
		}
		return err
	}

	if !commit {
		return storageErr("end read transaction", sqlTx.Rollback())
	}
	return storageErr("commit transaction", sqlTx.Commit())
}

func (s *store) Vacuum(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return storageErr("vacuum", err)
	}
	log.Info("Database vacuumed")
	return nil
}

// GetPlayer returns ErrNotFound if the player is not registered.
func (t *tx) GetPlayer(id string) (*Player, error) {
	row := t.tx.QueryRow(`
		SELECT id, rating, games_played, description, achievements_json, created_at
		FROM players WHERE id = ?
	`, id)
	p, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("player %q: %w", id, ErrNotFound)
		}
		return nil, storageErr("get player", err)
	}
	return p, nil
}

// ListPlayers returns every player, highest rating first.
func (t *tx) ListPlayers() ([]Player, error) {
	rows, err := t.tx.Query(`
		SELECT id, rating, games_played, description, achievements_json, created_at
		FROM players ORDER BY rating DESC, id ASC
	`)
	if err != nil {
		return nil, storageErr("list players", err)
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, storageErr("scan player", err)
		}
		players = append(players, *p)
	}
	return players, storageErr("list players", rows.Err())
}

func (t *tx) CreatePlayer(p Player) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var exists bool
	if err := t.tx.QueryRow("SELECT EXISTS(SELECT 1 FROM players WHERE id = ?)", p.ID).Scan(&exists); err != nil {
		return storageErr("check player", err)
	}
	if exists {
		return fmt.Errorf("player %q: %w", p.ID, ErrAlreadyExists)
	}

	achievements := p.Achievements
	if achievements == nil {
		achievements = []string{}
	}
	achievementsJSON, err := json.Marshal(achievements)
	if err != nil {
		return fmt.Errorf("failed to encode achievements: %w", err)
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = t.tx.Exec(`
		INSERT INTO players (id, rating, games_played, description, achievements_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Rating, p.GamesPlayed, p.Description, string(achievementsJSON), createdAt.Unix())
	if err != nil {
		return storageErr("create player", err)
	}
	log.Info("Registered player", "playerID", p.ID, "rating", p.Rating)
	return nil
}

// SetPlayerStates writes every state in one pass. Players are updated in id
// order; an unknown id aborts with ErrNotFound.
func (t *tx) SetPlayerStates(states map[string]PlayerState) error {
	ids := make([]string, 0, len(states))
	for id := range states {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	stmt, err := t.tx.Prepare("UPDATE players SET rating = ?, games_played = ? WHERE id = ?")
	if err != nil {
		return storageErr("prepare player update", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		state := states[id]
		res, err := stmt.Exec(state.Rating, state.GamesPlayed, id)
		if err != nil {
			return storageErr("update player", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storageErr("update player", err)
		}
		if n == 0 {
			return fmt.Errorf("player %q: %w", id, ErrNotFound)
		}
	}
	log.Debug("Updated player states", "count", len(ids))
	return nil
}

// AppendMatch stores a new ledger entry and returns its id. It has no rating side effect.
func (t *tx) AppendMatch(fields MatchFields) (int64, error) {
	if err := fields.Validate(); err != nil {
		return 0, err
	}

	res, err := t.tx.Exec(`
		INSERT INTO matches (player1, player2, winner, played_at, season, archived, doubles, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, fields.Player1, fields.Player2, fields.Winner, unixOrNull(fields.PlayedAt), fields.Season, fields.Archived, fields.Doubles, time.Now().Unix())
	if err != nil {
		return 0, storageErr("append match", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("append match", err)
	}
	log.Debug("Appended match", "matchID", id, "p1", fields.Player1, "p2", fields.Player2, "winner", fields.Winner)
	return id, nil
}

func (t *tx) GetMatch(id int64) (*Match, error) {
	row := t.tx.QueryRow(`
		SELECT id, player1, player2, winner, played_at, season, archived, doubles
		FROM matches WHERE id = ?
	`, id)
	m, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("match %d: %w", id, ErrNotFound)
		}
		return nil, storageErr("get match", err)
	}
	return m, nil
}

// EditMatch replaces the fields of an existing match, keeping its id and position.
func (t *tx) EditMatch(id int64, fields MatchFields) error {
	if err := fields.Validate(); err != nil {
		return err
	}

	res, err := t.tx.Exec(`
		UPDATE matches
		SET player1 = ?, player2 = ?, winner = ?, played_at = ?, season = ?, archived = ?, doubles = ?
		WHERE id = ?
	`, fields.Player1, fields.Player2, fields.Winner, unixOrNull(fields.PlayedAt), fields.Season, fields.Archived, fields.Doubles, id)
	if err != nil {
		return storageErr("edit match", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("edit match", err)
	}
	if n == 0 {
		return fmt.Errorf("match %d: %w", id, ErrNotFound)
	}
	return nil
}

func (t *tx) DeleteMatch(id int64) error {
	res, err := t.tx.Exec("DELETE FROM matches WHERE id = ?", id)
	if err != nil {
		return storageErr("delete match", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("delete match", err)
	}
	if n == 0 {
		return fmt.Errorf("match %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListMatches returns the ledger in replay order, optionally filtered.
func (t *tx) ListMatches(filter MatchFilter) ([]Match, error) {
	query := `SELECT id, player1, player2, winner, played_at, season, archived, doubles FROM matches`

	var where []string
	var args []any
	if filter.Season > 0 {
		where = append(where, "season = ?")
		args = append(args, filter.Season)
	}
	if filter.Archived != nil {
		where = append(where, "archived = ?")
		args = append(args, *filter.Archived)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	switch filter.Order {
	case OrderByPlayedAt:
		query += " ORDER BY played_at IS NOT NULL, played_at ASC, id ASC"
	default:
		query += " ORDER BY id ASC"
	}

	rows, err := t.tx.Query(query, args...)
	if err != nil {
		return nil, storageErr("list matches", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, storageErr("scan match", err)
		}
		matches = append(matches, *m)
	}
	return matches, storageErr("list matches", rows.Err())
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row scanner) (*Player, error) {
	var p Player
	var achievementsJSON sql.NullString
	var createdAt int64

	if err := row.Scan(&p.ID, &p.Rating, &p.GamesPlayed, &p.Description, &achievementsJSON, &createdAt); err != nil {
		return nil, err
	}
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	p.Achievements = []string{}
	if achievementsJSON.Valid && achievementsJSON.String != "" {
		if err := json.Unmarshal([]byte(achievementsJSON.String), &p.Achievements); err != nil {
			log.Error("Failed to unmarshal achievements_json", "error", err, "playerID", p.ID)
		}
	}
	return &p, nil
}

func scanMatch(row scanner) (*Match, error) {
	var m Match
	var playedAt sql.NullInt64

	err := row.Scan(&m.ID, &m.Player1, &m.Player2, &m.Winner, &playedAt, &m.Season, &m.Archived, &m.Doubles)
	if err != nil {
		return nil, err
	}
	if playedAt.Valid {
		ts := time.Unix(playedAt.Int64, 0).UTC()
		m.PlayedAt = &ts
	}
	return &m, nil
}

func unixOrNull(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
