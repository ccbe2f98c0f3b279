package notifier

import (
	"context"
	"sync"

	"github.com/mauv0809/pingpong-elo/internal/engine"
	"github.com/mauv0809/pingpong-elo/internal/league"
)

var _ Notifier = (*Mock)(nil)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies
	SendMatchResultFunc func(outcome engine.Outcome, dryRun bool) error

	// Call records
	SendMatchResultCalls []engine.Outcome
	SendAnomaliesCalls   []struct {
		Trigger   string
		Anomalies []engine.Anomaly
	}
	SendLeaderboardCalls [][]league.Player
	FormatPlayerCalls    []string
	NotFoundQueries      []string
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchResultCalls = nil
	m.SendAnomaliesCalls = nil
	m.SendLeaderboardCalls = nil
	m.FormatPlayerCalls = nil
	m.NotFoundQueries = nil
}

func (m *Mock) SendMatchResult(_ context.Context, outcome engine.Outcome, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchResultCalls = append(m.SendMatchResultCalls, outcome)
	if m.SendMatchResultFunc != nil {
		return m.SendMatchResultFunc(outcome, dryRun)
	}
	return nil
}

func (m *Mock) SendAnomalies(_ context.Context, trigger string, anomalies []engine.Anomaly, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendAnomaliesCalls = append(m.SendAnomaliesCalls, struct {
		Trigger   string
		Anomalies []engine.Anomaly
	}{trigger, anomalies})
	return nil
}

func (m *Mock) SendLeaderboard(_ context.Context, players []league.Player, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendLeaderboardCalls = append(m.SendLeaderboardCalls, players)
	return nil
}

func (m *Mock) FormatLeaderboardResponse(players []league.Player) (any, error) {
	return map[string]any{"players": players}, nil
}

func (m *Mock) FormatPlayerResponse(player *league.Player) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FormatPlayerCalls = append(m.FormatPlayerCalls, player.ID)
	return player, nil
}

func (m *Mock) FormatPlayerNotFoundResponse(query string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotFoundQueries = append(m.NotFoundQueries, query)
	return map[string]string{"text": "not found"}, nil
}

// MatchResults returns a copy of the recorded SendMatchResult calls.
func (m *Mock) MatchResults() []engine.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]engine.Outcome(nil), m.SendMatchResultCalls...)
}
