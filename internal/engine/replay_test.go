package engine

import (
	"testing"

	"github.com/mauv0809/pingpong-elo/internal/elo"
	"github.com/mauv0809/pingpong-elo/internal/league"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func players(ids ...string) []league.Player {
	out := make([]league.Player, 0, len(ids))
	for _, id := range ids {
		out = append(out, league.Player{ID: id})
	}
	return out
}

func match(id int64, p1, p2, winner string) league.Match {
	return league.Match{ID: id, MatchFields: league.MatchFields{Player1: p1, Player2: p2, Winner: winner, Season: 1}}
}

func TestReplay_ConcreteScenario(t *testing.T) {
	res := Replay(players("a", "b"), []league.Match{
		match(1, "a", "b", "a"),
		match(2, "a", "b", "b"),
	}, 400, elo.DefaultPolicy())

	require.Len(t, res.Applied, 2)
	first := res.Applied[0]
	assert.Equal(t, RatingChange{PlayerID: "a", Before: 400, After: 416, K: 32}, first.Winner)
	assert.Equal(t, RatingChange{PlayerID: "b", Before: 400, After: 384, K: 32}, first.Loser)

	second := res.Applied[1]
	assert.Equal(t, RatingChange{PlayerID: "b", Before: 384, After: 401, K: 32}, second.Winner)
	assert.Equal(t, RatingChange{PlayerID: "a", Before: 416, After: 399, K: 32}, second.Loser)

	assert.Equal(t, league.PlayerState{Rating: 399, GamesPlayed: 2}, res.States["a"])
	assert.Equal(t, league.PlayerState{Rating: 401, GamesPlayed: 2}, res.States["b"])
	assert.Empty(t, res.Anomalies)
}

func TestReplay_ResetsToStartingRating(t *testing.T) {
	in := []league.Player{{ID: "a", Rating: 1200, GamesPlayed: 99}, {ID: "b", Rating: 50}}
	res := Replay(in, nil, 400, elo.DefaultPolicy())

	assert.Equal(t, league.PlayerState{Rating: 400}, res.States["a"])
	assert.Equal(t, league.PlayerState{Rating: 400}, res.States["b"])
	assert.Empty(t, res.Applied)
}

func TestReplay_Deterministic(t *testing.T) {
	ledger := []league.Match{
		match(1, "a", "b", "a"),
		match(2, "b", "c", "c"),
		match(3, "c", "a", "a"),
		match(4, "a", "b", "b"),
	}
	first := Replay(players("a", "b", "c"), ledger, 400, elo.DefaultPolicy())
	second := Replay(players("a", "b", "c"), ledger, 400, elo.DefaultPolicy())
	assert.Equal(t, first.States, second.States)
	assert.Equal(t, first.Applied, second.Applied)
}

func TestReplay_IndependentMatchesCommute(t *testing.T) {
	ab := match(1, "a", "b", "a")
	cd := match(2, "c", "d", "d")

	forward := Replay(players("a", "b", "c", "d"), []league.Match{ab, cd}, 400, elo.DefaultPolicy())
	reversed := Replay(players("a", "b", "c", "d"), []league.Match{cd, ab}, 400, elo.DefaultPolicy())
	assert.Equal(t, forward.States, reversed.States)
}

func TestReplay_SharedParticipantIsOrderSensitive(t *testing.T) {
	aBeatsB := match(1, "a", "b", "a")
	cBeatsA := match(2, "c", "a", "c")

	forward := Replay(players("a", "b", "c"), []league.Match{aBeatsB, cBeatsA}, 400, elo.DefaultPolicy())
	assert.Equal(t, 399, forward.States["a"].Rating)
	assert.Equal(t, 384, forward.States["b"].Rating)
	assert.Equal(t, 417, forward.States["c"].Rating)

	reversed := Replay(players("a", "b", "c"), []league.Match{cBeatsA, aBeatsB}, 400, elo.DefaultPolicy())
	assert.Equal(t, 401, reversed.States["a"].Rating)
	assert.Equal(t, 383, reversed.States["b"].Rating)
	assert.Equal(t, 416, reversed.States["c"].Rating)

	assert.NotEqual(t, forward.States, reversed.States)
}

func TestReplay_KFactorDropsOnThirtyFirstMatch(t *testing.T) {
	var ledger []league.Match
	for i := int64(1); i <= 31; i++ {
		ledger = append(ledger, match(i, "vet", "rival", "vet"))
	}

	res := Replay(players("vet", "rival"), ledger, 400, elo.DefaultPolicy())
	require.Len(t, res.Applied, 31)
	assert.Equal(t, 32.0, res.Applied[29].Winner.K, "30th match is still provisional")
	assert.Equal(t, 32.0, res.Applied[29].Loser.K)
	assert.Equal(t, 16.0, res.Applied[30].Winner.K, "31st match uses the established K")
	assert.Equal(t, 16.0, res.Applied[30].Loser.K)
	assert.Equal(t, 31, res.States["vet"].GamesPlayed)
}

func TestReplay_AsymmetricKFactors(t *testing.T) {
	var ledger []league.Match
	for i := int64(1); i <= 30; i++ {
		ledger = append(ledger, match(i, "vet", "rival", "rival"))
	}
	ledger = append(ledger, match(31, "vet", "rookie", "rookie"))

	res := Replay(players("vet", "rival", "rookie"), ledger, 400, elo.DefaultPolicy())
	last := res.Applied[len(res.Applied)-1]
	assert.Equal(t, 32.0, last.Winner.K)
	assert.Equal(t, 16.0, last.Loser.K)
	assert.NotEqual(t, last.Winner.Delta(), -last.Loser.Delta(), "asymmetric K does not conserve rating")
}

func TestReplay_SkipsMissingPlayerOnce(t *testing.T) {
	ledger := []league.Match{
		match(1, "a", "b", "a"),
		match(2, "a", "ghost", "ghost"),
		match(3, "a", "b", "b"),
	}
	res := Replay(players("a", "b"), ledger, 400, elo.DefaultPolicy())

	require.Len(t, res.Anomalies, 1)
	assert.Equal(t, int64(2), res.Anomalies[0].MatchID)
	assert.Equal(t, ReasonMissingPlayer, res.Anomalies[0].Reason)
	assert.Contains(t, res.Anomalies[0].Detail, "ghost")

	require.Len(t, res.Applied, 2)
	assert.Equal(t, league.PlayerState{Rating: 399, GamesPlayed: 2}, res.States["a"])
	assert.Equal(t, league.PlayerState{Rating: 401, GamesPlayed: 2}, res.States["b"])
	_, ok := res.States["ghost"]
	assert.False(t, ok)
}

func TestReplay_SkipsInvalidWinner(t *testing.T) {
	ledger := []league.Match{
		match(1, "a", "b", "c"),
		match(2, "a", "a", "a"),
	}
	res := Replay(players("a", "b", "c"), ledger, 400, elo.DefaultPolicy())

	require.Len(t, res.Anomalies, 2)
	for _, anomaly := range res.Anomalies {
		assert.Equal(t, ReasonInvalidParticipants, anomaly.Reason)
	}
	assert.Empty(t, res.Applied)
	assert.Equal(t, league.PlayerState{Rating: 400}, res.States["a"])
}

func TestReplay_CustomPolicy(t *testing.T) {
	policy := elo.KFactorFunc(func(int) float64 { return 10 })
	res := Replay(players("a", "b"), []league.Match{match(1, "a", "b", "b")}, 1000, policy)

	assert.Equal(t, 995, res.States["a"].Rating)
	assert.Equal(t, 1005, res.States["b"].Rating)
}
