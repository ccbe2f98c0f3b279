package engine

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pingpong-elo/internal/elo"
	"github.com/mauv0809/pingpong-elo/internal/league"
)

// Replay rebuilds every player's state from the ledger. Each player starts at
// startingRating with no games played; matches are applied strictly in the
// given order and each one sees the rounded ratings written by the previous
// one. Matches naming an unknown player or an impossible winner are skipped
// and reported as anomalies.
func Replay(players []league.Player, matches []league.Match, startingRating int, policy elo.KFactorPolicy) Result {
	states := make(map[string]league.PlayerState, len(players))
	for _, p := range players {
		states[p.ID] = league.PlayerState{Rating: startingRating}
	}

	res := Result{
		States:  states,
		Applied: make([]AppliedMatch, 0, len(matches)),
	}
	for _, m := range matches {
		if anomaly, ok := check(states, m); !ok {
			log.Warn("Skipping ledger entry during replay", "matchID", m.ID, "reason", anomaly.Reason, "detail", anomaly.Detail)
			res.Anomalies = append(res.Anomalies, anomaly)
			continue
		}
		res.Applied = append(res.Applied, applyMatch(states, m, policy))
	}
	return res
}

func check(states map[string]league.PlayerState, m league.Match) (Anomaly, bool) {
	var missing []string
	for _, id := range []string{m.Player1, m.Player2} {
		if _, ok := states[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return Anomaly{
			MatchID: m.ID,
			Reason:  ReasonMissingPlayer,
			Detail:  fmt.Sprintf("unregistered player(s): %s", strings.Join(missing, ", ")),
		}, false
	}
	if m.Player1 == m.Player2 || (m.Winner != m.Player1 && m.Winner != m.Player2) {
		return Anomaly{
			MatchID: m.ID,
			Reason:  ReasonInvalidParticipants,
			Detail:  fmt.Sprintf("winner %q with players %q and %q", m.Winner, m.Player1, m.Player2),
		}, false
	}
	return Anomaly{}, true
}

// applyMatch updates both participants in states. Both must be present.
func applyMatch(states map[string]league.PlayerState, m league.Match, policy elo.KFactorPolicy) AppliedMatch {
	loserID := m.Loser()
	winner, loser := states[m.Winner], states[loserID]

	kWinner := policy.KFactor(winner.GamesPlayed)
	kLoser := policy.KFactor(loser.GamesPlayed)
	newWinner, newLoser := elo.ApplyResult(float64(winner.Rating), float64(loser.Rating), kWinner, kLoser)

	states[m.Winner] = league.PlayerState{Rating: elo.Round(newWinner), GamesPlayed: winner.GamesPlayed + 1}
	states[loserID] = league.PlayerState{Rating: elo.Round(newLoser), GamesPlayed: loser.GamesPlayed + 1}

	return AppliedMatch{
		MatchID: m.ID,
		Winner:  RatingChange{PlayerID: m.Winner, Before: winner.Rating, After: states[m.Winner].Rating, K: kWinner},
		Loser:   RatingChange{PlayerID: loserID, Before: loser.Rating, After: states[loserID].Rating, K: kLoser},
	}
}
