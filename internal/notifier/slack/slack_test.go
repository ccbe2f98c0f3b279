package slack

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mauv0809/pingpong-elo/internal/engine"
	"github.com/mauv0809/pingpong-elo/internal/league"
	"github.com/mauv0809/pingpong-elo/internal/metrics"
	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSlackAPI is a mock implementation of the parts of the slack.Client that we use.
type mockSlackAPI struct {
	postMessageContextFunc func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
	calls                  int
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.calls++
	if m.postMessageContextFunc != nil {
		return m.postMessageContextFunc(ctx, channelID, options...)
	}
	return "C12345", "123456789.12345", nil
}

func sampleOutcome() engine.Outcome {
	return engine.Outcome{
		Match:  league.Match{ID: 3, MatchFields: league.MatchFields{Player1: "alice", Player2: "bob", Winner: "alice", Season: 2}},
		Winner: engine.RatingChange{PlayerID: "alice", Before: 400, After: 416, K: 32},
		Loser:  engine.RatingChange{PlayerID: "bob", Before: 400, After: 384, K: 32},
	}
}

func TestSendMessage_DryRun(t *testing.T) {
	metrics := metrics.NewMock()
	// Pass nil for the api, as it shouldn't be called in dry-run mode.
	notifier := NewNotifierWithAPI(nil, "C123", metrics)

	err := notifier.SendMatchResult(context.Background(), sampleOutcome(), true)
	require.NoError(t, err)
	assert.Equal(t, 0, metrics.SlackNotifSent())
}

func TestSendMatchResult_Success(t *testing.T) {
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			assert.Equal(t, "C123", channelID)
			return "C123", "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	err := notifier.SendMatchResult(context.Background(), sampleOutcome(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, api.calls, "PostMessageContext should have been called")
	assert.Equal(t, 1, metrics.SlackNotifSent())
	assert.Equal(t, 0, metrics.SlackNotifFailed())
}

func TestSendMatchResult_Failure(t *testing.T) {
	expectedErr := errors.New("slack API is down")
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			return "", "", expectedErr
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	err := notifier.SendMatchResult(context.Background(), sampleOutcome(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 0, metrics.SlackNotifSent())
	assert.Equal(t, 1, metrics.SlackNotifFailed())
}

func TestSendAnomalies_SkipsEmpty(t *testing.T) {
	api := &mockSlackAPI{}
	notifier := NewNotifierWithAPI(api, "C123", metrics.NewMock())

	require.NoError(t, notifier.SendAnomalies(context.Background(), "delete", nil, false))
	assert.Equal(t, 0, api.calls)

	anomalies := []engine.Anomaly{{MatchID: 4, Reason: engine.ReasonMissingPlayer, Detail: "unregistered player(s): ghost"}}
	require.NoError(t, notifier.SendAnomalies(context.Background(), "delete", anomalies, false))
	assert.Equal(t, 1, api.calls)
}

func TestFormatMatchResult(t *testing.T) {
	notifier := NewNotifierWithAPI(nil, "C123", metrics.NewMock())

	outcome := sampleOutcome()
	outcome.Recalculated = true
	msg := notifier.formatMatchResult(outcome)

	require.Len(t, msg.Blocks.BlockSet, 3)
	section, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "*alice* beat *bob*\nSingles, season 2", section.Text.Text)

	changes, ok := msg.Blocks.BlockSet[2].(*slackapi.ContextBlock)
	require.True(t, ok)
	require.Len(t, changes.ContextElements.Elements, 3)
	winner, ok := changes.ContextElements.Elements[0].(*slackapi.TextBlockObject)
	require.True(t, ok)
	assert.Equal(t, "alice: 400 → 416 (+16)", winner.Text)
	loser, ok := changes.ContextElements.Elements[1].(*slackapi.TextBlockObject)
	require.True(t, ok)
	assert.Equal(t, "bob: 400 → 384 (-16)", loser.Text)
}

func TestFormatLeaderboard(t *testing.T) {
	notifier := NewNotifierWithAPI(nil, "C123", metrics.NewMock())

	t.Run("empty", func(t *testing.T) {
		msg := notifier.formatLeaderboard(nil)
		require.Len(t, msg.Blocks.BlockSet, 2)
		section := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		assert.Equal(t, "No players registered yet.", section.Text.Text)
	})

	t.Run("capped", func(t *testing.T) {
		var players []league.Player
		for i := 0; i < 15; i++ {
			players = append(players, league.Player{ID: fmt.Sprintf("p%02d", i), Rating: 500 - i, GamesPlayed: i})
		}
		msg := notifier.formatLeaderboard(players)
		require.Len(t, msg.Blocks.BlockSet, 1+leaderboardSize)

		first := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
		assert.Equal(t, "1. 🥇 p00\n> Elo: 500 | Games: 0", first.Text.Text)
		fourth := msg.Blocks.BlockSet[4].(*slackapi.SectionBlock)
		assert.Equal(t, "4.  p03\n> Elo: 497 | Games: 3", fourth.Text.Text)
	})
}

func TestFormatPlayerResponse(t *testing.T) {
	notifier := NewNotifierWithAPI(nil, "C123", metrics.NewMock())

	resp, err := notifier.FormatPlayerResponse(&league.Player{ID: "alice", Rating: 432, GamesPlayed: 12, Achievements: []string{"champion"}})
	require.NoError(t, err)
	msg, ok := resp.(slackapi.Message)
	require.True(t, ok)
	require.Len(t, msg.Blocks.BlockSet, 3)
	section := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	assert.Equal(t, "Elo: 432\nGames played: 12", section.Text.Text)
}
