package config

import (
	"testing"

	"github.com/mauv0809/pingpong-elo/internal/elo"
	"github.com/mauv0809/pingpong-elo/internal/league"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DB_NAME", "PORT", "TURSO_PRIMARY_URL", "TURSO_AUTH_TOKEN",
		"STARTING_RATING", "K_THRESHOLD", "K_PROVISIONAL", "K_ESTABLISHED", "MATCH_ORDER", "RECALCULATE_ON_START",
		"SLACK_BOT_TOKEN", "SLACK_CHANNEL_ID", "SLACK_SIGNING_SECRET", "GCP_PROJECT",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_NAME", "league.db")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "league.db", cfg.DBName)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 400, cfg.Rating.StartingRating)
	assert.Equal(t, league.OrderByID, cfg.Rating.Order)
	assert.False(t, cfg.Rating.RecalculateOnStart, "boot must not rewrite ratings unless asked")
	assert.Equal(t, elo.DefaultPolicy(), cfg.Rating.Policy())
	assert.Empty(t, cfg.Slack.Token)
	assert.Empty(t, cfg.ProjectID)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_NAME", "league.db")
	t.Setenv("PORT", "9000")
	t.Setenv("STARTING_RATING", "480")
	t.Setenv("K_THRESHOLD", "20")
	t.Setenv("K_PROVISIONAL", "40")
	t.Setenv("K_ESTABLISHED", "10")
	t.Setenv("MATCH_ORDER", "played_at")
	t.Setenv("RECALCULATE_ON_START", "true")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_CHANNEL_ID", "C123")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 480, cfg.Rating.StartingRating)
	assert.Equal(t, league.OrderByPlayedAt, cfg.Rating.Order)
	assert.True(t, cfg.Rating.RecalculateOnStart)
	assert.Equal(t, elo.ThresholdPolicy{Threshold: 20, Provisional: 40, Established: 10}, cfg.Rating.Policy())
	assert.Equal(t, "C123", cfg.Slack.ChannelID)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing db name", map[string]string{}},
		{"bad starting rating", map[string]string{"DB_NAME": "x", "STARTING_RATING": "abc"}},
		{"negative threshold", map[string]string{"DB_NAME": "x", "K_THRESHOLD": "-1"}},
		{"bad k factor", map[string]string{"DB_NAME": "x", "K_PROVISIONAL": "fast"}},
		{"bad order", map[string]string{"DB_NAME": "x", "MATCH_ORDER": "random"}},
		{"bad recalculate flag", map[string]string{"DB_NAME": "x", "RECALCULATE_ON_START": "sometimes"}},
		{"slack without channel", map[string]string{"DB_NAME": "x", "SLACK_BOT_TOKEN": "xoxb"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range test.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
