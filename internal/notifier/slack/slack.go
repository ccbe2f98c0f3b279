package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pingpong-elo/internal/engine"
	"github.com/mauv0809/pingpong-elo/internal/league"
	"github.com/mauv0809/pingpong-elo/internal/metrics"
	"github.com/mauv0809/pingpong-elo/internal/notifier"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// leaderboardSize caps how many players a leaderboard message lists.
const leaderboardSize = 10

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	return NewNotifierWithAPI(slack.New(token), channelID, metrics)
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(ctx context.Context, message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

func (s *Notifier) SendMatchResult(ctx context.Context, outcome engine.Outcome, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, s.formatMatchResult(outcome), dryRun)
	return err
}

func (s *Notifier) SendAnomalies(ctx context.Context, trigger string, anomalies []engine.Anomaly, dryRun bool) error {
	if len(anomalies) == 0 {
		return nil
	}
	_, _, err := s.sendMessage(ctx, s.formatAnomalies(trigger, anomalies), dryRun)
	return err
}

func (s *Notifier) SendLeaderboard(ctx context.Context, players []league.Player, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, s.formatLeaderboard(players), dryRun)
	return err
}

// FormatLeaderboardResponse formats a leaderboard message for a slash command response.
func (s *Notifier) FormatLeaderboardResponse(players []league.Player) (any, error) {
	return s.formatLeaderboard(players), nil
}

// FormatPlayerResponse formats a single player's rating for a slash command response.
func (s *Notifier) FormatPlayerResponse(player *league.Player) (any, error) {
	return s.formatPlayer(player), nil
}

// FormatPlayerNotFoundResponse formats a player not found message for a slash command response.
func (s *Notifier) FormatPlayerNotFoundResponse(query string) (any, error) {
	text := fmt.Sprintf("No player registered as \"%s\".", query)
	return slack.NewBlockMessage(slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", text, false, false), nil, nil)), nil
}

func (s *Notifier) formatMatchResult(outcome engine.Outcome) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏓 Match recorded", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	kind := "Singles"
	if outcome.Match.Doubles {
		kind = "Doubles"
	}
	summary := fmt.Sprintf("*%s* beat *%s*\n%s, season %d", outcome.Winner.PlayerID, outcome.Loser.PlayerID, kind, outcome.Match.Season)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", summary, false, false), nil, nil))

	changes := []slack.MixedElement{
		slack.NewTextBlockObject("mrkdwn", formatChange(outcome.Winner), false, false),
		slack.NewTextBlockObject("mrkdwn", formatChange(outcome.Loser), false, false),
	}
	if outcome.Recalculated {
		changes = append(changes, slack.NewTextBlockObject("plain_text", "Ratings were recalculated from the full ledger.", false, false))
	}
	blocks = append(blocks, slack.NewContextBlock("", changes...))

	return slack.NewBlockMessage(blocks...)
}

func formatChange(c engine.RatingChange) string {
	return fmt.Sprintf("%s: %d → %d (%+d)", c.PlayerID, c.Before, c.After, c.Delta())
}

func (s *Notifier) formatAnomalies(trigger string, anomalies []engine.Anomaly) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "⚠️ Ledger entries skipped", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	lines := make([]string, 0, len(anomalies))
	for _, a := range anomalies {
		lines = append(lines, fmt.Sprintf("• Game %d (%s): %s", a.MatchID, a.Reason, a.Detail))
	}
	text := fmt.Sprintf("Recalculation after %s skipped %d game(s):\n%s", trigger, len(anomalies), strings.Join(lines, "\n"))
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", text, false, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

// formatLeaderboard expects players sorted by rating, highest first.
func (s *Notifier) formatLeaderboard(players []league.Player) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏆 Elo Leaderboard 🏆", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(players) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No players registered yet.", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	for i, p := range players {
		if i == leaderboardSize {
			break
		}
		rank := i + 1
		var medal string
		switch rank {
		case 1:
			medal = "🥇"
		case 2:
			medal = "🥈"
		case 3:
			medal = "🥉"
		}
		playerText := fmt.Sprintf("%d. %s %s\n> Elo: %d | Games: %d", rank, medal, p.ID, p.Rating, p.GamesPlayed)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", playerText, true, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}

func (s *Notifier) formatPlayer(p *league.Player) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", p.ID, true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	text := fmt.Sprintf("Elo: %d\nGames played: %d", p.Rating, p.GamesPlayed)
	if p.Description != "" {
		text += "\n" + p.Description
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", text, true, false), nil, nil))

	if len(p.Achievements) > 0 {
		blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", "🏅 "+strings.Join(p.Achievements, ", "), true, false)))
	}
	return slack.NewBlockMessage(blocks...)
}
