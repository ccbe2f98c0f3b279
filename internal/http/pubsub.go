package http

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pingpong-elo/internal/pubsub"
)

// pushEnvelope is the body Pub/Sub push subscriptions POST to us.
type pushEnvelope struct {
	Subscription string `json:"subscription"`
	Message      struct {
		Data       string            `json:"data"`
		Attributes map[string]string `json:"attributes"`
	} `json:"message"`
}

// RatingsRecalculatedPushHandler consumes ratings-recalculated events and
// posts the refreshed leaderboard to Slack.
func (s *Server) RatingsRecalculatedPushHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawData, ok := readPushMessage(w, r)
		if !ok {
			return
		}
		var event pubsub.RatingsRecalculatedEvent
		if err := s.pubsub.ProcessMessage(rawData, &event); err != nil {
			log.Error("Failed to decode recalculation event", "error", err)
			http.Error(w, "Invalid message payload", http.StatusBadRequest)
			return
		}
		log.Info("Received recalculation event", "trigger", event.Trigger, "applied", event.Applied, "anomalies", event.Anomalies)

		if !s.postLeaderboard(w, r) {
			return
		}
		w.Write([]byte("OK"))
	}
}

// PostLeaderboardHandler is hit by the scheduler to post the standings.
func (s *Server) PostLeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("Posting scheduled leaderboard")
		if !s.postLeaderboard(w, r) {
			return
		}
		w.Write([]byte("OK"))
	}
}

func (s *Server) postLeaderboard(w http.ResponseWriter, r *http.Request) bool {
	players, err := s.Engine.Players(r.Context())
	if err != nil {
		writeError(w, r, err)
		return false
	}
	if err := s.Notifier.SendLeaderboard(r.Context(), players, isDryRunFromContext(r)); err != nil {
		log.Error("Failed to send leaderboard", "error", err)
		http.Error(w, "Failed to send leaderboard", http.StatusInternalServerError)
		return false
	}
	return true
}

func readPushMessage(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("Failed to read request body", "error", err)
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return nil, false
	}
	log.Debug("Received push message", "body", string(bodyBytes))

	var envelope pushEnvelope
	if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
		log.Error("Failed to unmarshal wrapper JSON", "error", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return nil, false
	}

	rawData, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
	if err != nil {
		log.Error("Failed to decode base64 data", "error", err)
		http.Error(w, "Invalid base64 data", http.StatusBadRequest)
		return nil, false
	}
	return rawData, true
}
