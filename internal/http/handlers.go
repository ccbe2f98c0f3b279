package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pingpong-elo/internal/engine"
	"github.com/mauv0809/pingpong-elo/internal/league"
	"github.com/mauv0809/pingpong-elo/internal/pubsub"
	"github.com/slack-go/slack"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

// DataHandler returns every player and every non-archived game.
func (s *Server) DataHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := s.Engine.Snapshot(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		games := make([]gameResponse, 0, len(snap.Matches))
		for _, m := range snap.Matches {
			games = append(games, toGameResponse(m))
		}
		writeJSON(w, http.StatusOK, dataResponse{
			Players:     nonNil(snap.Players),
			Games:       games,
			MatchCounts: snap.MatchCounts,
		})
	}
}

func (s *Server) ListPlayersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := s.Engine.Players(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(players))
	}
}

func (s *Server) GetPlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, err := s.Engine.Player(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, player)
	}
}

func (s *Server) CreatePlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req playerRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		player, err := s.Engine.RegisterPlayer(r.Context(), league.Player{
			ID:           req.Username,
			Rating:       req.Elo,
			Description:  req.Description,
			Achievements: req.Achievements,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, player)
	}
}

func (s *Server) ListMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter league.MatchFilter
		q := r.URL.Query()
		if season := q.Get("season"); season != "" {
			n, err := strconv.Atoi(season)
			if err != nil || n <= 0 {
				writeError(w, r, &league.ValidationError{Field: "season", Reason: "must be a positive number"})
				return
			}
			filter.Season = n
		}
		if archived := q.Get("archived"); archived != "" {
			b, err := strconv.ParseBool(archived)
			if err != nil {
				writeError(w, r, &league.ValidationError{Field: "archived", Reason: "must be true or false"})
				return
			}
			filter.Archived = &b
		}

		matches, err := s.Engine.Matches(r.Context(), filter)
		if err != nil {
			writeError(w, r, err)
			return
		}
		games := make([]gameResponse, 0, len(matches))
		for _, m := range matches {
			games = append(games, toGameResponse(m))
		}
		writeJSON(w, http.StatusOK, games)
	}
}

func (s *Server) GetMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := matchID(w, r)
		if !ok {
			return
		}
		m, err := s.Engine.Match(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toGameResponse(*m))
	}
}

// RecordMatchHandler appends one game and applies it incrementally.
func (s *Server) RecordMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gameRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		outcome, err := s.Engine.RecordMatch(r.Context(), req.fields())
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.announce(r.Context(), *outcome, isDryRunFromContext(r))
		writeJSON(w, http.StatusCreated, outcome)
	}
}

// RecordMatchesHandler appends a batch of games atomically.
func (s *Server) RecordMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if len(req.Games) == 0 {
			writeError(w, r, &league.ValidationError{Field: "games", Reason: "must not be empty"})
			return
		}

		now := time.Now().Unix()
		batch := make([]league.MatchFields, 0, len(req.Games))
		for _, g := range req.Games {
			if req.UseCurrentTime {
				g.DatePlayed = &now
			}
			batch = append(batch, g.fields())
		}

		outcomes, err := s.Engine.RecordMatches(r.Context(), batch)
		if err != nil {
			writeError(w, r, err)
			return
		}
		dryRun := isDryRunFromContext(r)
		for _, outcome := range outcomes {
			s.announce(r.Context(), outcome, dryRun)
		}
		writeJSON(w, http.StatusCreated, outcomes)
	}
}

// EditMatchHandler replaces a game and recalculates every rating.
func (s *Server) EditMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := matchID(w, r)
		if !ok {
			return
		}
		var req gameRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := s.Engine.EditMatch(r.Context(), id, req.fields())
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.announceRecalculation(r.Context(), "edit", id, res, isDryRunFromContext(r))
		writeJSON(w, http.StatusOK, toRecalculationResponse(res, false))
	}
}

// DeleteMatchHandler removes a game and recalculates every rating.
func (s *Server) DeleteMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := matchID(w, r)
		if !ok {
			return
		}
		res, err := s.Engine.DeleteMatch(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.announceRecalculation(r.Context(), "delete", id, res, isDryRunFromContext(r))
		writeJSON(w, http.StatusOK, toRecalculationResponse(res, false))
	}
}

// RecalculateHandler replays the ledger. With dry_run=true nothing is written.
func (s *Server) RecalculateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dryRun := isDryRunFromContext(r)

		var (
			res *engine.Result
			err error
		)
		if dryRun {
			res, err = s.Engine.Preview(r.Context())
		} else {
			res, err = s.Engine.RecalculateAll(r.Context())
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !dryRun {
			s.announceRecalculation(r.Context(), "admin", 0, res, false)
		}
		writeJSON(w, http.StatusOK, toRecalculationResponse(res, dryRun))
	}
}

func (s *Server) VacuumHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Engine.Vacuum(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "vacuumed"})
	}
}

// LeaderboardCommandHandler returns a handler for the /leaderboard Slack command.
// With a username as text it shows that player instead.
func (s *Server) LeaderboardCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		query := r.FormValue("text")

		var (
			msg any
			err error
		)
		if query == "" {
			players, lookupErr := s.Engine.Players(r.Context())
			if lookupErr != nil {
				http.Error(w, "Failed to get players", http.StatusInternalServerError)
				log.Error("Failed to get players", "error", lookupErr)
				return
			}
			msg, err = s.Notifier.FormatLeaderboardResponse(players)
		} else {
			log.Info("Received player lookup command", "player", query)
			player, lookupErr := s.Engine.Player(r.Context(), query)
			switch {
			case errors.Is(lookupErr, league.ErrNotFound):
				msg, err = s.Notifier.FormatPlayerNotFoundResponse(query)
			case lookupErr != nil:
				http.Error(w, "Failed to get player", http.StatusInternalServerError)
				log.Error("Failed to get player", "error", lookupErr, "player", query)
				return
			default:
				msg, err = s.Notifier.FormatPlayerResponse(player)
			}
		}
		if err != nil {
			http.Error(w, "Failed to format response", http.StatusInternalServerError)
			log.Error("Failed to format slash command response", "error", err)
			return
		}

		if slackMsg, ok := msg.(slack.Message); ok {
			respondWithSlackMsg(w, slackMsg)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	}
}

// announce publishes and posts a recorded match. Failures are logged only;
// the match is already committed.
func (s *Server) announce(ctx context.Context, outcome engine.Outcome, dryRun bool) {
	event := pubsub.MatchRecordedEvent{
		MatchID:      outcome.Match.ID,
		Season:       outcome.Match.Season,
		Winner:       outcome.Winner.PlayerID,
		Loser:        outcome.Loser.PlayerID,
		WinnerRating: outcome.Winner.After,
		LoserRating:  outcome.Loser.After,
		WinnerDelta:  outcome.Winner.Delta(),
		LoserDelta:   outcome.Loser.Delta(),
		Recalculated: outcome.Recalculated,
	}
	if err := s.pubsub.SendMessage(ctx, pubsub.EventMatchRecorded, event); err != nil {
		log.Error("Failed to publish match event", "error", err, "matchID", outcome.Match.ID)
	}
	if err := s.Notifier.SendMatchResult(ctx, outcome, dryRun); err != nil {
		log.Error("Failed to send match result notification", "error", err, "matchID", outcome.Match.ID)
	}
}

func (s *Server) announceRecalculation(ctx context.Context, trigger string, id int64, res *engine.Result, dryRun bool) {
	event := pubsub.RatingsRecalculatedEvent{
		Trigger:    trigger,
		MatchID:    id,
		Players:    len(res.States),
		Applied:    len(res.Applied),
		Anomalies:  len(res.Anomalies),
		DurationMs: res.Duration.Milliseconds(),
	}
	if err := s.pubsub.SendMessage(ctx, pubsub.EventRatingsRecalculated, event); err != nil {
		log.Error("Failed to publish recalculation event", "error", err, "trigger", trigger)
	}
	if err := s.Notifier.SendAnomalies(ctx, trigger, res.Anomalies, dryRun); err != nil {
		log.Error("Failed to send anomaly notification", "error", err, "trigger", trigger)
	}
}

func (g gameRequest) fields() league.MatchFields {
	f := league.MatchFields{
		Player1:  g.P1,
		Player2:  g.P2,
		Winner:   g.Winner,
		Season:   g.Season,
		Doubles:  g.Doubles,
		Archived: g.Archived,
	}
	if g.DatePlayed != nil {
		t := time.Unix(*g.DatePlayed, 0).UTC()
		f.PlayedAt = &t
	}
	return f
}

func toGameResponse(m league.Match) gameResponse {
	g := gameResponse{
		ID:       m.ID,
		P1:       m.Player1,
		P2:       m.Player2,
		Winner:   m.Winner,
		Season:   m.Season,
		Doubles:  m.Doubles,
		Archived: m.Archived,
	}
	if m.PlayedAt != nil {
		ts := m.PlayedAt.Unix()
		g.DatePlayed = &ts
	}
	return g
}

func toRecalculationResponse(res *engine.Result, dryRun bool) recalculationResponse {
	anomalies := res.Anomalies
	if anomalies == nil {
		anomalies = []engine.Anomaly{}
	}
	return recalculationResponse{
		DryRun:    dryRun,
		Players:   len(res.States),
		Applied:   len(res.Applied),
		Anomalies: anomalies,
		Duration:  res.Duration.String(),
	}
}

func matchID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, &league.ValidationError{Field: "id", Reason: "must be a positive integer"})
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

// writeError maps engine and ledger errors to status codes. Storage failures
// are logged with their cause and returned as an opaque 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *league.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: vErr.Field})
	case errors.Is(err, league.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, league.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, engine.ErrInconsistentLedger):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		log.Error("Request failed", "error", err, "method", r.Method, "url", r.URL.String(), "requestID", requestIDFromContext(r))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg slack.Message) {
	writeJSON(w, http.StatusOK, msg)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
