package http

import (
	"net/http"

	"github.com/mauv0809/pingpong-elo/internal/config"
	"github.com/mauv0809/pingpong-elo/internal/engine"
	"github.com/mauv0809/pingpong-elo/internal/metrics"
	"github.com/mauv0809/pingpong-elo/internal/notifier"
	"github.com/mauv0809/pingpong-elo/internal/pubsub"
)

func NewServer(eng engine.RatingEngine, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, notifier notifier.Notifier, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Engine:         eng,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Notifier:       notifier,
		Router:         http.NewServeMux(),
		pubsub:         pubsub,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// e.g. Chain(s.MyHandler(), requestIDMiddleware, paramsMiddleware, authMiddleware)
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("GET /health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("GET /data", Chain(s.DataHandler(), requestIDMiddleware, paramsMiddleware))

	s.Router.Handle("GET /players", Chain(s.ListPlayersHandler(), requestIDMiddleware, paramsMiddleware))
	s.Router.Handle("POST /players", Chain(s.CreatePlayerHandler(), requestIDMiddleware, paramsMiddleware))
	s.Router.Handle("GET /players/{id}", Chain(s.GetPlayerHandler(), requestIDMiddleware, paramsMiddleware))

	s.Router.Handle("GET /matches", Chain(s.ListMatchesHandler(), requestIDMiddleware, paramsMiddleware))
	s.Router.Handle("POST /matches", Chain(s.RecordMatchHandler(), requestIDMiddleware, paramsMiddleware))
	s.Router.Handle("POST /matches/batch", Chain(s.RecordMatchesHandler(), requestIDMiddleware, paramsMiddleware))
	s.Router.Handle("GET /matches/{id}", Chain(s.GetMatchHandler(), requestIDMiddleware, paramsMiddleware))
	s.Router.Handle("PUT /matches/{id}", Chain(s.EditMatchHandler(), requestIDMiddleware, paramsMiddleware))
	s.Router.Handle("DELETE /matches/{id}", Chain(s.DeleteMatchHandler(), requestIDMiddleware, paramsMiddleware))

	s.Router.Handle("POST /admin/recalculate", Chain(s.RecalculateHandler(), requestIDMiddleware, paramsMiddleware))
	s.Router.Handle("POST /admin/vacuum", Chain(s.VacuumHandler(), requestIDMiddleware, paramsMiddleware))

	s.Router.Handle("POST /leaderboard/post", Chain(s.PostLeaderboardHandler(), requestIDMiddleware, paramsMiddleware))
	s.Router.Handle("POST /pubsub/ratings-recalculated", Chain(s.RatingsRecalculatedPushHandler(), paramsMiddleware))

	s.Router.Handle("POST /slack/command/leaderboard", Chain(s.LeaderboardCommandHandler(), paramsMiddleware, slackVerifyMiddleware(s.Cfg.Slack.SigningSecret)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
