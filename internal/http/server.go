package http

import (
	"net/http"

	"github.com/mauv0809/warlord-swiss/internal/config"
	"github.com/mauv0809/warlord-swiss/internal/http/handlers"
	"github.com/mauv0809/warlord-swiss/internal/metrics"
	"github.com/mauv0809/warlord-swiss/internal/processor"
	"github.com/mauv0809/warlord-swiss/internal/pubsub"
	"github.com/mauv0809/warlord-swiss/internal/session"
	"golang.org/x/time/rate"
)

func NewServer(metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, processor *processor.Processor, sessions *session.Issuer, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Processor:      processor,
		Sessions:       sessions,
		Router:         http.NewServeMux(),
		pubsub:         pubsub,
	}

	server.routes()

	// A zero rate disables limiting.
	limit := rate.Inf
	if cfg.HTTP.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.HTTP.RateLimitRPS)
	}
	limiter := rate.NewLimiter(limit, cfg.HTTP.RateLimitBurst)
	server.handler = Chain(server.Router, corsMiddleware(cfg.HTTP.AllowedOrigins), rateLimitMiddleware(limiter))
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	api := func(h http.Handler) http.Handler {
		return Chain(h, paramsMiddleware, sessionMiddleware(s.Sessions))
	}
	p := s.Processor

	s.Router.Handle("GET /metrics", s.MetricsHandler)
	s.Router.Handle("GET /health", Chain(handlers.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("GET /game-systems", api(handlers.ListGameSystemsHandler(p)))

	s.Router.Handle("GET /tournaments", api(handlers.ListTournamentsHandler(p)))
	s.Router.Handle("POST /tournaments", api(handlers.CreateTournamentHandler(p)))
	s.Router.Handle("GET /tournaments/{id}", api(handlers.GetTournamentHandler(p)))
	s.Router.Handle("PATCH /tournaments/{id}", api(handlers.UpdateTournamentHandler(p)))

	s.Router.Handle("POST /tournaments/{id}/participants", api(handlers.RegisterParticipantHandler(p)))
	s.Router.Handle("PATCH /tournaments/{id}/participants/{pid}", api(handlers.UpdateParticipantHandler(p)))
	s.Router.Handle("POST /tournaments/{id}/participants/{pid}/drop", api(handlers.DropParticipantHandler(p)))

	s.Router.Handle("POST /tournaments/{id}/start", api(handlers.StartTournamentHandler(p)))
	s.Router.Handle("POST /tournaments/{id}/advance", api(handlers.AdvanceRoundHandler(p)))
	s.Router.Handle("GET /tournaments/{id}/pairings/preview", api(handlers.PreviewPairingsHandler(p)))
	s.Router.Handle("POST /tournaments/{id}/finish", api(handlers.FinishTournamentHandler(p)))
	s.Router.Handle("GET /tournaments/{id}/standings", api(handlers.StandingsHandler(p)))
	s.Router.Handle("GET /tournaments/{id}/rounds/{round}", api(handlers.RoundHandler(p)))

	s.Router.Handle("POST /tournaments/{id}/matches/{mid}/report", api(handlers.ReportResultHandler(p)))
	s.Router.Handle("POST /tournaments/{id}/matches/{mid}/confirm", api(handlers.ConfirmResultHandler(p)))
	s.Router.Handle("POST /tournaments/{id}/matches/{mid}/reject", api(handlers.RejectResultHandler(p)))
	s.Router.Handle("PUT /tournaments/{id}/matches/{mid}/override", api(handlers.OverrideResultHandler(p)))
	s.Router.Handle("GET /tournaments/{id}/matches/{mid}/amendments", api(handlers.AmendmentsHandler(p)))

	s.Router.Handle("POST /events/pairings-generated", Chain(handlers.PairingsGeneratedHandler(p, s.pubsub), paramsMiddleware))
	s.Router.Handle("POST /events/tournament-finished", Chain(handlers.TournamentFinishedHandler(p, s.pubsub), paramsMiddleware))

	s.Router.Handle("POST /slack/command/standings", Chain(handlers.StandingsCommandHandler(p), paramsMiddleware, slackVerifyMiddleware(s.Cfg.Slack.SigningSecret)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
