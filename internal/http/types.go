package http

import (
	"net/http"

	"github.com/mauv0809/warlord-swiss/internal/config"
	"github.com/mauv0809/warlord-swiss/internal/metrics"
	"github.com/mauv0809/warlord-swiss/internal/processor"
	"github.com/mauv0809/warlord-swiss/internal/pubsub"
	"github.com/mauv0809/warlord-swiss/internal/session"
)

type Server struct {
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Processor      *processor.Processor
	Sessions       *session.Issuer
	Router         *http.ServeMux

	pubsub  pubsub.PubSubClient
	handler http.Handler
}
