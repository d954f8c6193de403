package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the operations endpoint: liveness and prometheus metrics
type Server struct {
	srv *http.Server
}

// New builds the server. gatherer is scraped on /metrics when exposeMetrics
// is set; nil means the default registry.
func New(addr string, exposeMetrics bool, gatherer prometheus.Gatherer) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           Handler(exposeMetrics, gatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Handler returns the routes served by the ops server
func Handler(exposeMetrics bool, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if exposeMetrics {
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}

// Start serves until Shutdown. A graceful shutdown is not an error.
func (s *Server) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for active requests to
// finish or for ctx to end, whichever comes first.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
