package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/quorumchain/bft/module/component"
	"github.com/quorumchain/bft/module/irrecoverable"
)

const shutdownTimeout = 5 * time.Second

// Server serves the /metrics endpoint for prometheus.
type Server struct {
	*component.ComponentManager
	log    zerolog.Logger
	server *http.Server
}

func NewServer(log zerolog.Logger, address string, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s := &Server{
		log:    log.With().Str("component", "metrics_server").Str("address", address).Logger(),
		server: &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 10 * time.Second},
	}
	s.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(s.serve).
		Build()
	return s
}

func (s *Server) serve(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			ctx.Throw(fmt.Errorf("metrics server failed: %w", err))
		}
	}()
	s.log.Info().Msg("metrics server started")
	ready()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.log.Warn().Err(err).Msg("metrics server shutdown")
	}
}
