package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	"github.com/goran-ethernal/ProposalIndexor/internal/store"
	"github.com/goran-ethernal/ProposalIndexor/pkg/api/docs"
	"github.com/goran-ethernal/ProposalIndexor/pkg/config"
)

// Ensure docs are registered
var _ = docs.SwaggerInfo

const shutdownCtxTimeout = 10 * time.Second

// Server serves the read API over the entity store.
type Server struct {
	config  *config.APIConfig
	handler http.Handler
	server  *http.Server
	log     *logger.Logger
}

// NewServer creates a new API server.
func NewServer(
	cfg *config.APIConfig,
	st store.Store,
	registry IndexerRegistry,
	sync SyncStateReader,
	log *logger.Logger,
) *Server {
	handler := NewHandler(st, registry, sync, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health)
	mux.HandleFunc("GET /api/v1/kinds", handler.ListKinds)
	mux.HandleFunc("GET /api/v1/entities/{kind}/count", handler.Count)
	mux.HandleFunc("GET /api/v1/entities/{kind}/{id}", handler.GetEntity)
	mux.HandleFunc("GET /api/v1/entities/{kind}/{id}/{field}", handler.GetField)

	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
	))

	var h http.Handler = mux
	h = RecoveryMiddleware(log)(h)
	h = LoggingMiddleware(log)(h)
	if cfg.CORS.Enabled {
		h = CORSMiddleware(cfg.CORS.AllowedOrigins)(h)
	}

	return &Server{
		config:  cfg,
		handler: h,
		server: &http.Server{
			Addr:         cfg.ListenAddress,
			Handler:      h,
			ReadTimeout:  cfg.ReadTimeout.Duration,
			WriteTimeout: cfg.WriteTimeout.Duration,
			IdleTimeout:  cfg.IdleTimeout.Duration,
		},
		log: log,
	}
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("API server is disabled")
		return nil
	}

	listener, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	s.log.Infof("starting API server on %s", listener.Addr())

	serveErr := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("API server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownCtxTimeout)
	defer cancel()

	s.log.Info("shutting down API server")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown error: %w", err)
	}

	s.log.Info("API server stopped")
	return nil
}
