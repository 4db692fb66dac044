package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/tabflow/config"
	"github.com/kbukum/tabflow/logger"
	"github.com/kbukum/tabflow/observability"
	"github.com/kbukum/tabflow/version"
)

// Server is the HTTP API of one Pipeline.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	pipeline   *Pipeline
	cfg        config.ServerConfig
	log        *logger.Logger
	metrics    *observability.Metrics
	service    string
	version    string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Default: the "api" component logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics records request metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithService names the service in /health.
func WithService(name, version string) Option {
	return func(s *Server) { s.service, s.version = name, version }
}

// New creates a Server with its middleware and routes installed.
func New(cfg config.ServerConfig, p *Pipeline, opts ...Option) *Server {
	s := &Server{
		pipeline: p,
		cfg:      cfg,
		log:      logger.WithComponent("api"),
		service:  "tabflow",
		version:  version.Get().Short(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	s.engine = gin.New()
	s.engine.Use(RequestID(), Recovery(s.log), BodySizeLimit(cfg.MaxBodyBytes), Tracing())
	if s.metrics != nil {
		s.engine.Use(RequestMetrics(s.metrics))
	}
	s.engine.Use(RequestLogger(s.log))
	s.engine.NoRoute(func(c *gin.Context) {
		RespondWithError(c, errNoRoute(c))
	})
	s.routes()

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Engine returns the gin engine, for tests and extra routes.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start binds the port and serves in the background. It returns once the
// listener is bound.
func (s *Server) Start(context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.httpServer.Addr, err)
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("server stopped", logger.Fields(logger.FieldError, err.Error()))
		}
	}()
	s.log.Info("api listening", logger.Fields("addr", ln.Addr().String()))
	return nil
}

// Stop shuts the server down, waiting at most five seconds for requests
// in flight.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	s.pipeline.Events.Close()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.log.Info("api stopped")
	return nil
}
