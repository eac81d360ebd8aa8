// Package server exposes the content pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harun/kspar/internal/metrics"
	"github.com/harun/kspar/internal/tracing"
	"github.com/harun/kspar/pkg/pipeline"
	"github.com/harun/kspar/pkg/product"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 30 * time.Second

// PipelineRunner is the part of *pipeline.Pipeline the server drives.
type PipelineRunner interface {
	RegisterSession(ctx context.Context, sessionID string, sessionContext map[string]any) error
	Run(ctx context.Context, sessionID string, raw product.RawProduct) (*pipeline.Result, error)
}

// Config holds server configuration
type Config struct {
	Addr     string
	Pipeline PipelineRunner
	Metrics  *metrics.Metrics

	// SessionContext seeds sessions created without a request body.
	SessionContext map[string]any

	// Admission limits for pipeline requests; zero disables a limit.
	RequestsPerMinute int
	MaxConcurrent     int

	Logger zerolog.Logger
}

// Server is the HTTP front end
type Server struct {
	addr           string
	pipeline       PipelineRunner
	metrics        *metrics.Metrics
	sessionContext map[string]any
	limiter        *admissionLimiter
	engine         *gin.Engine
	server         *http.Server
	logger         zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
	serveErr chan error
}

// NewServer creates a new server
func NewServer(cfg Config) (*Server, error) {
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		addr:           cfg.Addr,
		pipeline:       cfg.Pipeline,
		metrics:        cfg.Metrics,
		sessionContext: cfg.SessionContext,
		limiter:        newAdmissionLimiter(cfg.RequestsPerMinute, cfg.MaxConcurrent),
		logger:         cfg.Logger.With().Str("component", "server").Logger(),
	}
	s.engine = s.routes()

	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := r.Group("/v1")
	v1.POST("/sessions", s.handleCreateSession)
	v1.POST("/pipeline", s.admit(), s.handleRunPipeline)

	return r
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the address the server listens on once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Start starts listening and serves in the background
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("server already started")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.serveErr = make(chan error, 1)

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Starting HTTP server")

	go func() {
		err := s.server.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("HTTP server error")
			s.serveErr <- err
		}
		close(s.serveErr)
	}()

	return nil
}

// Stop gracefully stops the server, waiting for in-flight requests
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	s.logger.Info().Msg("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	s.logger.Info().Msg("HTTP server stopped")
	return nil
}

// Run starts the server and blocks until ctx is cancelled or serving fails.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case err, ok := <-s.serveErr:
		if ok && err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Stop(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		traceID := c.GetHeader("X-Trace-Id")
		if traceID == "" {
			traceID = tracing.NewTraceID()
		}
		c.Request = c.Request.WithContext(tracing.WithTraceID(c.Request.Context(), traceID))
		c.Header("X-Trace-Id", traceID)

		c.Next()

		s.logger.Info().
			Str("trace_id", traceID).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	}
}

func (s *Server) admit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ok, reason := s.limiter.acquire(c.ClientIP()); !ok {
			s.abort(c, &APIError{Type: ErrorTypeRateLimit, Message: reason})
			return
		}
		defer s.limiter.release()
		c.Next()
	}
}

func (s *Server) abort(c *gin.Context, apiErr *APIError) {
	c.AbortWithStatusJSON(apiErr.Status(), apiErr)
}
