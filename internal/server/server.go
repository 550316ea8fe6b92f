package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/phishscan/internal/orchestrator"
	"github.com/nao1215/phishscan/internal/presenter"
)

const (
	// DefaultMaxWait caps how long an alert poll may block.
	DefaultMaxWait = 30 * time.Second

	// DefaultMaxBodySize caps the size of a page-load event.
	DefaultMaxBodySize = 2 << 20

	// shutdownTimeout bounds the graceful shutdown in Start.
	shutdownTimeout = 5 * time.Second
)

// Server serves the extension API.
type Server struct {
	addr        string
	router      *gin.Engine
	orch        *orchestrator.Orchestrator
	hub         *presenter.Hub
	logger      *slog.Logger
	maxWait     time.Duration
	maxBodySize int64
}

// Option configures a Server.
type Option func(*Server)

// WithAddress sets the listen address.
func WithAddress(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxWait caps the wait parameter of alert polls.
// Zero disables waiting; polls then always return immediately.
func WithMaxWait(d time.Duration) Option {
	return func(s *Server) {
		if d >= 0 {
			s.maxWait = d
		}
	}
}

// WithMaxBodySize caps the size of request bodies in bytes.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodySize = n
		}
	}
}

// New creates a Server. The hub must be the presenter and tab observer of
// the orchestrator's pipeline, so that polled alerts are the ones the
// sessions dispatched.
func New(orch *orchestrator.Orchestrator, hub *presenter.Hub, opts ...Option) *Server {
	s := &Server{
		addr:        "127.0.0.1:8080",
		orch:        orch,
		hub:         hub,
		logger:      slog.Default(),
		maxWait:     DefaultMaxWait,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", s.handleHealth)
	s.register(router.Group("/api/v1/tabs"))

	s.router = router
	return s
}

func (s *Server) register(group *gin.RouterGroup) {
	group.POST("/:tab/begin", s.handleBegin)
	group.POST("/:tab/loads", s.handleLoad)
	group.DELETE("/:tab", s.handleNavigate)
	group.GET("/:tab", s.handleSession)
	group.GET("/:tab/alert", s.handleAlert)
	group.GET("/:tab/explanation", s.handleExplanation)
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Start serves HTTP until ctx is cancelled or the listener fails.
// Cancelling ctx shuts the server down gracefully and returns nil.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info("extension API listening", "addr", s.addr)

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shCtx)
	case err := <-errCh:
		return err
	}
}

// requestLogger logs every request at debug level.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
