package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/teemow/meetbook/internal/instrumentation"
	"github.com/teemow/meetbook/internal/logging"
)

// Default HTTP server timeouts.
const (
	DefaultAddr              = ":8000"
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultWriteTimeout      = 60 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
)

// Config configures the public HTTP server.
type Config struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	// WriteTimeout bounds a whole request, including calls to Google.
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	Handlers      *Handlers
	Auth          *AdminAuth
	ServerContext *ServerContext
	Metrics       *instrumentation.Metrics
	Logger        *slog.Logger
}

// Server serves the scheduling endpoint, the admin routes and health checks.
type Server struct {
	config Config
	router *mux.Router
	health *HealthChecker
	sc     *ServerContext
	logger *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// New creates a Server.
func New(config Config) (*Server, error) {
	if config.Handlers == nil {
		return nil, errors.New("handlers are required")
	}
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}
	if config.ServerContext == nil {
		config.ServerContext = NewServerContext(context.Background())
	}

	logger := logging.WithComponent(config.Logger, "server")
	s := &Server{
		config: config,
		health: NewHealthChecker(config.ServerContext),
		sc:     config.ServerContext,
		logger: logger,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestMetrics(s.config.Metrics, s.logger))

	s.health.RegisterHealthEndpoints(r)

	h := s.config.Handlers
	r.HandleFunc("/schedule-meeting", h.ScheduleMeeting).Methods(http.MethodPost)

	admin := r.PathPrefix("/admin").Subrouter()
	if s.config.Auth != nil {
		admin.Use(s.config.Auth.Middleware)
	}
	admin.HandleFunc("/meetings", h.ListMeetings).Methods(http.MethodGet)
	admin.HandleFunc("/meetings/generate-links", h.GenerateLinks).Methods(http.MethodPost)
	admin.HandleFunc("/meetings/status", h.MarkStatus).Methods(http.MethodPost)

	return r
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Health returns the health checker backing the health endpoints.
func (s *Server) Health() *HealthChecker {
	return s.health
}

// Start serves until Shutdown is called. It blocks.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return s.sc.Context() },
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", "addr", ln.Addr().String())
	return srv.Serve(ln)
}

// Shutdown marks the server not ready and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	var err error
	if srv != nil {
		s.logger.Info("shutting down HTTP server")
		err = srv.Shutdown(ctx)
	}
	_ = s.sc.Shutdown()
	return err
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}
