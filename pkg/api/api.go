package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/marketd/marketd/pkg/flows"
	"github.com/marketd/marketd/pkg/logging"
	"github.com/marketd/marketd/pkg/seed"
	"github.com/marketd/marketd/pkg/session"
)

// Server serves the marketd API. It owns the HTTP listener and delegates
// all state to the session manager; the server itself is stateless apart
// from its start time.
type Server struct {
	sessions  *session.Manager
	validator *flows.Validator
	runner    *seed.Runner

	httpServer *http.Server
	listener   net.Listener
	host       string
	port       int
	version    string

	// reapInterval > 0 starts the idle-session reaper alongside the
	// listener and stops it on Stop.
	reapInterval time.Duration

	startTime time.Time
	ctx       context.Context
	cancel    context.CancelFunc

	log *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithVersion sets the version string reported by the health endpoint.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// WithSessionReaper makes Start run the session manager's idle reaper,
// sweeping at the given interval. A zero interval leaves reaping off.
func WithSessionReaper(interval time.Duration) Option {
	return func(s *Server) {
		s.reapInterval = interval
	}
}

// NewServer assembles the API around a session manager, a flow validator,
// and the seed runner used by the reset endpoint.
func NewServer(host string, port int, sessions *session.Manager, validator *flows.Validator, runner *seed.Runner, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		sessions:  sessions,
		validator: validator,
		runner:    runner,
		host:      host,
		port:      port,
		version:   "dev",
		ctx:       ctx,
		cancel:    cancel,
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      s.withMiddleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// SetLogger replaces the server's logger. Passing nil silences it.
func (s *Server) SetLogger(log *slog.Logger) {
	if log == nil {
		log = logging.Nop()
	}
	s.log = log
}

// Handler returns the assembled route handler, middleware included. Tests
// and embedders drive it directly without binding a port.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the bound listen address once Start has succeeded, and the
// configured address before that. With port 0 the bound form carries the
// real port.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Start binds the listener and serves in the background. Bind failures,
// port already in use included, are returned here; errors from an
// established listener are logged, not returned.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.startTime = time.Now()

	if s.reapInterval > 0 {
		s.sessions.StartReaper(s.ctx, s.reapInterval)
	}

	s.log.Info("api server starting", "addr", s.Addr())
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("api server error", "error", err)
		}
	}()
	return nil
}

// Stop shuts the listener down, giving in-flight requests five seconds to
// drain, and stops the reaper.
func (s *Server) Stop() error {
	s.log.Info("api server stopping")
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Uptime returns whole seconds since Start.
func (s *Server) Uptime() int {
	if s.startTime.IsZero() {
		return 0
	}
	return int(time.Since(s.startTime).Seconds())
}
