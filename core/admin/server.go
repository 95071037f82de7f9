package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zlpkhr/hasty-server/core/router"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// RouteSource lists the application's registered routes
type RouteSource interface {
	Routes() []router.Route
}

// Config contains admin server configuration
type Config struct {
	Addr     string
	Gatherer prometheus.Gatherer
	Routes   RouteSource
	Logger   *slog.Logger

	MaxConcurrentStreams uint32
	IdleTimeout          time.Duration
}

// Server exposes metrics, health and the route table over HTTP/1.1 and
// HTTP/2 cleartext
type Server struct {
	addr   string
	server *http.Server
	h2     *http2.Server
	logger *slog.Logger

	mu     sync.Mutex
	ln     net.Listener
	closed bool
}

// RouteInfo is one entry of the /routes listing
type RouteInfo struct {
	Method  string `json:"method"`
	Pattern string `json:"pattern"`
}

// NewServer creates a new admin server
func NewServer(cfg Config) *Server {
	if cfg.MaxConcurrentStreams == 0 {
		cfg.MaxConcurrentStreams = 250
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 120 * time.Second
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		addr:   cfg.Addr,
		logger: cfg.Logger,
		h2: &http2.Server{
			MaxConcurrentStreams: cfg.MaxConcurrentStreams,
			IdleTimeout:          cfg.IdleTimeout,
		},
	}

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           h2c.NewHandler(newMux(cfg), s.h2),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       cfg.IdleTimeout,
	}

	return s
}

func newMux(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/routes", func(w http.ResponseWriter, _ *http.Request) {
		routes := []RouteInfo{}
		if cfg.Routes != nil {
			for _, rt := range cfg.Routes.Routes() {
				routes = append(routes, RouteInfo{Method: rt.Method, Pattern: rt.Pattern})
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(routes); err != nil {
			cfg.Logger.Warn("encode routes", "error", err)
		}
	})

	return r
}

// Handler returns the admin handler, for mounting or tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the bound address once listening, else the configured one
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// ListenAndServe serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("admin server is closed")
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("admin server listening", "addr", ln.Addr().String(), "protocol", "h2c")
	err = s.server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.server.Shutdown(ctx)
}
