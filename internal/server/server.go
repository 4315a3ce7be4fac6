package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/muurk/projctl/internal/logging"
	"github.com/muurk/projctl/internal/projector"
	"github.com/muurk/projctl/internal/sources"
	"github.com/muurk/projctl/internal/version"
)

// shutdownTimeout bounds how long Run waits for in-flight requests.
const shutdownTimeout = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Addr       string
	Projectors map[string]ProjectorConfig

	// Open opens serial ports; defaults to OpenSerial
	Open OpenFunc

	// Table resolves source names; defaults to the embedded catalog
	Table *sources.Table

	// SessionOptions are passed to every projector session
	SessionOptions []projector.Option
}

// Server exposes projectors over HTTP and WebSocket
type Server struct {
	config      *Config
	router      *mux.Router
	controllers map[string]*Controller
	names       []string

	mu          sync.Mutex
	httpServer  *http.Server
	activeConns map[string]*websocket.Conn
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	if len(config.Projectors) == 0 {
		return nil, errors.New("no projectors configured")
	}

	open := config.Open
	if open == nil {
		open = OpenSerial
	}
	table := config.Table
	if table == nil {
		table = sources.Default()
	}

	s := &Server{
		config:      config,
		controllers: make(map[string]*Controller, len(config.Projectors)),
		activeConns: make(map[string]*websocket.Conn),
	}

	for name, pc := range config.Projectors {
		if !table.HasModel(pc.Model) {
			return nil, fmt.Errorf("projector %q: unknown model %q", name, pc.Model)
		}
		s.controllers[name] = newController(name, pc, open, table, config.SessionOptions)
		s.names = append(s.names, name)
	}
	sort.Strings(s.names)

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(serverHeader)

	a := r.PathPrefix("/api/v1").Subrouter()
	a.Use(
		func(next http.Handler) http.Handler {
			return promhttp.InstrumentHandlerCounter(metricHTTPRequestsTotal, next)
		},
		func(next http.Handler) http.Handler {
			return promhttp.InstrumentHandlerDuration(metricHTTPRequestDuration, next)
		},
	)

	a.Path("/projectors").
		Methods("GET").
		HandlerFunc(s.handleAPIProjectors)

	a.Path("/projectors/{projector}").
		Methods("GET").
		HandlerFunc(s.handleAPIProjector)

	a.Path("/projectors/{projector}/commands").
		Methods("POST").
		HandlerFunc(s.handleAPICommand)

	// Outside the instrumented subrouter: the hijacked connection cannot be
	// wrapped by the promhttp response writer.
	r.Path("/api/v1/projectors/{projector}/ws").
		Methods("GET").
		HandlerFunc(s.handleWebsocket)

	r.Path("/metrics").
		Methods("GET").
		Handler(promhttp.Handler())

	r.Path("/healthz").
		Methods("GET", "OPTIONS").
		HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rw.Write([]byte("OK")) //nolint:errcheck
		})

	return r
}

// serverHeader stamps every response with the projctl version.
func serverHeader(next http.Handler) http.Handler {
	ua := version.UserAgent()
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Server", ua)
		next.ServeHTTP(rw, r)
	})
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Names returns the configured projector names in sorted order.
func (s *Server) Names() []string {
	return append([]string(nil), s.names...)
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	logging.Info("Control server listening",
		zap.String("addr", listener.Addr().String()),
		zap.Strings("projectors", s.names),
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown requested, stopping server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown gracefully shuts down the server and releases all serial ports
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.mu.Lock()
	srv := s.httpServer
	for id, conn := range s.activeConns {
		logging.Debug("Closing websocket connection", zap.String("conn", id))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
	s.mu.Unlock()

	var err error
	if srv != nil {
		if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
			logging.Warn("Shutdown timeout, forcing close", zap.Error(shutdownErr))
			err = shutdownErr
		}
	}

	for _, name := range s.names {
		if closeErr := s.controllers[name].Close(); closeErr != nil {
			logging.Error("Error closing serial port",
				zap.String("projector", name),
				zap.Error(closeErr),
			)
		}
	}

	logging.Sync()
	return err
}

// GetActiveConnections returns the number of connected websocket clients
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

func (s *Server) trackConn(id string, conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeConns[id] = conn
}

func (s *Server) untrackConn(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activeConns, id)
}
