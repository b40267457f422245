package http

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dispatcher/frontend/gate"
	"dispatcher/frontend/orders"
	"dispatcher/infrastructure/audit"
	"dispatcher/infrastructure/cache"
	"dispatcher/infrastructure/events"
	"dispatcher/infrastructure/kvstore"
	"dispatcher/infrastructure/orderstore"
)

//go:embed assets/*
var assets embed.FS

var ShutdownTimeout = 2 * time.Second

// OperatorHeader names the person working the handheld; it is recorded on audit entries.
const OperatorHeader = "X-Operator"

// ERP is the remote API surface the routes call directly.
type ERP interface {
	orders.Remote
	gate.Submitter
}

type Deps struct {
	KV      kvstore.Store
	Orders  *orderstore.Store
	ERP     ERP
	Sync    orders.Syncer
	History orders.History
	Hub     *events.Hub
}

// Server bundles dependencies and route wiring.
type Server struct {
	Addr   string
	ln     net.Listener
	server *http.Server
	router *chi.Mux

	KV        kvstore.Store
	Orders    *orderstore.Store
	ERP       ERP
	Summaries *cache.SummaryCache
	Sync      orders.Syncer
	History   orders.History
	Hub       *events.Hub
}

// NewServer creates a new http server.
func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		Addr:    addr,
		router:  chi.NewRouter(),
		KV:      deps.KV,
		Orders:  deps.Orders,
		ERP:     deps.ERP,
		Sync:    deps.Sync,
		History: deps.History,
		Hub:     deps.Hub,
		server: &http.Server{
			MaxHeaderBytes:    1 << 20,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	if deps.ERP != nil {
		s.Summaries = cache.NewSummaryCache(deps.ERP)
	}

	// Secure headers first.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			next.ServeHTTP(w, r)
		})
	})

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(OperatorMiddleware)

	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Hub != nil {
		// The websocket route stays outside Compress, which would hide the Hijacker.
		s.router.Handle("/ws", s.Hub)
	}

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))

		var assetsFS fs.FS = assets
		if sub, err := fs.Sub(assets, "assets"); err == nil {
			assetsFS = sub
		} else {
			slog.Error("assets subfs init failed; serving fallback fs", slog.Any("err", err))
		}
		r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))

		s.RegisterOrderRoutes(r)
		s.RegisterGateRoutes(r)
	})

	s.server.Handler = s.router
	return s
}

// OperatorMiddleware tags the request context with the operator so audit entries name them.
func OperatorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if op := strings.TrimSpace(r.Header.Get(OperatorHeader)); op != "" {
			r = r.WithContext(audit.WithActor(r.Context(), op))
		}
		next.ServeHTTP(w, r)
	})
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	var err error
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	go func() {
		if err := s.server.Serve(s.ln); err != nil && err != http.ErrServerClosed {
			slog.Error("http server stopped", slog.Any("err", err))
		}
	}()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.ln == nil {
		return fmt.Errorf("HTTP server has not been started or is already stopped")
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %v", err)
	}
	s.ln = nil
	return nil
}
