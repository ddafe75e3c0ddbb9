// Package httpapi exposes the login reconciliation endpoint consumed by
// the upstream OAuth layer after it has verified the token exchange.
package httpapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/oktabridge/oktabridge/internal/reconcile"
)

// Reconciler runs one verified login attempt through the engine.
type Reconciler interface {
	Run(ctx context.Context, claims reconcile.Claims) (reconcile.LoginResult, error)
}

// Server is the HTTP server wrapper.
type Server struct {
	h *Handlers
	e *echo.Echo
}

// NewServer creates a new HTTP server around the login reconciler.
// defaultProvider fills the provider claim when the caller omits it.
func NewServer(rec Reconciler, defaultProvider string) *Server {
	h := &Handlers{Reconciler: rec, DefaultProvider: defaultProvider}
	s := &Server{h: h, e: echo.New()}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.e.GET("/healthz", s.h.HandleHealthz)
	s.e.POST("/auth/okta/callback", s.h.HandleOktaCallback)
}

// Handler exposes the router as a plain http.Handler.
func (s *Server) Handler() http.Handler {
	return s.e
}

// StartServer serves the API through the provided http.Server. The caller
// owns the server and is responsible for shutting it down.
func (s *Server) StartServer(server *http.Server) error {
	server.Handler = s.e
	return server.ListenAndServe()
}
