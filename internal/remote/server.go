package remote

import (
	"context"
	"net/http"
	"time"
)

// Server wraps http.Server with startup and graceful shutdown helpers
type Server struct {
	server *http.Server
}

// NewServer creates a server on addr. The write timeout leaves room for a
// full composition on top of the request timeout.
func NewServer(addr string, handler http.Handler, compositionTimeout time.Duration) *Server {
	return &Server{server: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      compositionTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}}
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start runs the server in the current goroutine
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
