package infra

import (
	"context"
	"net/http"
	"time"
)

// HTTPServer runs the API with the timeouts from Config. Generation runs
// execute off-request, so the handler timeouts stay short; only the shutdown
// grace period needs room for in-flight replies.
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer builds the server on the configured port. It does not start
// listening.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	return &HTTPServer{server: &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}}
}

// Start listens and blocks until the listener closes. Returns
// http.ErrServerClosed after a graceful Shutdown.
func (s *HTTPServer) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown stops accepting connections and drains in-flight requests until
// ctx expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
