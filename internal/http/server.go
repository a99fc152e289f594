package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "finboard/internal/log"
	"finboard/internal/middleware/ratelimit"
	"finboard/internal/middleware/security"
	"finboard/internal/middleware/trace"
)

// Server is an http.Server with the shared middleware stack and shutdown
// hooks for the goroutines that stack owns.
type Server struct {
	http.Server
	logger   *applog.Logger
	clientIP *security.ClientIP
	tracer   *trace.Middleware

	onShutdown   []func()
	shutdownOnce sync.Once
}

func newServer(addr string, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.Discard()
	}
	clientIP := security.NewClientIP()
	return &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:   logger.WithComponent(applog.ComponentHTTP),
		clientIP: clientIP,
		tracer:   trace.NewMiddleware(logger, clientIP.Extract),
	}
}

// wrap installs handler behind tracing, security headers and, when limiter
// is set, POST rate limiting.
func (s *Server) wrap(handler http.Handler, headers security.HeadersConfig, limiter *ratelimit.Limiter) {
	if limiter != nil {
		handler = limiter.Middleware(s.clientIP.Extract, http.MethodPost)(handler)
		s.onShutdown = append(s.onShutdown, limiter.Stop)
	}
	handler = security.NewHeadersMiddleware(headers).Middleware(handler)
	s.Handler = s.tracer.Middleware(handler)
}

// Metrics exposes the request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		// Hooks run first so long-lived streams end before connections drain.
		for _, fn := range s.onShutdown {
			fn()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readyHandler answers 200 "ready" while check passes and 503 otherwise.
func readyHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err.Error())
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}
