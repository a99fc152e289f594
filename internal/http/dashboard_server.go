package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"finboard/internal/dashboard"
	applog "finboard/internal/log"
	"finboard/internal/middleware/security"
	appweb "finboard/web"
)

// DashboardStore is the part of dashboard.Store the server needs.
type DashboardStore interface {
	Load(ctx context.Context)
	Snapshot() dashboard.Snapshot
	Subscribe() (<-chan dashboard.Snapshot, func())
	Ready() bool
}

var errNotReady = errors.New("first dashboard load has not completed")

// DashboardServer renders the dashboard and exposes its state as JSON.
type DashboardServer struct {
	*Server
	store     DashboardStore
	templates *template.Template

	// refreshCtx outlives requests so a refresh finishes after its 202.
	refreshCtx    context.Context
	cancelRefresh context.CancelFunc
	refreshMu     sync.Mutex
	closing       bool
	refreshes     sync.WaitGroup

	heartbeat time.Duration
}

// NewDashboardServer configures routes and templates, returning a
// ready-to-run server.
func NewDashboardServer(addr string, store DashboardStore, logger *applog.Logger) (*DashboardServer, error) {
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mounting static files: %w", err)
	}

	refreshCtx, cancel := context.WithCancel(context.Background())
	s := &DashboardServer{
		Server:        newServer(addr, logger),
		store:         store,
		templates:     t,
		refreshCtx:    refreshCtx,
		cancelRefresh: cancel,
		heartbeat:     15 * time.Second,
	}

	mux := http.NewServeMux()
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/dashboard", s.handleSnapshot)
	mux.HandleFunc("/api/dashboard/refresh", s.handleRefresh)
	mux.HandleFunc("/api/dashboard/events", s.handleEvents)
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", readyHandler(func(context.Context) error {
		if !store.Ready() {
			return errNotReady
		}
		return nil
	}))

	s.wrap(mux, security.DefaultHeadersConfig(), nil)
	s.onShutdown = append(s.onShutdown, func() {
		s.refreshMu.Lock()
		s.closing = true
		s.refreshMu.Unlock()
		s.cancelRefresh()
		s.refreshes.Wait()
	})
	return s, nil
}

func (s *DashboardServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	data := toPageData(s.store.Snapshot())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		ctx := r.Context()
		applog.LogError(ctx, applog.FromContext(ctx), "Dashboard template execution failed", err,
			applog.ErrorTypeInternal, applog.OpRender, applog.NewFields())
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
	}
}

func (s *DashboardServer) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	NewJSONResponse().
		Header("Cache-Control", "no-store").
		Body(toDashboardJSON(s.store.Snapshot())).
		Write(w)
}

// handleRefresh starts a load and answers 202 without waiting for it.
func (s *DashboardServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	s.refreshMu.Lock()
	if s.closing {
		s.refreshMu.Unlock()
		ErrorResponse(http.StatusServiceUnavailable, "server is shutting down").Write(w)
		return
	}
	s.refreshes.Add(1)
	s.refreshMu.Unlock()

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Dashboard refresh requested",
		applog.FieldOperation, applog.OpRefresh)
	go func() {
		defer s.refreshes.Done()
		s.store.Load(s.refreshCtx)
	}()
	NewJSONResponse().Status(http.StatusAccepted).Body(map[string]string{"status": "refreshing"}).Write(w)
}

// handleEvents streams snapshots as Server-Sent Events. The subscription
// delivers the current state first, then one event per change.
func (s *DashboardServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		InternalServerError("streaming unsupported").Write(w)
		return
	}

	ctx := r.Context()
	logger := applog.FromContext(ctx)

	updates, cancel := s.store.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher.Flush()

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.refreshCtx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEvent(w, snap); err != nil {
				logger.DebugContext(ctx, "Event stream closed", applog.FieldError, err.Error())
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, snap dashboard.Snapshot) error {
	payload, err := json.Marshal(toDashboardJSON(snap))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload)
	return err
}
