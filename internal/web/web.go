package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"dtpicker/internal/config"
	appLog "dtpicker/internal/log"
	"dtpicker/internal/render"
)

// Server serves the demo page and the picker action API.
type Server struct {
	cfg      *config.Config
	mux      *http.ServeMux
	now      func() time.Time
	renderer *render.Renderer
	page     *template.Template
	sessions *sessionStore
}

// embeddedStatic holds the page's script and stylesheet.
//
//go:embed all:static
var embeddedStatic embed.FS

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

type Option func(*Server)

// WithClock replaces time.Now for sessions, pickers and the sweeper.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		mux:      http.NewServeMux(),
		now:      time.Now,
		renderer: render.Must(),
		page:     template.Must(template.ParseFS(embeddedTemplates, "templates/*.tmpl")),
	}
	for _, o := range opts {
		o(s)
	}
	s.sessions = newSessionStore(cfg.SessionTTL.Std(), s.now)
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// StartSweeper expires idle sessions on cfg.SweepSchedule until ctx is done.
func (s *Server) StartSweeper(ctx context.Context) {
	s.sessions.startSweeper(ctx, s.cfg.SweepSchedule)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password counts as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="dtpicker", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer serves on cfg.Listen until ctx is canceled, then shuts down
// gracefully. The idle-session sweeper runs for the server's lifetime.
func StartServer(ctx context.Context, cfg *config.Config) error {
	s := NewServer(cfg)
	s.StartSweeper(ctx)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP server shutdown failed", err)
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)

	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("DELETE /api/sessions/{sid}", s.handleDeleteSession)
	s.mux.HandleFunc("GET /api/sessions/{sid}/pickers/{anchor}", s.handleState)
	s.mux.HandleFunc("POST /api/sessions/{sid}/pickers/{anchor}/actions", s.handleAction)
	s.mux.HandleFunc("GET /api/sessions/{sid}/pickers/{anchor}/selection.ics", s.handleSelectionICS)

	s.mux.Handle("GET /static/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// staticFileServer serves the embedded files under internal/web/static at
// /static/.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static files not available", http.StatusServiceUnavailable)
		})
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

type pageInput struct {
	Anchor string
	Label  string
	Mode   string
}

type pageData struct {
	SessionID string
	Inputs    []pageInput
}

// handleIndex starts a fresh session and renders one input per picker.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.create(s.cfg.Pickers)

	sess.mu.Lock()
	data := pageData{SessionID: sess.id}
	for _, anchor := range sess.order {
		data.Inputs = append(data.Inputs, pageInput{
			Anchor: anchor,
			Label:  sess.inputs[anchor].label,
			Mode:   sess.pickers[anchor].Mode().String(),
		})
	}
	sess.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.ExecuteTemplate(w, "index", data); err != nil {
		appLog.Error("failed to render index page", err, "session", sess.id)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
