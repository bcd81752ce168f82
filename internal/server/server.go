package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/telavision/epgvault/api"
	"github.com/telavision/epgvault/internal/cache"
	"github.com/telavision/epgvault/internal/config"
	"github.com/telavision/epgvault/internal/models"
	"github.com/telavision/epgvault/internal/service"
	"github.com/telavision/epgvault/internal/store"
)

// Server holds dependencies for the HTTP read API.
type Server struct {
	store  store.Store
	cfg    *config.Config
	runner Runner
	cache  *cache.Redis // nil when Redis is not configured
	mux    *http.ServeMux
}

// Runner is the ingestion trigger surface the server needs.
// Satisfied by service.Runner.
type Runner interface {
	InFlight() bool
	Run(ctx context.Context, runID uuid.UUID) (*service.RunStats, error)
}

// New creates a Server and registers routes. runner and c may be nil
// when ingestion/Redis are not wired (tests).
func New(s store.Store, cfg *config.Config, runner Runner, c *cache.Redis) *Server {
	srv := &Server{store: s, cfg: cfg, runner: runner, cache: c, mux: http.NewServeMux()}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	// Channels
	s.mux.HandleFunc("GET /api/channels/{package}", s.handleChannelsByPackage)

	// Programs
	s.mux.HandleFunc("GET /api/programs", s.handleUpcomingPrograms)
	s.mux.HandleFunc("GET /api/programs/current", s.handleCurrentProgram)
	s.mux.HandleFunc("GET /api/programs/tonight", s.handleTonightProgram)
	s.mux.HandleFunc("GET /api/programs/search", s.handleSearchPrograms)

	// Ingestion
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)

	// Docs
	s.mux.HandleFunc("GET /api/docs", handleSwaggerUI)
	s.mux.HandleFunc("GET /api/docs/openapi.yaml", handleOpenAPISpec)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.cfg.ServerPort
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      withCORS(withLogging(s)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

// --- handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChannelsByPackage(w http.ResponseWriter, r *http.Request) {
	pkg := r.PathValue("package")
	channels, err := s.store.ListChannels(r.Context(), pkg)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if channels == nil {
		channels = []models.Channel{}
	}
	writeJSON(w, http.StatusOK, channels)
}

func (s *Server) handleUpcomingPrograms(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channelId")
	if channelID == "" {
		// Missing channel id is answered with an empty list, not an error.
		writeJSON(w, http.StatusOK, []models.Program{})
		return
	}
	programs, err := s.store.UpcomingPrograms(r.Context(), channelID, time.Now())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if programs == nil {
		programs = []models.Program{}
	}
	writeJSON(w, http.StatusOK, programs)
}

func (s *Server) handleCurrentProgram(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channelId")
	if channelID == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	program, err := s.store.CurrentProgram(r.Context(), channelID, time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErr(w, http.StatusNotFound, fmt.Errorf("no program currently on air for channel %s", channelID))
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, program)
}

func (s *Server) handleTonightProgram(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channelId")
	if channelID == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	after := tonightReference(time.Now())
	program, err := s.store.TonightProgram(r.Context(), channelID, after, s.cfg.TonightMinDuration)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErr(w, http.StatusNotFound, fmt.Errorf("no program tonight for channel %s", channelID))
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, program)
}

func (s *Server) handleSearchPrograms(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	// Malformed queries are "no results", never an error.
	if query == "" || !store.ValidSearchQuery(query) {
		writeJSON(w, http.StatusOK, []models.Program{})
		return
	}
	programs, err := s.store.SearchPrograms(r.Context(), query)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if programs == nil {
		programs = []models.Program{}
	}
	writeJSON(w, http.StatusOK, programs)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("ingestion is not configured"))
		return
	}
	if s.runner.InFlight() {
		writeErr(w, http.StatusConflict, fmt.Errorf("an ingestion run is already in flight"))
		return
	}

	runID := uuid.New()

	// Queue the job when Redis is available so the worker picks it up;
	// otherwise run in the background with a detached context, since a
	// full run far exceeds the HTTP write timeout.
	if s.cache != nil {
		job := cache.IngestJob{RunID: runID, Trigger: "refresh", RequestedAt: time.Now().UTC()}
		if err := cache.Enqueue(r.Context(), s.cache, cache.IngestQueue, job); err != nil {
			writeErr(w, http.StatusInternalServerError, fmt.Errorf("enqueue ingest job: %w", err))
			return
		}
	} else {
		go func() {
			if _, err := s.runner.Run(context.Background(), runID); err != nil {
				log.Printf("ERROR ingest[%s]: %v", runID, err)
			}
		}()
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"run_id": runID})
}

// tonightReference returns 20:30 local time on the same day as now.
func tonightReference(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 20, 30, 0, 0, now.Location())
}

// --- middleware ---

// withCORS adds CORS headers to every response and handles preflight OPTIONS requests.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// withLogging wraps a handler and logs each request with method, path, status, and duration.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		statusCode := sw.status

		// Color the status code for terminal readability.
		statusColor := colorForStatus(statusCode)
		methodColor := colorForMethod(r.Method)

		log.Printf("%s %-7s %s\x1b[0m  %s %3d %s\x1b[0m  %s",
			methodColor, r.Method, "\x1b[0m",
			statusColor, statusCode, "\x1b[0m",
			formatDuration(duration),
		)
		if r.URL.RawQuery != "" {
			log.Printf("         %s?%s", r.URL.Path, r.URL.RawQuery)
		} else {
			log.Printf("         %s", r.URL.Path)
		}
	})
}

func colorForStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "\x1b[32m" // green
	case code >= 300 && code < 400:
		return "\x1b[36m" // cyan
	case code >= 400 && code < 500:
		return "\x1b[33m" // yellow
	default:
		return "\x1b[31m" // red
	}
}

func colorForMethod(method string) string {
	switch method {
	case http.MethodGet:
		return "\x1b[36m" // cyan
	case http.MethodPost:
		return "\x1b[32m" // green
	default:
		return "\x1b[37m" // white
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dus", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

// --- helpers ---

// APIError is the standard error envelope for all error responses.
type APIError struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON: %v", err)
	}
}

func writeErr(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		log.Printf("ERROR %d: %v", status, err)
	}
	writeJSON(w, status, APIError{
		Status: status,
		Error:  http.StatusText(status),
		Detail: err.Error(),
	})
}

// --- docs handlers ---

func handleOpenAPISpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(api.OpenAPISpec)
}

func handleSwaggerUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, swaggerUIHTML)
}

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>EPGVault API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
  <style>html{box-sizing:border-box;overflow-y:scroll}*,*:before,*:after{box-sizing:inherit}body{margin:0;background:#fafafa}</style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "/api/docs/openapi.yaml",
      dom_id: "#swagger-ui",
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: "BaseLayout",
    });
  </script>
</body>
</html>`
