// Package server exposes the planner over HTTP: audit upload and parsing,
// catalog search, the chat assistant, and spreadsheet export.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/auditgrid/auditgrid/internal/chat"
	"github.com/auditgrid/auditgrid/internal/export"
	"github.com/auditgrid/auditgrid/internal/planner"
	"github.com/auditgrid/auditgrid/internal/search"
)

// Config holds the server's runtime settings.
type Config struct {
	Addr           string
	UploadDir      string
	SnapshotDir    string
	AllowedOrigins []string
}

// Server wires the HTTP boundary to the domain packages. Chat and export
// are optional; their routes answer 503 when unconfigured.
type Server struct {
	cfg      Config
	log      *zap.Logger
	catalog  *search.Catalog
	chat     *chat.Service
	exporter *export.Exporter
}

// New builds a server. A nil catalog disables search with a 503 instead of
// failing at startup.
func New(cfg Config, log *zap.Logger, catalog *search.Catalog, chatSvc *chat.Service, exporter *export.Exporter) *Server {
	return &Server{
		cfg:      cfg,
		log:      log,
		catalog:  catalog,
		chat:     chatSvc,
		exporter: exporter,
	}
}

// Handler builds the route table wrapped in CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /upload-degree-audit", s.handleUpload)
	mux.HandleFunc("GET /upload-degree-audit/parsed-files", s.handleListSnapshots)
	mux.HandleFunc("GET /upload-degree-audit/parsed-files/{filename}", s.handleGetSnapshot)
	mux.HandleFunc("POST /search-courses", s.handleSearch)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /api/export/google-sheets", s.handleExport)
	mux.HandleFunc("GET /api/export/health", s.handleExportHealth)
	return s.corsMiddleware(s.logMiddleware(mux))
}

// ListenAndServe runs the server until the listener fails.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("server listening", zap.String("addr", s.cfg.Addr))
	return srv.ListenAndServe()
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "server running",
		"service":   "auditgrid",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   "auditgrid",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type searchRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "course catalog not loaded")
		return
	}
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	results := s.catalog.Search(req.Query)
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		writeError(w, http.StatusServiceUnavailable, "chat service not configured")
		return
	}
	var req chat.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	reply, err := s.chat.Ask(r.Context(), req)
	if err != nil {
		s.log.Error("chat request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to process chat request")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": reply})
}

type exportRequest struct {
	Schedule    planner.Grid `json:"schedule"`
	YearLabels  []string     `json:"year_labels"`
	StudentName string       `json:"student_name"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "Google Sheets service is not available",
			"details": "service account credentials not configured",
		})
		return
	}
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Schedule) == 0 {
		writeError(w, http.StatusBadRequest, "schedule is required")
		return
	}

	result, err := s.exporter.Export(r.Context(), req.Schedule, req.YearLabels, req.StudentName)
	if err != nil {
		s.log.Error("sheets export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to export to Google Sheets")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"spreadsheet_id": result.SpreadsheetID,
		"url":            result.URL,
		"message":        "Schedule exported to Google Sheets successfully",
	})
}

func (s *Server) handleExportHealth(w http.ResponseWriter, _ *http.Request) {
	if s.exporter == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "unhealthy",
			"service": "google-sheets",
			"error":   "service account credentials not configured",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "google-sheets",
	})
}

// ── Middleware ────────────────────────────────────────────────────────────────

// corsMiddleware answers the preflight contract the web client expects.
// With no configured origins every origin is allowed.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(s.cfg.AllowedOrigins))
	for _, o := range s.cfg.AllowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case len(allowed) == 0:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		case origin != "":
			s.log.Warn("blocked origin", zap.String("origin", origin))
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// ── Response helpers ──────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encode failures after WriteHeader mean a dead connection; nothing to do.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
