// Package httpapi is the thin HTTP adapter in front of the pipeline. It
// parses and validates requests, normalizes the context, and maps errors to
// status codes; all recommendation semantics live in the usecase layer.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"SlateBuilder/internal/domain"
	"SlateBuilder/internal/usecase"
)

// Server exposes the pipeline and ingest operations over HTTP.
type Server struct {
	pipeline *usecase.Pipeline
	saver    *usecase.Saver
	defaultK int
	maxK     int
	now      func() time.Time
	logger   *slog.Logger
}

// NewServer wires handlers to the use cases.
func NewServer(pipeline *usecase.Pipeline, saver *usecase.Saver, defaultK, maxK int, logger *slog.Logger) *Server {
	if defaultK <= 0 {
		defaultK = 10
	}
	if maxK <= 0 {
		maxK = 50
	}
	return &Server{
		pipeline: pipeline,
		saver:    saver,
		defaultK: defaultK,
		maxK:     maxK,
		now:      time.Now,
		logger:   logger,
	}
}

// Router assembles the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/recommend", s.handleRecommend)
	r.Post("/items", s.handleSaveItem)
	r.Post("/events", s.handleRecordOpen)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type recommendRequest struct {
	UserID  string     `json:"userId"`
	K       int        `json:"k"`
	Context RawContext `json:"context"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if req.K < 0 {
		writeError(w, http.StatusBadRequest, "k must be positive")
		return
	}

	k := req.K
	if k == 0 {
		k = s.defaultK
	}
	if k > s.maxK {
		k = s.maxK
	}

	result, err := s.pipeline.BuildSlate(r.Context(), domain.SlateRequest{
		UserID:  req.UserID,
		K:       k,
		Context: NormalizeContext(req.Context, s.now()),
	})
	if err != nil {
		s.error("build slate failed", "user", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "slate build failed")
		return
	}

	if result.Items == nil {
		result.Items = []domain.SlateItemResult{}
	}
	writeJSON(w, http.StatusOK, result)
}

type saveItemRequest struct {
	UserID string `json:"userId"`
	URL    string `json:"url"`
}

func (s *Server) handleSaveItem(w http.ResponseWriter, r *http.Request) {
	var req saveItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.URL == "" {
		writeError(w, http.StatusBadRequest, "userId and url are required")
		return
	}

	item, err := s.saver.SaveItem(r.Context(), req.UserID, req.URL)
	if err != nil {
		s.error("save item failed", "user", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     item.ID,
		"domain": item.Domain,
		"title":  item.Title,
	})
}

type recordOpenRequest struct {
	UserID    string `json:"userId"`
	ContentID string `json:"contentId"`
}

func (s *Server) handleRecordOpen(w http.ResponseWriter, r *http.Request) {
	var req recordOpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.ContentID == "" {
		writeError(w, http.StatusBadRequest, "userId and contentId are required")
		return
	}

	if err := s.saver.RecordOpen(r.Context(), req.UserID, req.ContentID); err != nil {
		s.error("record open failed", "user", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "record failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) error(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
