package server

import (
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"accentscan/internal/api"
	"accentscan/internal/download"
	"accentscan/internal/history"
	"accentscan/internal/logging"
	"accentscan/internal/preflight"
	"accentscan/internal/services"
)

//go:embed static/index.html
var indexHTML []byte

const (
	blankURLMessage = "Please enter a valid YouTube video URL."
	busyMessage     = "Another analysis is already running. Please wait for it to finish."

	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
	maxRequestBytes     = 16 << 10
)

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req api.AnalyzeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "warning", "Request body must be JSON like {\"url\": \"...\"}.", "")
		return
	}
	source := strings.TrimSpace(req.URL)
	if source == "" {
		s.writeError(w, http.StatusBadRequest, "warning", blankURLMessage, "")
		return
	}
	// Local paths are a CLI convenience; the page only analyzes remote videos.
	if _, err := download.ParseURL(source); err != nil {
		s.writeError(w, http.StatusBadRequest, "warning", blankURLMessage, "")
		return
	}

	if !s.busy.CompareAndSwap(false, true) {
		s.writeError(w, http.StatusTooManyRequests, "warning", busyMessage, "")
		return
	}
	defer s.busy.Store(false)

	report, err := s.analyzer.Analyze(r.Context(), source, nil)
	if err != nil {
		status, level := errorStatus(err)
		s.writeError(w, status, level, services.UserMessage(err), report.RunID)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromReport(report))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeJSON(w, http.StatusOK, api.HistoryResponse{Items: []api.HistoryEntry{}})
		return
	}
	query := r.URL.Query()
	limit := defaultHistoryLimit
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "warning", "limit must be a positive integer", "")
			return
		}
		limit = min(parsed, maxHistoryLimit)
	}
	var statuses []history.Status
	for _, value := range query["status"] {
		if strings.TrimSpace(value) == "" {
			continue
		}
		status, ok := history.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "warning", "unknown status "+strconv.Quote(value), "")
			return
		}
		statuses = append(statuses, status)
	}

	entries, err := s.history.List(r.Context(), limit, statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "error", err.Error(), "")
		return
	}
	summary, err := s.history.Summary(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "error", err.Error(), "")
		return
	}
	s.writeJSON(w, http.StatusOK, api.HistoryResponse{
		Items:   api.FromHistoryEntries(entries, false),
		Summary: api.FromSummary(summary),
	})
}

func (s *Server) handleHistoryItem(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, "warning", "history is disabled", "")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "warning", "invalid history id", "")
		return
	}
	entry, err := s.history.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "error", err.Error(), "")
		return
	}
	if entry == nil {
		s.writeError(w, http.StatusNotFound, "warning", "history entry not found", "")
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromHistoryEntry(entry))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	payload := api.Status{
		Busy:           s.busy.Load(),
		Transcriber:    s.analyzer.TranscriberName(),
		Classifier:     s.analyzer.ClassifierName(),
		HistoryEnabled: s.history != nil,
		LockFilePath:   s.cfg.LockPath(),
		Dependencies:   api.FromDependencies(preflight.CheckSystemDeps(s.cfg)),
	}
	if s.history != nil {
		payload.HistoryDBPath = s.cfg.HistoryDBPath()
	}
	s.writeJSON(w, http.StatusOK, payload)
}

// errorStatus maps a pipeline error to an HTTP status and message level.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrNotFound):
		return http.StatusUnprocessableEntity, "warning"
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout, "error"
	case errors.Is(err, services.ErrExternalTool):
		return http.StatusBadGateway, "error"
	default:
		return http.StatusInternalServerError, "error"
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, level, message, runID string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message, Level: level, RunID: runID})
}
