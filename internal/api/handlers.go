// Package api exposes HTTP handlers for the focus service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"example.com/focus/internal/auth"
	"example.com/focus/internal/domain"
	"example.com/focus/internal/ingest"
	"example.com/focus/internal/refresh"
)

// UsageRecorder persists raw usage batches submitted over HTTP.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, usage ingest.Usage) error
}

// RefreshController exposes the background refresh loop to the API.
type RefreshController interface {
	Status() refresh.Status
	SetEnabled(enabled bool)
}

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service   *domain.Service
	usage     UsageRecorder
	refresher RefreshController
}

// NewHandler builds a Handler. The refresher may be nil when the binary runs
// without a background loop.
func NewHandler(service *domain.Service, usage UsageRecorder, refresher RefreshController) *Handler {
	return &Handler{service: service, usage: usage, refresher: refresher}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/users/", h.userRoutes)
	mux.HandleFunc("/v1/refresh/status", h.refreshStatus)
	mux.HandleFunc("/v1/refresh/toggle", h.refreshToggle)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// userRoutes dispatches /v1/users/{id}/{operation}.
func (h *Handler) userRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, http.StatusNotFound, "not_found", "unknown route")
		return
	}
	userID, op := parts[0], parts[1]

	switch {
	case op == "focus-analysis" && r.Method == http.MethodGet:
		h.focusAnalysis(w, r, userID)
	case op == "analyze" && r.Method == http.MethodPost:
		h.analyze(w, r, userID)
	case op == "productivity-summary" && r.Method == http.MethodGet:
		h.productivitySummary(w, r, userID)
	case op == "quick-stats" && r.Method == http.MethodGet:
		h.quickStats(w, r, userID)
	case op == "usage" && r.Method == http.MethodPost:
		h.recordUsage(w, r, userID)
	case op == "focus-analysis" || op == "productivity-summary" || op == "quick-stats" || op == "analyze" || op == "usage":
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown route")
	}
}

func (h *Handler) focusAnalysis(w http.ResponseWriter, r *http.Request, userID string) {
	if !requireScope(w, r, auth.ScopeFocusRead, auth.ScopeFocusWrite) {
		return
	}

	analysis, err := h.service.Analyze(r.Context(), userID, r.URL.Query().Get("email"), requestDate(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request, userID string) {
	if !requireScope(w, r, auth.ScopeFocusWrite) {
		return
	}

	analysis, summary, merged, err := h.service.AnalyzeAndStore(r.Context(), userID, r.URL.Query().Get("email"), requestDate(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Analysis:          analysis,
		Summary:           summary,
		IncrementalUpdate: merged,
	})
}

func (h *Handler) productivitySummary(w http.ResponseWriter, r *http.Request, userID string) {
	if !requireScope(w, r, auth.ScopeFocusRead, auth.ScopeFocusWrite) {
		return
	}

	date := requestDate(r)
	summary, err := h.service.Summary(r.Context(), userID, r.URL.Query().Get("email"), date)
	if err != nil {
		// a day with no recorded usage is an empty summary, not an error
		if errors.Is(err, domain.ErrNoUsageData) {
			writeJSON(w, http.StatusOK, domain.ProductivitySummary{
				UserID:               userID,
				Date:                 date,
				ProductiveContent:    map[string]int{},
				NonProductiveContent: map[string]int{},
				DistractionApps:      map[string]int{},
			})
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) quickStats(w http.ResponseWriter, r *http.Request, userID string) {
	if !requireScope(w, r, auth.ScopeFocusRead, auth.ScopeFocusWrite) {
		return
	}

	stats, err := h.service.QuickStats(r.Context(), userID, r.URL.Query().Get("email"), requestDate(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// recordUsage accepts a raw tracker document ({appUsage, tabUsage} in any of
// the tolerated shapes) and persists the normalized records.
func (h *Handler) recordUsage(w http.ResponseWriter, r *http.Request, userID string) {
	if !requireScope(w, r, auth.ScopeFocusWrite) {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to read body")
		return
	}

	filter := ingest.Filter{
		UserID: userID,
		Email:  r.URL.Query().Get("email"),
		Date:   requestDate(r),
	}
	usage, err := ingest.ParseUsagePayload(body, filter)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse usage payload")
		return
	}
	if usage.Empty() {
		writeError(w, http.StatusBadRequest, "validation_failed", "no usable usage records in payload")
		return
	}

	if err := h.usage.RecordUsage(r.Context(), usage); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, RecordUsageResponse{
		Accepted: true,
		Apps:     len(usage.Apps),
		Tabs:     len(usage.Tabs),
	})
}

func (h *Handler) refreshStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !requireScope(w, r, auth.ScopeFocusRead, auth.ScopeFocusWrite) {
		return
	}
	if h.refresher == nil {
		writeError(w, http.StatusNotFound, "not_found", "background refresh not running")
		return
	}
	writeJSON(w, http.StatusOK, h.refresher.Status())
}

func (h *Handler) refreshToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !requireScope(w, r, auth.ScopeFocusWrite) {
		return
	}
	if h.refresher == nil {
		writeError(w, http.StatusNotFound, "not_found", "background refresh not running")
		return
	}

	var req RefreshToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	h.refresher.SetEnabled(req.Enabled)
	writeJSON(w, http.StatusOK, h.refresher.Status())
}

// requireScope enforces authentication plus at least one of the scopes,
// writing the error response itself when the check fails.
func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) bool {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return false
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
	return false
}

// requestDate returns the ?date= parameter, defaulting to today (UTC).
func requestDate(r *http.Request) string {
	if date := r.URL.Query().Get("date"); date != "" {
		return date
	}
	return time.Now().UTC().Format("2006-01-02")
}

func writeDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNoUsageData) {
		writeError(w, http.StatusNotFound, "no_data", "no usage data for user and date")
		return
	}
	writeError(w, http.StatusInternalServerError, "server_error", err.Error())
}

// AnalyzeResponse couples the per-request analysis with the merged stored
// summary.
type AnalyzeResponse struct {
	Analysis          domain.Analysis            `json:"analysis"`
	Summary           domain.ProductivitySummary `json:"summary"`
	IncrementalUpdate bool                       `json:"incremental_update"`
}

// RecordUsageResponse acknowledges a usage sync.
type RecordUsageResponse struct {
	Accepted bool `json:"accepted"`
	Apps     int  `json:"apps"`
	Tabs     int  `json:"tabs"`
}

// RefreshToggleRequest is the payload for POST /v1/refresh/toggle.
type RefreshToggleRequest struct {
	Enabled bool `json:"enabled"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
