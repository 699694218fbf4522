package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/actionsum/activetime/internal/database"
	"github.com/actionsum/activetime/internal/models"
	"github.com/actionsum/activetime/internal/reporter"
	"github.com/actionsum/activetime/internal/tracker"
)

// StatusSource is satisfied by *tracker.Tracker
type StatusSource interface {
	Status() tracker.Status
}

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	Tracker      tracker.Status `json:"tracker"`
	Date         string         `json:"date"`
	TodaySeconds float64        `json:"today_seconds"`
	TopApp       string         `json:"top_app,omitempty"`
	Degraded     bool           `json:"degraded"`
}

// UsageResponse is the body of GET /api/usage
type UsageResponse struct {
	Date         string            `json:"date"`
	Apps         []models.AppUsage `json:"apps"`
	TotalSeconds float64           `json:"total_seconds"`
}

type Handler struct {
	store    database.Store
	status   StatusSource
	reporter *reporter.Reporter
	loc      *time.Location
	now      func() time.Time
}

func NewHandler(store database.Store, status StatusSource, rep *reporter.Reporter, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		store:    store,
		status:   status,
		reporter: rep,
		loc:      loc,
		now:      time.Now,
	}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/api/usage", h.handleUsage)
	mux.HandleFunc("/api/range", h.handleRange)
	mux.HandleFunc("/api/report", h.handleReport)
	mux.HandleFunc("/api/browser", h.handleBrowser)
	mux.HandleFunc("/api/sessions", h.handleSessions)
	mux.HandleFunc("/api/errors", h.handleErrors)
	mux.HandleFunc("/api/clear", h.handleClear)

	mux.HandleFunc("/health", h.handleHealth)
}

func (h *Handler) today() string {
	return models.DateOf(h.now().In(h.loc))
}

// dateParam returns the date query parameter, defaulting to today
func (h *Handler) dateParam(r *http.Request) string {
	if date := r.URL.Query().Get("date"); date != "" {
		return date
	}
	return h.today()
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := StatusResponse{Date: h.today()}
	if h.status != nil {
		resp.Tracker = h.status.Status()
		resp.Degraded = resp.Tracker.Degraded
	}

	usage, err := h.store.QueryByDate(r.Context(), resp.Date)
	if err != nil {
		respondError(w, "Failed to get today's usage", err)
		return
	}
	for _, u := range usage {
		resp.TodaySeconds += u.TotalSeconds
	}
	if len(usage) > 0 {
		resp.TopApp = usage[0].AppName
	}

	respondJSON(w, resp)
}

func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date := h.dateParam(r)
	usage, err := h.store.QueryByDate(r.Context(), date)
	if err != nil {
		respondError(w, "Failed to get usage", err)
		return
	}

	resp := UsageResponse{Date: date, Apps: usage}
	for _, u := range usage {
		resp.TotalSeconds += u.TotalSeconds
	}
	respondJSON(w, resp)
}

func (h *Handler) handleRange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	from, to := query.Get("from"), query.Get("to")
	if from == "" || to == "" {
		http.Error(w, "from and to are required", http.StatusBadRequest)
		return
	}

	summaries, err := h.store.QueryRange(r.Context(), from, to)
	if err != nil {
		respondError(w, "Failed to get range", err)
		return
	}
	respondJSON(w, summaries)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	periodType := r.URL.Query().Get("period")
	if periodType == "" {
		periodType = "day"
	}

	period, err := h.reporter.Period(periodType, h.now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.reporter.ReportRange(r.Context(), *period, h.now())
	if err != nil {
		respondError(w, "Failed to generate report", err)
		return
	}

	respondJSON(w, report)
}

func (h *Handler) handleBrowser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	usage, err := h.store.QueryBrowserByDate(r.Context(), h.dateParam(r))
	if err != nil {
		respondError(w, "Failed to get browser usage", err)
		return
	}
	respondJSON(w, usage)
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessions, err := h.store.QuerySessions(r.Context(), h.dateParam(r))
	if err != nil {
		respondError(w, "Failed to get sessions", err)
		return
	}
	respondJSON(w, sessions)
}

func (h *Handler) handleErrors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	entries, err := h.store.RecentErrors(r.Context(), limit)
	if err != nil {
		respondError(w, "Failed to get errors", err)
		return
	}
	respondJSON(w, entries)
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := checkConfirmed(r); err != nil {
		log.Printf("Rejected clear request from %s: %v", r.RemoteAddr, err)
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	if err := h.store.ClearAll(r.Context()); err != nil {
		respondError(w, "Failed to clear data", err)
		return
	}

	log.Println("All tracking data cleared via API")
	respondJSON(w, map[string]string{"status": "cleared"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{
		"status": "healthy",
		"time":   h.now().Format(time.RFC3339),
	})
}

// respondError maps store failures to a status code: bad dates are the
// caller's fault, everything else is ours
func respondError(w http.ResponseWriter, msg string, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, database.ErrInvalidDate):
		code = http.StatusBadRequest
	case errors.Is(err, database.ErrCorrupt):
		code = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	}
	http.Error(w, fmt.Sprintf("%s: %v", msg, err), code)
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

// ConfirmHeader must be "yes" on destructive requests
const ConfirmHeader = "X-Activetime-Confirm"

// checkConfirmed rejects destructive requests that a web page could forge
func checkConfirmed(r *http.Request) error {
	if origin := r.Header.Get("Origin"); origin != "" {
		u, err := url.Parse(origin)
		if err != nil || u.Host != r.Host {
			return fmt.Errorf("cross-origin request from %q", origin)
		}
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errors.New("content type must be application/json")
	}
	if r.Header.Get(ConfirmHeader) != "yes" {
		return fmt.Errorf("missing %s header", ConfirmHeader)
	}
	return nil
}
