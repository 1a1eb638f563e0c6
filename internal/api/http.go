package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miradorstack/mirador-kb/internal/models"
)

// HTTPHandler serves the read-mostly admin API.
type HTTPHandler struct {
	kb       KnowledgeBase
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// NewHTTPHandler constructs the admin API. A nil gatherer uses the default registry.
func NewHTTPHandler(logger *slog.Logger, kb KnowledgeBase, gatherer prometheus.Gatherer) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &HTTPHandler{kb: kb, logger: logger, gatherer: gatherer}
}

// Router builds the chi router.
func (h *HTTPHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	r.Route("/v1/projects/{project}", func(r chi.Router) {
		r.Get("/stats", h.stats)
		r.Get("/incidents", h.searchIncidents)
		r.Get("/incidents/{id}", h.getIncident)
		r.Get("/patterns", h.listPatterns)
		r.Post("/analyze", h.analyze)
	})
	return r
}

func (h *HTTPHandler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.kb.Stats(r.Context(), chi.URLParam(r, "project"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Stats: stats})
}

func (h *HTTPHandler) searchIncidents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.SearchFilter{
		Type:     models.IncidentType(q.Get("type")),
		Status:   models.IncidentStatus(q.Get("status")),
		Severity: models.Severity(q.Get("severity")),
		Tags:     q["tag"],
		Query:    q.Get("q"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be an integer"})
			return
		}
		filter.Limit = limit
	}

	found, err := h.kb.SearchIncidents(r.Context(), chi.URLParam(r, "project"), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, incidentsResponse{Incidents: found})
}

func (h *HTTPHandler) getIncident(w http.ResponseWriter, r *http.Request) {
	incident, err := h.kb.GetIncident(r.Context(), chi.URLParam(r, "project"), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, incidentResponse{Incident: incident})
}

func (h *HTTPHandler) listPatterns(w http.ResponseWriter, r *http.Request) {
	all, err := h.kb.ListPatterns(r.Context(), chi.URLParam(r, "project"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patternsResponse{Patterns: all})
}

func (h *HTTPHandler) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	req.Project = chi.URLParam(r, "project")

	result, err := analyze(r.Context(), h.kb, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse{Result: result})
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	code := HTTPStatus(err)
	if code == http.StatusInternalServerError {
		h.logger.Error("request failed", slog.Any("error", err))
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
