package http

import (
	"net/http"

	"github.com/benchwise/toolrec/internal/domain/recommend"
	"github.com/benchwise/toolrec/internal/port/source"
	"github.com/benchwise/toolrec/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Pipeline *service.PipelineService
	Sources  []source.Adapter
}

// CreateRecommendations handles POST /api/v1/recommendations.
func (h *Handlers) CreateRecommendations(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[recommend.Request](w, r)
	if !ok {
		return
	}

	resp, err := h.Pipeline.GetRecommendations(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// InvalidateRecommendation handles POST /api/v1/recommendations/invalidate.
// It drops the cached response for the request in the body, forcing the
// next identical request to recompute.
func (h *Handlers) InvalidateRecommendation(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[recommend.Request](w, r)
	if !ok {
		return
	}

	if err := h.Pipeline.InvalidateCache(r.Context(), &req); err != nil {
		writeInternalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearCache handles DELETE /api/v1/recommendations/cache.
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.Pipeline.ClearCache(r.Context()); err != nil {
		writeInternalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sourceHealth struct {
	Name    string `json:"name"`
	Breaker string `json:"breaker,omitempty"`
}

type healthResponse struct {
	Status  string         `json:"status"`
	Sources []sourceHealth `json:"sources"`
}

// Health handles GET /healthz. The service is degraded, not down, when
// some source breakers are open, so the endpoint always returns 200 and
// reports per-source breaker state for operators to inspect.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Sources: make([]sourceHealth, 0, len(h.Sources))}
	for _, a := range h.Sources {
		sh := sourceHealth{Name: a.Name()}
		if hr, ok := a.(source.HealthReporter); ok {
			sh.Breaker = hr.BreakerState()
			if sh.Breaker == "open" {
				resp.Status = "degraded"
			}
		}
		resp.Sources = append(resp.Sources, sh)
	}
	writeJSON(w, http.StatusOK, resp)
}
