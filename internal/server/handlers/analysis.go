// internal/server/handlers/analysis.go

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"agentesocial/internal/domain/store"
	"agentesocial/internal/service/analysis"
)

// ViralLister lists stored viral content and platform benchmarks
type ViralLister interface {
	ListViral(ctx context.Context, filter analysis.ViralFilter) ([]store.Record, error)
	Benchmarks(platform, niche, accountSize string) (*analysis.BenchmarkReport, error)
}

// AnalysisHandler handles viral listing and benchmark requests
type AnalysisHandler struct {
	service ViralLister
	logger  logrus.FieldLogger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service ViralLister, logger logrus.FieldLogger) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		logger:  logger,
	}
}

// ListViral returns stored content at or above the virality threshold
func (h *AnalysisHandler) ListViral(w http.ResponseWriter, r *http.Request) {
	filter := analysis.ViralFilter{
		Platform: r.URL.Query().Get("platform"),
		Niche:    r.URL.Query().Get("niche"),
	}

	if raw := r.URL.Query().Get("min_score"); raw != "" {
		minScore, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondWithError(w, r, h.logger, http.StatusBadRequest, "Invalid min_score", nil)
			return
		}
		filter.MinScore = minScore
	}

	records, err := h.service.ListViral(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "Failed to list viral content", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"items": records,
		"total": len(records),
	})
}

// Benchmarks returns engagement reference ranges for a platform
func (h *AnalysisHandler) Benchmarks(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Benchmarks(
		chi.URLParam(r, "platform"),
		r.URL.Query().Get("niche"),
		r.URL.Query().Get("account_size"),
	)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "Failed to get benchmarks", err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}
