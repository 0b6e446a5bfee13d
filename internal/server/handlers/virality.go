// internal/server/handlers/virality.go

package handlers

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"agentesocial/internal/domain/virality"
	"agentesocial/internal/service/scoring"
)

// ViralityHandler handles scoring and pattern detection requests
type ViralityHandler struct {
	analyzer virality.Analyzer
	logger   logrus.FieldLogger
}

// NewViralityHandler creates a new virality handler
func NewViralityHandler(analyzer virality.Analyzer, logger logrus.FieldLogger) *ViralityHandler {
	return &ViralityHandler{
		analyzer: analyzer,
		logger:   logger,
	}
}

type batchRequest struct {
	Items []virality.Item `json:"items"`
}

type batchResponse struct {
	Results []virality.Result `json:"results"`
}

// Score scores a single content item. Counters may be string-encoded.
func (h *ViralityHandler) Score(w http.ResponseWriter, r *http.Request) {
	var item virality.Item
	if err := decodeBody(r, &item); err != nil {
		respondWithError(w, r, h.logger, http.StatusBadRequest, err.Error(), nil)
		return
	}

	sample, err := scoring.ParseItem(0, item, time.Now())
	if err != nil {
		respondWithError(w, r, h.logger, http.StatusBadRequest, err.Error(), nil)
		return
	}

	result := h.analyzer.Score(r.Context(), sample.ScoreInput)
	result.ContentID = sample.ID
	respondWithJSON(w, http.StatusOK, result)
}

// Classify scores and classifies a content batch, best first
func (h *ViralityHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, h.logger, http.StatusBadRequest, err.Error(), nil)
		return
	}

	results := h.analyzer.ClassifyBatch(r.Context(), req.Items)
	if results == nil {
		results = []virality.Result{}
	}
	respondWithJSON(w, http.StatusOK, batchResponse{Results: results})
}

// Patterns mines a content batch for trending patterns
func (h *ViralityHandler) Patterns(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, h.logger, http.StatusBadRequest, err.Error(), nil)
		return
	}

	respondWithJSON(w, http.StatusOK, h.analyzer.DetectPatterns(r.Context(), req.Items))
}
