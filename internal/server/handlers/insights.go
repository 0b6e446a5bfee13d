// internal/server/handlers/insights.go

package handlers

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"agentesocial/internal/adapter/cache"
	"agentesocial/internal/domain/learning"
)

// ResponseCache caches JSON responses by key
type ResponseCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// InsightsHandler handles learning dashboard requests
type InsightsHandler struct {
	aggregator    learning.Aggregator
	cache         ResponseCache
	logger        logrus.FieldLogger
	topContentMax int
}

// NewInsightsHandler creates a new insights handler. responses may be nil, in
// which case the dashboard is computed on every request.
func NewInsightsHandler(aggregator learning.Aggregator, responses ResponseCache, topContentMax int, logger logrus.FieldLogger) *InsightsHandler {
	return &InsightsHandler{
		aggregator:    aggregator,
		cache:         responses,
		logger:        logger,
		topContentMax: topContentMax,
	}
}

type saveLearningRequest struct {
	UserID       string `json:"user_id"`
	LearningType string `json:"learning_type"`
	Insight      string `json:"insight"`
}

// Dashboard returns the learning snapshot of a user
func (h *InsightsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	platform := r.URL.Query().Get("platform")
	if userID == "" {
		respondWithError(w, r, h.logger, http.StatusBadRequest, learning.ErrMissingUser.Error(), nil)
		return
	}

	key := cache.DashboardKey(userID, platform)
	if h.cache != nil {
		var cached learning.LearningSnapshot
		found, err := h.cache.GetJSON(r.Context(), key, &cached)
		if err != nil {
			h.logger.WithError(err).WithField("key", key).Warn("Error reading cached dashboard")
		}
		if found {
			w.Header().Set("X-Cache", "HIT")
			respondWithJSON(w, http.StatusOK, cached)
			return
		}
	}

	snapshot, err := h.aggregator.AnalyzeContentPatterns(r.Context(), userID, platform)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "Failed to build dashboard", err)
		return
	}

	if h.cache != nil {
		if err := h.cache.SetJSON(r.Context(), key, snapshot); err != nil {
			h.logger.WithError(err).WithField("key", key).Warn("Error caching dashboard")
		}
		w.Header().Set("X-Cache", "MISS")
	}

	respondWithJSON(w, http.StatusOK, snapshot)
}

// Growth returns the growth trajectory of a user
func (h *InsightsHandler) Growth(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 30)
	if err != nil {
		respondWithError(w, r, h.logger, http.StatusBadRequest, err.Error(), nil)
		return
	}

	growth, err := h.aggregator.GetGrowthTrajectory(r.Context(), r.URL.Query().Get("user_id"), r.URL.Query().Get("platform"), days)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "Failed to get growth trajectory", err)
		return
	}

	respondWithJSON(w, http.StatusOK, growth)
}

// Engagement compares a user's top and bottom performers
func (h *InsightsHandler) Engagement(w http.ResponseWriter, r *http.Request) {
	insights, err := h.aggregator.GetEngagementInsights(r.Context(), r.URL.Query().Get("user_id"), r.URL.Query().Get("platform"))
	if err != nil {
		respondWithServiceError(w, r, h.logger, "Failed to get engagement insights", err)
		return
	}

	respondWithJSON(w, http.StatusOK, insights)
}

// TopContent lists a user's best content by engagement score
func (h *InsightsHandler) TopContent(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		respondWithError(w, r, h.logger, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if limit < 1 {
		limit = 1
	}
	if h.topContentMax > 0 && limit > h.topContentMax {
		limit = h.topContentMax
	}

	items, err := h.aggregator.TopContent(r.Context(), r.URL.Query().Get("user_id"), r.URL.Query().Get("platform"), limit)
	if err != nil {
		respondWithServiceError(w, r, h.logger, "Failed to get top content", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// SaveLearning stores an insight and drops the user's cached dashboards
func (h *InsightsHandler) SaveLearning(w http.ResponseWriter, r *http.Request) {
	var req saveLearningRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, r, h.logger, http.StatusBadRequest, err.Error(), nil)
		return
	}

	result := h.aggregator.SaveLearning(r.Context(), req.UserID, req.LearningType, req.Insight)

	if result.Status == learning.SaveStatusSaved && h.cache != nil {
		if err := h.cache.DeletePrefix(r.Context(), cache.DashboardPrefix(req.UserID)); err != nil {
			h.logger.WithError(err).WithField("user_id", req.UserID).Warn("Error invalidating cached dashboards")
		}
	}

	respondWithJSON(w, http.StatusOK, result)
}
