package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"agentesocial/internal/domain/store"
	"agentesocial/internal/metrics"
)

// ViralFilter narrows the stored viral content listing. A zero MinScore uses the
// configured default threshold.
type ViralFilter struct {
	Platform string
	Niche    string
	MinScore float64
}

// Config contains configuration for the analysis service
type Config struct {
	ViralMinScore float64
	ViralLimit    int
}

// Service serves stored viral content and platform benchmarks
type Service struct {
	store   store.Store
	metrics *metrics.Metrics
	logger  logrus.FieldLogger
	config  Config
}

// NewService creates a new analysis service. m may be nil.
func NewService(st store.Store, m *metrics.Metrics, logger logrus.FieldLogger, config Config) *Service {
	if config.ViralMinScore <= 0 {
		config.ViralMinScore = 70
	}
	if config.ViralLimit <= 0 {
		config.ViralLimit = 50
	}

	return &Service{
		store:   st,
		metrics: m,
		logger:  logger,
		config:  config,
	}
}

// ListViral returns stored viral content at or above the score threshold, best first
func (s *Service) ListViral(ctx context.Context, filter ViralFilter) ([]store.Record, error) {
	defer s.metrics.ObserveSince("list_viral", time.Now())

	minScore := filter.MinScore
	if minScore <= 0 {
		minScore = s.config.ViralMinScore
	}

	filters := []store.Filter{store.Gte("virality_score", minScore)}
	if filter.Platform != "" {
		filters = append(filters, store.Eq("platform", filter.Platform))
	}
	if filter.Niche != "" {
		filters = append(filters, store.Eq("niche", filter.Niche))
	}

	records, err := s.store.Query(ctx, store.Query{
		Collection: store.CollectionViralContent,
		Filters:    filters,
		OrderBy:    &store.Order{Field: "virality_score", Desc: true},
		Limit:      s.config.ViralLimit,
	})
	s.metrics.CountStore(string(store.CollectionViralContent), err)
	if err != nil {
		s.logger.WithError(err).Error("Error listing viral content")
		return nil, fmt.Errorf("%w: error querying viral content: %w", store.ErrUnavailable, err)
	}

	if records == nil {
		records = []store.Record{}
	}
	return records, nil
}

// Benchmarks returns platform reference data; see the package-level Benchmarks
func (s *Service) Benchmarks(platform, niche, accountSize string) (*BenchmarkReport, error) {
	return Benchmarks(platform, niche, accountSize)
}
