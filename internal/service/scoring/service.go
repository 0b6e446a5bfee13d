// internal/service/scoring/service.go

package scoring

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"agentesocial/internal/domain/virality"
	"agentesocial/internal/metrics"
)

// ServiceConfig contains configuration for the scoring service
type ServiceConfig struct {
	Workers           int
	ParallelThreshold int

	// Clock overrides time.Now, mainly for tests
	Clock func() time.Time
}

// Service implements the virality.Analyzer interface
type Service struct {
	config        ServiceConfig
	publisher     virality.Publisher
	metrics       *metrics.Metrics
	logger        logrus.FieldLogger
	viralHandlers []func(virality.Result) error
	mu            sync.RWMutex
}

// NewService creates a new scoring service. publisher and m may be nil.
func NewService(
	publisher virality.Publisher,
	m *metrics.Metrics,
	logger logrus.FieldLogger,
	config ServiceConfig,
) *Service {
	if config.Clock == nil {
		config.Clock = time.Now
	}

	return &Service{
		config:    config,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Score computes the virality of a single content item
func (s *Service) Score(ctx context.Context, in virality.ScoreInput) virality.Result {
	result := Score(in, s.config.Clock())
	s.observe(ctx, []virality.Result{result})
	return result
}

// ClassifyBatch scores every item, isolating per-item failures, best first
func (s *Service) ClassifyBatch(ctx context.Context, items []virality.Item) []virality.Result {
	defer s.metrics.ObserveSince("classify_batch", time.Now())

	results := ClassifyBatch(items, s.batchOptions())
	s.observe(ctx, results)
	return results
}

// DetectPatterns derives aggregate insights from a batch of items
func (s *Service) DetectPatterns(ctx context.Context, items []virality.Item) *virality.TrendReport {
	defer s.metrics.ObserveSince("detect_patterns", time.Now())

	if len(items) == 0 {
		return virality.EmptyReport(EmptyBatchMessage)
	}

	classified := ClassifyBatch(items, s.batchOptions())
	s.observe(ctx, classified)
	return BuildReport(classified)
}

// RegisterViralHandler registers a callback invoked for every viral item found
func (s *Service) RegisterViralHandler(handler func(virality.Result) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viralHandlers = append(s.viralHandlers, handler)
}

func (s *Service) batchOptions() BatchOptions {
	return BatchOptions{
		Now:               s.config.Clock(),
		Workers:           s.config.Workers,
		ParallelThreshold: s.config.ParallelThreshold,
	}
}

// observe records metrics and announces viral results. Failures here are logged only.
func (s *Service) observe(ctx context.Context, results []virality.Result) {
	for _, r := range results {
		s.metrics.CountScored(string(r.Classification))

		if r.Classification == virality.ClassError {
			s.logger.WithFields(logrus.Fields{
				"content_id": r.ContentID,
				"error":      r.Error,
			}).Warn("Error classifying content item")
			continue
		}

		if !r.Classification.IsViral() {
			continue
		}

		if s.publisher != nil {
			if err := s.publisher.PublishViral(ctx, r); err != nil {
				s.logger.WithError(err).WithField("content_id", r.ContentID).Warn("Error publishing viral content event")
			}
		}

		s.callViralHandlers(r)
	}
}

// callViralHandlers calls all registered viral handlers
func (s *Service) callViralHandlers(r virality.Result) {
	s.mu.RLock()
	handlers := make([]func(virality.Result) error, len(s.viralHandlers))
	copy(handlers, s.viralHandlers)
	s.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(r); err != nil {
			s.logger.WithError(err).Warn("Error in viral handler")
		}
	}
}
