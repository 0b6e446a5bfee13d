// internal/service/learning/aggregator.go

package learning

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"agentesocial/internal/domain/learning"
	"agentesocial/internal/domain/store"
	"agentesocial/internal/metrics"
)

// Result messages for windows without enough data
const (
	NoGrowthDataMessage     = "no analytics data for the period"
	InsufficientDataMessage = "insufficient data: at least %d content pieces are needed for analysis"
	notAvailable            = "N/A"
	recentSnapshots         = 5
	insightsFraction        = 5
)

// Config contains configuration for the learning aggregator
type Config struct {
	ContentLimit      int
	TopN              int
	GrowthDays        int
	MinInsightsSample int

	// Clock overrides time.Now, mainly for tests
	Clock func() time.Time
}

// Service implements the learning.Aggregator interface over a record store
type Service struct {
	store   store.Store
	metrics *metrics.Metrics
	logger  logrus.FieldLogger
	config  Config
}

// NewService creates a new learning aggregator. m may be nil.
func NewService(st store.Store, m *metrics.Metrics, logger logrus.FieldLogger, config Config) *Service {
	if config.ContentLimit <= 0 {
		config.ContentLimit = 50
	}
	if config.TopN <= 0 {
		config.TopN = 10
	}
	if config.GrowthDays <= 0 {
		config.GrowthDays = 30
	}
	if config.MinInsightsSample <= 0 {
		config.MinInsightsSample = 5
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	return &Service{
		store:   st,
		metrics: m,
		logger:  logger,
		config:  config,
	}
}

// AnalyzeContentPatterns builds the learning dashboard from the user's best
// content, their growth over the default window and derived recommendations.
func (s *Service) AnalyzeContentPatterns(ctx context.Context, userID, platform string) (*learning.LearningSnapshot, error) {
	defer s.metrics.ObserveSince("analyze_content_patterns", time.Now())

	if userID == "" {
		return nil, learning.ErrMissingUser
	}

	contents, err := s.fetchContent(ctx, userID, platform)
	if err != nil {
		return nil, err
	}

	if len(contents) == 0 {
		return &learning.LearningSnapshot{
			Patterns:        emptyPatterns(),
			Recommendations: []string{},
		}, nil
	}

	top := head(contents, s.config.TopN)
	low := tail(contents, s.config.TopN)

	patterns := &learning.Patterns{
		TopContentTypes: countField(top, func(c learning.ContentRecord) string { return c.ContentType }),
		TopTones:        countField(top, func(c learning.ContentRecord) string { return c.Tone }),
		LowContentTypes: countField(low, func(c learning.ContentRecord) string { return c.ContentType }),
		LowTones:        countField(low, func(c learning.ContentRecord) string { return c.Tone }),
		AvgLengthTop:    avgLength(top),
		AvgLengthLow:    avgLength(low),
		BestPostingDays: countField(top, func(c learning.ContentRecord) string { return c.PostedDay }),
		TotalAnalyzed:   len(contents),
	}

	growth, err := s.GetGrowthTrajectory(ctx, userID, platform, s.config.GrowthDays)
	if err != nil {
		return nil, err
	}

	return &learning.LearningSnapshot{
		Patterns:        patterns,
		Growth:          growth,
		Recommendations: learningRecommendations(patterns, len(top), growth),
	}, nil
}

// GetGrowthTrajectory summarizes the user's analytics snapshots over the trailing
// days. A non-positive days value uses the configured default window.
func (s *Service) GetGrowthTrajectory(ctx context.Context, userID, platform string, days int) (*learning.GrowthTrajectory, error) {
	if userID == "" {
		return nil, learning.ErrMissingUser
	}
	if days <= 0 {
		days = s.config.GrowthDays
	}

	since := s.config.Clock().Add(-time.Duration(days) * 24 * time.Hour)
	q := store.Query{
		Collection: store.CollectionAnalyticsSnapshots,
		Filters:    userFilters(userID, platform, store.Gte(colCreatedAt, since)),
		OrderBy:    &store.Order{Field: colCreatedAt},
	}

	records, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return &learning.GrowthTrajectory{
			Snapshots: []learning.Snapshot{},
			Message:   NoGrowthDataMessage,
		}, nil
	}

	snapshots := make([]learning.Snapshot, 0, len(records))
	for _, r := range records {
		snapshots = append(snapshots, decodeSnapshot(r))
	}

	first := snapshots[0]
	last := snapshots[len(snapshots)-1]

	var engagementSum float64
	var reachSum int64
	for _, snap := range snapshots {
		engagementSum += snap.EngagementRate
		reachSum += snap.Reach
	}
	n := float64(maxInt(len(snapshots), 1))

	return &learning.GrowthTrajectory{
		Snapshots: tailSnapshots(snapshots, recentSnapshots),
		Summary: &learning.GrowthSummary{
			PeriodDays:      days,
			TotalSnapshots:  len(snapshots),
			FollowersStart:  first.FollowersCount,
			FollowersEnd:    last.FollowersCount,
			FollowersChange: last.FollowersCount - first.FollowersCount,
			AvgEngagement:   round(engagementSum/n, 4),
			AvgReach:        int64(math.RoundToEven(float64(reachSum) / n)),
		},
	}, nil
}

// GetEngagementInsights compares the top and bottom fifth of the user's content
func (s *Service) GetEngagementInsights(ctx context.Context, userID, platform string) (*learning.EngagementInsights, error) {
	if userID == "" {
		return nil, learning.ErrMissingUser
	}

	contents, err := s.fetchContent(ctx, userID, platform)
	if err != nil {
		return nil, err
	}

	if len(contents) < s.config.MinInsightsSample {
		return &learning.EngagementInsights{
			Message: fmt.Sprintf(InsufficientDataMessage, s.config.MinInsightsSample),
		}, nil
	}

	cutoff := maxInt(1, len(contents)/insightsFraction)
	top := summarize(head(contents, cutoff))
	low := summarize(tail(contents, cutoff))

	bestType := notAvailable
	if len(top.ContentTypes) > 0 {
		bestType = top.ContentTypes[0].Value
	}

	return &learning.EngagementInsights{
		TopPerformers: top,
		LowPerformers: low,
		Recommendation: fmt.Sprintf(
			"Your best content tends to be of type %s. Focus more on that format.", bestType,
		),
	}, nil
}

// TopContent lists the user's highest scoring content, best first
func (s *Service) TopContent(ctx context.Context, userID, platform string, limit int) ([]learning.TopContentItem, error) {
	if userID == "" {
		return nil, learning.ErrMissingUser
	}
	if limit <= 0 {
		limit = s.config.TopN
	}

	q := store.Query{
		Collection: store.CollectionContentPieces,
		Columns:    topContentColumns,
		Filters:    userFilters(userID, platform),
		OrderBy:    &store.Order{Field: colEngagementScore, Desc: true},
		Limit:      limit,
	}

	records, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}

	items := make([]learning.TopContentItem, 0, len(records))
	for _, r := range records {
		items = append(items, decodeTopContent(r))
	}
	return items, nil
}

// SaveLearning stores a free-text insight. Any failure is logged and reported
// as a skipped save.
func (s *Service) SaveLearning(ctx context.Context, userID, learningType, insight string) learning.SaveResult {
	if userID == "" {
		s.metrics.CountLearningSave(learning.SaveStatusSkipped)
		return learning.SaveResult{Status: learning.SaveStatusSkipped, Reason: learning.ErrMissingUser.Error()}
	}

	record := store.Record{
		colID:           uuid.NewString(),
		colUserID:       userID,
		colLearningType: learningType,
		colInsight:      insight,
		colCreatedAt:    s.config.Clock().UTC(),
	}

	err := s.store.Insert(ctx, store.CollectionLearnings, record)
	s.metrics.CountStore(string(store.CollectionLearnings), err)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":       userID,
			"learning_type": learningType,
		}).Warn("Could not save learning")
		s.metrics.CountLearningSave(learning.SaveStatusSkipped)
		return learning.SaveResult{Status: learning.SaveStatusSkipped, Reason: err.Error()}
	}

	s.metrics.CountLearningSave(learning.SaveStatusSaved)
	return learning.SaveResult{Status: learning.SaveStatusSaved, LearningType: learningType}
}

func (s *Service) fetchContent(ctx context.Context, userID, platform string) ([]learning.ContentRecord, error) {
	records, err := s.query(ctx, store.Query{
		Collection: store.CollectionContentPieces,
		Filters:    userFilters(userID, platform),
		OrderBy:    &store.Order{Field: colEngagementScore, Desc: true},
		Limit:      s.config.ContentLimit,
	})
	if err != nil {
		return nil, err
	}
	return decodeContents(records), nil
}

// query runs q and wraps failures with learning.ErrStoreUnavailable
func (s *Service) query(ctx context.Context, q store.Query) ([]store.Record, error) {
	records, err := s.store.Query(ctx, q)
	s.metrics.CountStore(string(q.Collection), err)
	if err != nil {
		s.logger.WithError(err).WithField("collection", q.Collection).Error("Error querying store")
		return nil, fmt.Errorf("%w: error querying %s: %w", learning.ErrStoreUnavailable, q.Collection, err)
	}
	return records, nil
}

func userFilters(userID, platform string, extra ...store.Filter) []store.Filter {
	filters := []store.Filter{store.Eq(colUserID, userID)}
	filters = append(filters, extra...)
	if platform != "" {
		filters = append(filters, store.Eq(colPlatform, platform))
	}
	return filters
}

func emptyPatterns() *learning.Patterns {
	return &learning.Patterns{
		TopContentTypes: []learning.FieldCount{},
		TopTones:        []learning.FieldCount{},
		LowContentTypes: []learning.FieldCount{},
		LowTones:        []learning.FieldCount{},
		BestPostingDays: []learning.FieldCount{},
	}
}

func summarize(items []learning.ContentRecord) *learning.GroupSummary {
	var engagementSum float64
	for _, c := range items {
		engagementSum += c.EngagementScore
	}

	return &learning.GroupSummary{
		Count:         len(items),
		ContentTypes:  countField(items, func(c learning.ContentRecord) string { return c.ContentType }),
		Tones:         countField(items, func(c learning.ContentRecord) string { return c.Tone }),
		AvgLength:     avgLength(items),
		AvgEngagement: round(engagementSum/float64(maxInt(len(items), 1)), 2),
	}
}

// countField tallies a field's values, most frequent first; ties keep first appearance
func countField(items []learning.ContentRecord, field func(learning.ContentRecord) string) []learning.FieldCount {
	index := make(map[string]int)
	counts := make([]learning.FieldCount, 0)
	for _, c := range items {
		v := field(c)
		i, ok := index[v]
		if !ok {
			i = len(counts)
			index[v] = i
			counts = append(counts, learning.FieldCount{Value: v})
		}
		counts[i].Count++
	}

	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	return counts
}

// avgLength is the mean body length in characters, rounded half to even
func avgLength(items []learning.ContentRecord) int {
	if len(items) == 0 {
		return 0
	}
	total := 0
	for _, c := range items {
		total += utf8.RuneCountInString(c.Body)
	}
	return int(math.RoundToEven(float64(total) / float64(len(items))))
}

func head(items []learning.ContentRecord, n int) []learning.ContentRecord {
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

func tail(items []learning.ContentRecord, n int) []learning.ContentRecord {
	if n > len(items) {
		n = len(items)
	}
	return items[len(items)-n:]
}

func tailSnapshots(snapshots []learning.Snapshot, n int) []learning.Snapshot {
	if n > len(snapshots) {
		n = len(snapshots)
	}
	return snapshots[len(snapshots)-n:]
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
