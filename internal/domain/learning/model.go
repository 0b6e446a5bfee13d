package learning

import (
	"context"
	"errors"
	"time"

	"agentesocial/internal/domain/store"
)

// ContentRecord is a stored content piece, decoded from the store
type ContentRecord struct {
	ID              string
	Title           string
	Platform        string
	ContentType     string
	Tone            string
	Body            string
	PostedDay       string
	EngagementScore float64
	CreatedAt       time.Time
}

// Snapshot is a point-in-time record of an account's audience metrics
type Snapshot struct {
	Platform       string    `json:"platform"`
	FollowersCount int64     `json:"followers_count"`
	EngagementRate float64   `json:"engagement_rate"`
	Reach          int64     `json:"reach"`
	CreatedAt      time.Time `json:"created_at"`
}

// TopContentItem is a display row of a user's best content by engagement score
type TopContentItem struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Platform        string    `json:"platform"`
	ContentType     string    `json:"content_type"`
	EngagementScore float64   `json:"engagement_score"`
	CreatedAt       time.Time `json:"created_at"`
}

// FieldCount is the number of records sharing a field value
type FieldCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Patterns describes what separates top performers from low performers
type Patterns struct {
	TopContentTypes []FieldCount `json:"top_content_types"`
	TopTones        []FieldCount `json:"top_tones"`
	LowContentTypes []FieldCount `json:"low_content_types"`
	LowTones        []FieldCount `json:"low_tones"`
	AvgLengthTop    int          `json:"avg_length_top"`
	AvgLengthLow    int          `json:"avg_length_low"`
	BestPostingDays []FieldCount `json:"best_posting_days"`
	TotalAnalyzed   int          `json:"total_analyzed"`
}

// GrowthSummary aggregates analytics snapshots over a trailing window
type GrowthSummary struct {
	PeriodDays      int     `json:"period_days"`
	TotalSnapshots  int     `json:"total_snapshots"`
	FollowersStart  int64   `json:"followers_start"`
	FollowersEnd    int64   `json:"followers_end"`
	FollowersChange int64   `json:"followers_change"`
	AvgEngagement   float64 `json:"avg_engagement"`
	AvgReach        int64   `json:"avg_reach"`
}

// GrowthTrajectory is the growth summary plus the most recent snapshots.
// Summary is nil and Message set when the window holds no data.
type GrowthTrajectory struct {
	Snapshots []Snapshot     `json:"snapshots"`
	Summary   *GrowthSummary `json:"summary,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// HasData reports whether the trajectory was computed from at least one snapshot
func (g *GrowthTrajectory) HasData() bool {
	return g != nil && g.Summary != nil
}

// LearningSnapshot is the learning dashboard for a user
type LearningSnapshot struct {
	Patterns        *Patterns         `json:"patterns"`
	Growth          *GrowthTrajectory `json:"growth"`
	Recommendations []string          `json:"recommendations"`
}

// IsEmpty reports whether the snapshot was built from no content at all
func (s *LearningSnapshot) IsEmpty() bool {
	return s == nil || s.Patterns == nil || s.Patterns.TotalAnalyzed == 0
}

// GroupSummary describes one performance group in an insights comparison
type GroupSummary struct {
	Count         int          `json:"count"`
	ContentTypes  []FieldCount `json:"content_types"`
	Tones         []FieldCount `json:"tones"`
	AvgLength     int          `json:"avg_length"`
	AvgEngagement float64      `json:"avg_engagement"`
}

// EngagementInsights compares the top and bottom fifth of a user's content
type EngagementInsights struct {
	TopPerformers  *GroupSummary `json:"top_performers,omitempty"`
	LowPerformers  *GroupSummary `json:"low_performers,omitempty"`
	Recommendation string        `json:"recommendation,omitempty"`
	Message        string        `json:"message,omitempty"`
}

// Save outcomes
const (
	SaveStatusSaved   = "saved"
	SaveStatusSkipped = "skipped"
)

// SaveResult is the outcome of the best-effort learning side-channel
type SaveResult struct {
	Status       string `json:"status"`
	LearningType string `json:"learning_type,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// Common errors
var (
	ErrStoreUnavailable = store.ErrUnavailable
	ErrMissingUser      = errors.New("user id is required")
)

// Aggregator defines the interface for learning from a user's content history
type Aggregator interface {
	// AnalyzeContentPatterns builds the learning dashboard for a user
	AnalyzeContentPatterns(ctx context.Context, userID, platform string) (*LearningSnapshot, error)

	// GetGrowthTrajectory summarizes analytics snapshots over the trailing days
	GetGrowthTrajectory(ctx context.Context, userID, platform string, days int) (*GrowthTrajectory, error)

	// GetEngagementInsights compares top and bottom performers
	GetEngagementInsights(ctx context.Context, userID, platform string) (*EngagementInsights, error)

	// TopContent lists a user's highest scoring content
	TopContent(ctx context.Context, userID, platform string, limit int) ([]TopContentItem, error)

	// SaveLearning persists a free-text insight; failures are reported, never returned
	SaveLearning(ctx context.Context, userID, learningType, insight string) SaveResult
}
