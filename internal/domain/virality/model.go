package virality

import (
	"encoding/json"
	"time"
)

// Classification is the virality tier of a scored content item
type Classification string

const (
	ClassNormal       Classification = "normal"
	ClassAboveAverage Classification = "above_average"
	ClassViral        Classification = "viral"
	ClassSuperViral   Classification = "super_viral"
	ClassError        Classification = "error"
)

// IsViral reports whether c is viral or super viral
func (c Classification) IsViral() bool {
	return c == ClassViral || c == ClassSuperViral
}

// Item is one batch entry as received from a caller: a JSON-like record with
// optional, possibly string-encoded fields.
type Item map[string]interface{}

// ScoreInput holds the raw signal the scorer needs
type ScoreInput struct {
	Likes     int64
	Comments  int64
	Shares    int64
	Saves     int64
	Views     int64
	Followers int64
	PostedAt  time.Time
}

// Sample is a typed, validated content item
type Sample struct {
	ScoreInput
	ID           string
	Caption      string
	Platform     string
	MediaType    string
	Hashtags     []string
	HasTimestamp bool
}

// Result is the virality score of a single content item
type Result struct {
	ContentID       string         `json:"content_id"`
	ViralityScore   float64        `json:"virality_score"`
	Classification  Classification `json:"classification"`
	EngagementRate  float64        `json:"engagement_rate"`
	VelocityScore   float64        `json:"velocity_score"`
	ShareScore      float64        `json:"share_score"`
	SaveScore       float64        `json:"save_score"`
	HoursSincePost  float64        `json:"hours_since_post"`
	TotalEngagement int64          `json:"total_engagement"`
	Caption         string         `json:"caption,omitempty"`
	Platform        string         `json:"platform,omitempty"`
	MediaType       string         `json:"media_type,omitempty"`
	Error           string         `json:"error,omitempty"`

	// Source data kept for pattern detection
	Index        int       `json:"-"`
	Hashtags     []string  `json:"-"`
	PostedAt     time.Time `json:"-"`
	HasTimestamp bool      `json:"-"`
}

// Breakdown counts results per classification tier
type Breakdown struct {
	SuperViral   int `json:"super_viral"`
	Viral        int `json:"viral"`
	AboveAverage int `json:"above_average"`
	Normal       int `json:"normal"`
	Error        int `json:"error"`
}

// MediaTypeScore is the mean virality score of one media type
type MediaTypeScore struct {
	MediaType string  `json:"media_type"`
	AvgScore  float64 `json:"avg_score"`
	Count     int     `json:"count"`
}

// EngagementPatterns summarizes what drives the batch's viral content
type EngagementPatterns struct {
	AvgEngagementRate float64 `json:"avg_engagement_rate"`
	AvgViralityScore  float64 `json:"avg_virality_score"`
	ShareDriven       int     `json:"share_driven"`
	SaveDriven        int     `json:"save_driven"`
	VelocityDriven    int     `json:"velocity_driven"`
}

// HashtagLift compares a hashtag's frequency in viral vs normal content
type HashtagLift struct {
	Hashtag      string  `json:"hashtag"`
	ViralCount   int     `json:"viral_count"`
	NormalCount  int     `json:"normal_count"`
	LiftVsNormal float64 `json:"lift_vs_normal"`
}

// TimingBucket is the mean score of items posted in one hour or weekday
type TimingBucket struct {
	Label    string  `json:"label"`
	AvgScore float64 `json:"avg_score"`
	Count    int     `json:"count"`
}

// TimingAnalysis holds hour-of-day and weekday heatmaps, best first
type TimingAnalysis struct {
	BestHours []TimingBucket `json:"best_hours"`
	BestDays  []TimingBucket `json:"best_days"`
}

// TopItem is a display summary of a highly scored item
type TopItem struct {
	ContentID      string         `json:"content_id"`
	ViralityScore  float64        `json:"virality_score"`
	Classification Classification `json:"classification"`
	Caption        string         `json:"caption"`
}

// TrendReport is the aggregate pattern analysis of a content batch
type TrendReport struct {
	// Empty marks the no-data sentinel; Message then explains why.
	Empty   bool   `json:"-"`
	Message string `json:"-"`

	TotalAnalyzed           int                `json:"total_analyzed"`
	ClassificationBreakdown Breakdown          `json:"classification_breakdown"`
	ViralContentRatio       float64            `json:"viral_content_ratio"`
	TopPerformingType       string             `json:"top_performing_type"`
	MediaTypeAvgScores      []MediaTypeScore   `json:"media_type_avg_scores"`
	EngagementPatterns      EngagementPatterns `json:"engagement_patterns"`
	TrendingHashtags        []HashtagLift      `json:"trending_hashtags"`
	TimingAnalysis          TimingAnalysis     `json:"timing_analysis"`
	Recommendations         []string           `json:"recommendations"`
	TopViralContent         []TopItem          `json:"top_viral_content"`
}

// EmptyReport returns the sentinel report for a batch with no content
func EmptyReport(message string) *TrendReport {
	return &TrendReport{Empty: true, Message: message}
}

// MarshalJSON renders the sentinel as {"error": ..., "patterns": {}}
func (r TrendReport) MarshalJSON() ([]byte, error) {
	if r.Empty {
		return json.Marshal(struct {
			Error    string                 `json:"error"`
			Patterns map[string]interface{} `json:"patterns"`
		}{
			Error:    r.Message,
			Patterns: map[string]interface{}{},
		})
	}

	type plain TrendReport
	return json.Marshal(plain(r))
}
