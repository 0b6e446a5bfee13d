package learning

import (
	"strings"
	"time"

	"github.com/spf13/cast"

	"agentesocial/internal/domain/learning"
	"agentesocial/internal/domain/store"
)

const unknownValue = "unknown"

// Column names shared with the store
const (
	colID              = "id"
	colUserID          = "user_id"
	colPlatform        = "platform"
	colTitle           = "title"
	colContentType     = "content_type"
	colTone            = "tone"
	colBody            = "body"
	colPostedDay       = "posted_day"
	colEngagementScore = "engagement_score"
	colCreatedAt       = "created_at"
	colFollowersCount  = "followers_count"
	colEngagementRate  = "engagement_rate"
	colReach           = "reach"
	colLearningType    = "learning_type"
	colInsight         = "insight"
)

var topContentColumns = []string{colID, colTitle, colPlatform, colContentType, colEngagementScore, colCreatedAt}

// decodeContent maps a content_pieces row. Missing categorical fields become
// "unknown" and missing numbers zero.
func decodeContent(r store.Record) learning.ContentRecord {
	return learning.ContentRecord{
		ID:              cast.ToString(r[colID]),
		Title:           cast.ToString(r[colTitle]),
		Platform:        cast.ToString(r[colPlatform]),
		ContentType:     categorical(r[colContentType]),
		Tone:            categorical(r[colTone]),
		Body:            cast.ToString(r[colBody]),
		PostedDay:       categorical(r[colPostedDay]),
		EngagementScore: cast.ToFloat64(r[colEngagementScore]),
		CreatedAt:       toTime(r[colCreatedAt]),
	}
}

func decodeContents(records []store.Record) []learning.ContentRecord {
	out := make([]learning.ContentRecord, 0, len(records))
	for _, r := range records {
		out = append(out, decodeContent(r))
	}
	return out
}

func decodeSnapshot(r store.Record) learning.Snapshot {
	return learning.Snapshot{
		Platform:       cast.ToString(r[colPlatform]),
		FollowersCount: cast.ToInt64(r[colFollowersCount]),
		EngagementRate: cast.ToFloat64(r[colEngagementRate]),
		Reach:          cast.ToInt64(r[colReach]),
		CreatedAt:      toTime(r[colCreatedAt]),
	}
}

func decodeTopContent(r store.Record) learning.TopContentItem {
	return learning.TopContentItem{
		ID:              cast.ToString(r[colID]),
		Title:           cast.ToString(r[colTitle]),
		Platform:        cast.ToString(r[colPlatform]),
		ContentType:     categorical(r[colContentType]),
		EngagementScore: cast.ToFloat64(r[colEngagementScore]),
		CreatedAt:       toTime(r[colCreatedAt]),
	}
}

func categorical(v interface{}) string {
	s := strings.TrimSpace(cast.ToString(v))
	if s == "" {
		return unknownValue
	}
	return s
}

func toTime(v interface{}) time.Time {
	t, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
