package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"agentesocial/internal/domain/virality"
)

const (
	unknownValue     = "unknown"
	batchCaptionMax  = 200
	reportCaptionMax = 100
)

// timestampLayouts are tried in order for string timestamps. Layouts without a
// zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseItem converts a raw batch entry into a Sample. Missing counters default to
// zero, missing followers to one and a missing timestamp to now. String-encoded
// numbers are accepted; anything else that does not coerce is an error.
func ParseItem(idx int, item virality.Item, now time.Time) (virality.Sample, error) {
	sample := virality.Sample{
		ID:        contentID(idx, item),
		Caption:   cast.ToString(item["caption"]),
		Platform:  stringOr(item["platform"], unknownValue),
		MediaType: stringOr(item["media_type"], unknownValue),
	}

	counters := []struct {
		key string
		dst *int64
		def int64
	}{
		{"likes", &sample.Likes, 0},
		{"comments", &sample.Comments, 0},
		{"shares", &sample.Shares, 0},
		{"saves", &sample.Saves, 0},
		{"views", &sample.Views, 0},
		{"followers", &sample.Followers, 1},
	}
	for _, c := range counters {
		v, err := toCounter(item[c.key], c.def)
		if err != nil {
			return sample, fmt.Errorf("invalid %s: %w", c.key, err)
		}
		*c.dst = v
	}

	hashtags, err := toHashtags(item["hashtags"])
	if err != nil {
		return sample, fmt.Errorf("invalid hashtags: %w", err)
	}
	sample.Hashtags = hashtags

	raw, ok := item["posted_at"]
	if !ok || raw == nil {
		sample.PostedAt = now
		return sample, nil
	}

	postedAt, err := ParseTimestamp(raw)
	if err != nil {
		return sample, err
	}
	sample.PostedAt = postedAt
	sample.HasTimestamp = true

	return sample, nil
}

// ParseTimestamp accepts ISO-8601 strings with or without a zone marker, native
// time values and Unix epoch seconds. The result is always in UTC.
func ParseTimestamp(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("nil timestamp")
		}
		return t.UTC(), nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("invalid posted_at timestamp: %q", t)
	case int, int32, int64, float32, float64, json.Number:
		secs, err := cast.ToInt64E(t)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid posted_at epoch: %w", err)
		}
		return time.Unix(secs, 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported posted_at type %T", v)
	}
}

// toCounter coerces a counter value, clamping negatives to zero
func toCounter(v interface{}, def int64) (int64, error) {
	if v == nil {
		return def, nil
	}
	var (
		n   int64
		err error
	)
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return def, nil
		}
		n, err = parseDecimal(s)
	} else {
		n, err = cast.ToInt64E(v)
	}
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, nil
	}
	return n, nil
}

// parseDecimal reads a base-10 integer, also accepting whole-number floats like "12.0"
func parseDecimal(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return int64(f), nil
}

func toHashtags(v interface{}) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	tags, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out, nil
}

func contentID(idx int, item virality.Item) string {
	if id := cast.ToString(item["id"]); id != "" {
		return id
	}
	return fmt.Sprintf("item_%d", idx)
}

func stringOr(v interface{}, def string) string {
	if s := cast.ToString(v); s != "" {
		return s
	}
	return def
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
