package scoring

import (
	"fmt"
	"strings"

	"agentesocial/internal/domain/virality"
)

const (
	lowViralRatio  = 10
	highViralRatio = 30

	recommendedHashtags = 3
)

// FallbackPatternRecommendation is used when no other rule applies
const FallbackPatternRecommendation = "Keep publishing consistently: more content is needed to detect reliable virality patterns."

// patternRecommendations turns report aggregates into advice. Rules are applied
// in a fixed order: media type, engagement driver, viral ratio, hashtags, timing.
func patternRecommendations(report *virality.TrendReport, viralRatio float64) []string {
	var recs []string

	if report.TopPerformingType != unknownValue {
		for _, mt := range report.MediaTypeAvgScores {
			if mt.MediaType == report.TopPerformingType {
				recs = append(recs, fmt.Sprintf(
					"Prioritize '%s' content: it has the best average virality score (%.1f).",
					mt.MediaType, mt.AvgScore,
				))
				break
			}
		}
	}

	patterns := report.EngagementPatterns
	switch {
	case patterns.ShareDriven > patterns.SaveDriven:
		recs = append(recs, "Your viral content is mostly driven by shares. Focus on opinionated, debate-sparking and shareable posts.")
	case patterns.SaveDriven > patterns.ShareDriven:
		recs = append(recs, "Your viral content is mostly driven by saves. Focus on educational content, tutorials and useful lists.")
	}

	switch {
	case viralRatio < lowViralRatio:
		recs = append(recs, "Less than 10% of your content reaches viral status. Try different formats and stronger hooks in the first 3 seconds.")
	case viralRatio > highViralRatio:
		recs = append(recs, fmt.Sprintf(
			"Excellent virality rate (%.0f%%)! Keep the current strategy and document the patterns that work.",
			viralRatio,
		))
	}

	if len(report.TrendingHashtags) > 0 {
		n := recommendedHashtags
		if len(report.TrendingHashtags) < n {
			n = len(report.TrendingHashtags)
		}
		tags := make([]string, 0, n)
		for _, h := range report.TrendingHashtags[:n] {
			tags = append(tags, h.Hashtag)
		}
		recs = append(recs, "Hashtags most correlated with virality: "+strings.Join(tags, ", "))
	}

	timing := report.TimingAnalysis
	if len(timing.BestHours) > 0 && len(timing.BestDays) > 0 {
		recs = append(recs, fmt.Sprintf(
			"Best time to post: %s | Best day: %s",
			timing.BestHours[0].Label, timing.BestDays[0].Label,
		))
	}

	if len(recs) == 0 {
		recs = append(recs, FallbackPatternRecommendation)
	}

	return recs
}
