package learning

import (
	"fmt"

	"agentesocial/internal/domain/learning"
)

const (
	lengthContrastRatio = 1.5

	excellentEngagement = 5.0
	goodEngagement      = 2.0
)

// FallbackLearningRecommendation is returned when no other rule applies
const FallbackLearningRecommendation = "Keep posting consistently so there is enough data to learn what works for your audience."

// learningRecommendations applies, in order: best content type, body length
// contrast, follower change and engagement band. The list is never empty.
func learningRecommendations(p *learning.Patterns, topCount int, growth *learning.GrowthTrajectory) []string {
	var recs []string

	if len(p.TopContentTypes) > 0 && p.TopContentTypes[0].Value != unknownValue {
		best := p.TopContentTypes[0]
		recs = append(recs, fmt.Sprintf(
			"Your best performing content type is '%s' (%d of your top %d posts). Produce more of it.",
			best.Value, best.Count, topCount,
		))
	}

	top, low := float64(p.AvgLengthTop), float64(p.AvgLengthLow)
	switch {
	case low > 0 && top >= low*lengthContrastRatio:
		recs = append(recs, fmt.Sprintf(
			"Your top posts are longer (avg %d characters vs %d). Invest in more developed content.",
			p.AvgLengthTop, p.AvgLengthLow,
		))
	case top > 0 && low >= top*lengthContrastRatio:
		recs = append(recs, fmt.Sprintf(
			"Your top posts are shorter (avg %d characters vs %d). Keep your content concise.",
			p.AvgLengthTop, p.AvgLengthLow,
		))
	}

	if growth.HasData() {
		summary := growth.Summary
		switch change := summary.FollowersChange; {
		case change > 0:
			recs = append(recs, fmt.Sprintf(
				"You gained %d followers in the last %d days. Keep the current pace.",
				change, summary.PeriodDays,
			))
		case change < 0:
			recs = append(recs, fmt.Sprintf(
				"You lost %d followers in the last %d days. Review recent content and posting frequency.",
				-change, summary.PeriodDays,
			))
		default:
			recs = append(recs, fmt.Sprintf(
				"Your follower count was stable over the last %d days. Test new formats to restart growth.",
				summary.PeriodDays,
			))
		}

		switch rate := summary.AvgEngagement; {
		case rate > excellentEngagement:
			recs = append(recs, fmt.Sprintf("Excellent engagement rate (%.2f%%). Your audience is highly active.", rate))
		case rate > goodEngagement:
			recs = append(recs, fmt.Sprintf("Good engagement rate (%.2f%%). Calls to action can push it further.", rate))
		case rate > 0:
			recs = append(recs, fmt.Sprintf(
				"Engagement rate needs improvement (%.2f%%). Ask questions and reply to comments to spark conversation.",
				rate,
			))
		default:
			recs = append(recs, FallbackLearningRecommendation)
		}
	}

	if len(recs) == 0 {
		recs = append(recs, FallbackLearningRecommendation)
	}

	return recs
}
