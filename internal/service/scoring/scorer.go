// internal/service/scoring/scorer.go

package scoring

import (
	"math"
	"time"

	"agentesocial/internal/domain/virality"
)

// Score weights and tier breakpoints are part of the published score contract.
const (
	velocityWeight = 0.4
	shareWeight    = 0.3
	saveWeight     = 0.3

	superViralThreshold   = 81
	viralThreshold        = 61
	aboveAverageThreshold = 31

	// a 20% share or save rate saturates its component score
	rateMultiplier = 5
)

// Score computes the virality of one content item relative to now.
//
// The score blends engagement velocity (40%), share rate (30%) and save rate
// (30%), each normalized to 0-100. Elapsed time is clamped to at least one hour,
// so posts dated in the future are scored as one hour old.
func Score(in virality.ScoreInput, now time.Time) virality.Result {
	hoursSincePost := math.Max(now.Sub(in.PostedAt).Hours(), 1)

	followers := maxInt64(in.Followers, 1)
	totalEngagement := in.Likes + in.Comments + in.Shares + in.Saves
	engagementRate := float64(totalEngagement) / float64(followers) * 100

	engagementVelocity := float64(totalEngagement) / hoursSincePost
	velocityScore := math.Min(engagementVelocity/math.Max(float64(followers)*0.01, 1)*100, 100)

	engagementBase := float64(maxInt64(totalEngagement, 1))

	shareRate := float64(in.Shares) / engagementBase * 100
	shareScore := math.Min(shareRate*rateMultiplier, 100)

	saveRate := float64(in.Saves) / engagementBase * 100
	saveScore := math.Min(saveRate*rateMultiplier, 100)

	finalScore := round(velocityScore*velocityWeight+shareScore*shareWeight+saveScore*saveWeight, 1)

	return virality.Result{
		ViralityScore:   finalScore,
		Classification:  Classify(finalScore),
		EngagementRate:  round(engagementRate, 2),
		VelocityScore:   round(velocityScore, 1),
		ShareScore:      round(shareScore, 1),
		SaveScore:       round(saveScore, 1),
		HoursSincePost:  round(hoursSincePost, 1),
		TotalEngagement: totalEngagement,
		PostedAt:        in.PostedAt,
	}
}

// Classify maps a virality score to its tier. Each breakpoint belongs to the higher tier.
func Classify(score float64) virality.Classification {
	switch {
	case score >= superViralThreshold:
		return virality.ClassSuperViral
	case score >= viralThreshold:
		return virality.ClassViral
	case score >= aboveAverageThreshold:
		return virality.ClassAboveAverage
	default:
		return virality.ClassNormal
	}
}

// round rounds x to the given number of decimal places, halves away from zero
func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
