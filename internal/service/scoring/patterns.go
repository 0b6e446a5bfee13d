// internal/service/scoring/patterns.go

package scoring

import (
	"fmt"
	"sort"

	"agentesocial/internal/domain/virality"
)

const (
	maxTrendingHashtags = 10
	maxTopItems         = 5

	// hashtags missing from normal content get this floor as their normal frequency
	normalFrequencyFloor = 0.01

	velocityDrivenThreshold = 60
)

// EmptyBatchMessage is reported when pattern detection receives no content
const EmptyBatchMessage = "content list is empty"

// DetectPatterns classifies items and mines the batch for media type, hashtag,
// timing and engagement-driver patterns. An empty batch yields the empty sentinel report.
func DetectPatterns(items []virality.Item, opts BatchOptions) *virality.TrendReport {
	if len(items) == 0 {
		return virality.EmptyReport(EmptyBatchMessage)
	}
	return BuildReport(ClassifyBatch(items, opts))
}

// BuildReport derives a TrendReport from an already classified batch, ordered best first
func BuildReport(classified []virality.Result) *virality.TrendReport {
	if len(classified) == 0 {
		return virality.EmptyReport(EmptyBatchMessage)
	}

	var viral, normal []virality.Result
	report := &virality.TrendReport{TotalAnalyzed: len(classified)}

	for _, r := range classified {
		switch r.Classification {
		case virality.ClassSuperViral:
			report.ClassificationBreakdown.SuperViral++
			viral = append(viral, r)
		case virality.ClassViral:
			report.ClassificationBreakdown.Viral++
			viral = append(viral, r)
		case virality.ClassAboveAverage:
			report.ClassificationBreakdown.AboveAverage++
		case virality.ClassNormal:
			report.ClassificationBreakdown.Normal++
			normal = append(normal, r)
		case virality.ClassError:
			report.ClassificationBreakdown.Error++
		}
	}

	total := len(classified)
	viralRatio := float64(len(viral)) / float64(maxInt(total, 1)) * 100
	report.ViralContentRatio = round(viralRatio, 1)

	report.MediaTypeAvgScores, report.TopPerformingType = mediaTypeAverages(classified)
	report.TrendingHashtags = hashtagLift(viral, normal)
	report.TimingAnalysis = timingAnalysis(classified)
	report.EngagementPatterns = engagementPatterns(classified, viral)
	report.Recommendations = patternRecommendations(report, viralRatio)
	report.TopViralContent = topItems(classified, maxTopItems)

	return report
}

// mediaTypeAverages returns the mean score per media type in first-encountered
// order, and the type with the highest mean. Ties go to the type encountered first.
func mediaTypeAverages(classified []virality.Result) ([]virality.MediaTypeScore, string) {
	index := make(map[string]int)
	var groups []virality.MediaTypeScore
	sums := make([]float64, 0)

	for _, r := range classified {
		mt := r.MediaType
		if mt == "" {
			mt = unknownValue
		}
		i, ok := index[mt]
		if !ok {
			i = len(groups)
			index[mt] = i
			groups = append(groups, virality.MediaTypeScore{MediaType: mt})
			sums = append(sums, 0)
		}
		groups[i].Count++
		sums[i] += r.ViralityScore
	}

	top := unknownValue
	best := 0.0
	for i := range groups {
		groups[i].AvgScore = round(sums[i]/float64(groups[i].Count), 1)
		if i == 0 || groups[i].AvgScore > best {
			best = groups[i].AvgScore
			top = groups[i].MediaType
		}
	}

	return groups, top
}

// hashtagLift picks the ten hashtags used most in viral content, then ranks those
// ten by how much more often they appear in viral than in normal content.
func hashtagLift(viral, normal []virality.Result) []virality.HashtagLift {
	// count in input order so equal counts keep first appearance
	ordered := make([]virality.Result, len(viral))
	copy(ordered, viral)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	viralCounts := make(map[string]int)
	var firstSeen []string
	for _, r := range ordered {
		for _, tag := range r.Hashtags {
			if _, ok := viralCounts[tag]; !ok {
				firstSeen = append(firstSeen, tag)
			}
			viralCounts[tag]++
		}
	}

	normalCounts := make(map[string]int)
	for _, r := range normal {
		for _, tag := range r.Hashtags {
			normalCounts[tag]++
		}
	}

	sort.SliceStable(firstSeen, func(i, j int) bool {
		return viralCounts[firstSeen[i]] > viralCounts[firstSeen[j]]
	})
	if len(firstSeen) > maxTrendingHashtags {
		firstSeen = firstSeen[:maxTrendingHashtags]
	}

	lifts := make([]virality.HashtagLift, 0, len(firstSeen))
	for _, tag := range firstSeen {
		viralFrequency := float64(viralCounts[tag]) / float64(maxInt(len(viral), 1))
		normalFrequency := float64(normalCounts[tag]) / float64(maxInt(len(normal), 1))
		lift := viralFrequency / maxFloat(normalFrequency, normalFrequencyFloor)

		lifts = append(lifts, virality.HashtagLift{
			Hashtag:      tag,
			ViralCount:   viralCounts[tag],
			NormalCount:  normalCounts[tag],
			LiftVsNormal: round(lift, 2),
		})
	}

	sort.SliceStable(lifts, func(i, j int) bool {
		return lifts[i].LiftVsNormal > lifts[j].LiftVsNormal
	})

	return lifts
}

// timingAnalysis averages scores per posting hour and weekday, best first.
// Items without a parsed timestamp are left out; error items with one count as zero.
func timingAnalysis(classified []virality.Result) virality.TimingAnalysis {
	ordered := make([]virality.Result, len(classified))
	copy(ordered, classified)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	hours := newBucketSet()
	days := newBucketSet()
	for _, r := range ordered {
		if !r.HasTimestamp {
			continue
		}
		posted := r.PostedAt.UTC()
		hours.add(fmt.Sprintf("%02d:00", posted.Hour()), r.ViralityScore)
		days.add(posted.Weekday().String(), r.ViralityScore)
	}

	return virality.TimingAnalysis{
		BestHours: hours.ranked(),
		BestDays:  days.ranked(),
	}
}

func engagementPatterns(classified, viral []virality.Result) virality.EngagementPatterns {
	var rateSum, scoreSum float64
	for _, r := range classified {
		rateSum += r.EngagementRate
		scoreSum += r.ViralityScore
	}
	total := float64(maxInt(len(classified), 1))

	patterns := virality.EngagementPatterns{
		AvgEngagementRate: round(rateSum/total, 2),
		AvgViralityScore:  round(scoreSum/total, 1),
	}

	// an item may count as velocity driven and as share or save driven
	for _, r := range viral {
		if r.ShareScore > r.SaveScore {
			patterns.ShareDriven++
		}
		if r.SaveScore > r.ShareScore {
			patterns.SaveDriven++
		}
		if r.VelocityScore > velocityDrivenThreshold {
			patterns.VelocityDriven++
		}
	}

	return patterns
}

func topItems(classified []virality.Result, n int) []virality.TopItem {
	if len(classified) < n {
		n = len(classified)
	}
	items := make([]virality.TopItem, 0, n)
	for _, r := range classified[:n] {
		items = append(items, virality.TopItem{
			ContentID:      r.ContentID,
			ViralityScore:  r.ViralityScore,
			Classification: r.Classification,
			Caption:        truncate(r.Caption, reportCaptionMax),
		})
	}
	return items
}

// bucketSet accumulates scores per label, remembering insertion order
type bucketSet struct {
	index   map[string]int
	buckets []virality.TimingBucket
	sums    []float64
}

func newBucketSet() *bucketSet {
	return &bucketSet{index: make(map[string]int)}
}

func (b *bucketSet) add(label string, score float64) {
	i, ok := b.index[label]
	if !ok {
		i = len(b.buckets)
		b.index[label] = i
		b.buckets = append(b.buckets, virality.TimingBucket{Label: label})
		b.sums = append(b.sums, 0)
	}
	b.buckets[i].Count++
	b.sums[i] += score
}

// ranked returns the buckets by mean score descending; ties keep insertion order
func (b *bucketSet) ranked() []virality.TimingBucket {
	out := make([]virality.TimingBucket, len(b.buckets))
	for i, bucket := range b.buckets {
		bucket.AvgScore = round(b.sums[i]/float64(bucket.Count), 1)
		out[i] = bucket
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AvgScore > out[j].AvgScore })
	return out
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
