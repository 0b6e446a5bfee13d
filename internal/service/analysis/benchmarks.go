// internal/service/analysis/benchmarks.go

package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnsupportedPlatform is returned for platforms without benchmark data
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Range is a low/average/high reference band for one metric
type Range struct {
	Low  float64 `json:"low"`
	Avg  float64 `json:"avg"`
	High float64 `json:"high"`
}

// Tier holds the reference bands for one account size
type Tier struct {
	// AudienceLabel is "followers" or "subscribers" depending on the platform
	AudienceLabel string
	Audience      string
	Metrics       map[string]Range
}

// MarshalJSON flattens the audience band next to the metric ranges
func (t Tier) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(t.Metrics)+1)
	out[t.AudienceLabel] = t.Audience
	for name, r := range t.Metrics {
		out[name] = r
	}
	return json.Marshal(out)
}

// NicheModifier adjusts expectations for a content niche
type NicheModifier struct {
	EngagementModifier float64 `json:"engagement_modifier"`
	Notes              string  `json:"notes"`
}

// BenchmarkReport is the reference data returned for a platform lookup
type BenchmarkReport struct {
	Platform      string          `json:"platform"`
	Benchmarks    map[string]Tier `json:"benchmarks"`
	Niche         string          `json:"niche,omitempty"`
	NicheModifier *NicheModifier  `json:"niche_modifier,omitempty"`
}

func followers(band string, metrics map[string]Range) Tier {
	return Tier{AudienceLabel: "followers", Audience: band, Metrics: metrics}
}

func subscribers(band string, metrics map[string]Range) Tier {
	return Tier{AudienceLabel: "subscribers", Audience: band, Metrics: metrics}
}

var platformBenchmarks = map[string]map[string]Tier{
	"instagram": {
		"nano": followers("1K-10K", map[string]Range{
			"engagement_rate": {3.0, 5.0, 8.0},
			"posts_per_week":  {3, 5, 7},
			"stories_per_day": {1, 3, 7},
			"reels_per_week":  {2, 4, 7},
		}),
		"micro": followers("10K-50K", map[string]Range{
			"engagement_rate": {1.5, 3.0, 5.0},
			"posts_per_week":  {3, 5, 7},
			"stories_per_day": {2, 5, 10},
			"reels_per_week":  {3, 5, 7},
		}),
		"mid": followers("50K-500K", map[string]Range{
			"engagement_rate": {1.0, 2.0, 3.5},
			"posts_per_week":  {4, 6, 10},
			"stories_per_day": {3, 7, 15},
			"reels_per_week":  {4, 6, 10},
		}),
		"macro": followers("500K-1M", map[string]Range{
			"engagement_rate": {0.7, 1.5, 2.5},
			"posts_per_week":  {5, 7, 14},
			"stories_per_day": {5, 10, 20},
			"reels_per_week":  {5, 7, 14},
		}),
		"mega": followers("1M+", map[string]Range{
			"engagement_rate": {0.5, 1.0, 2.0},
			"posts_per_week":  {5, 7, 14},
			"stories_per_day": {5, 10, 20},
			"reels_per_week":  {5, 7, 14},
		}),
	},
	"youtube": {
		"nano": subscribers("1K-10K", map[string]Range{
			"view_rate":        {10.0, 20.0, 40.0},
			"like_rate":        {3.0, 5.0, 8.0},
			"comment_rate":     {0.3, 0.8, 2.0},
			"videos_per_month": {2, 4, 8},
			"avg_retention":    {30, 45, 60},
		}),
		"micro": subscribers("10K-100K", map[string]Range{
			"view_rate":        {5.0, 15.0, 30.0},
			"like_rate":        {2.0, 4.0, 7.0},
			"comment_rate":     {0.2, 0.5, 1.5},
			"videos_per_month": {4, 8, 12},
			"avg_retention":    {35, 48, 60},
		}),
		"mid": subscribers("100K-1M", map[string]Range{
			"view_rate":        {3.0, 10.0, 20.0},
			"like_rate":        {1.5, 3.5, 6.0},
			"comment_rate":     {0.1, 0.4, 1.0},
			"videos_per_month": {4, 8, 16},
			"avg_retention":    {38, 50, 65},
		}),
		"macro": subscribers("1M+", map[string]Range{
			"view_rate":        {2.0, 8.0, 15.0},
			"like_rate":        {1.0, 3.0, 5.0},
			"comment_rate":     {0.05, 0.3, 0.8},
			"videos_per_month": {4, 8, 16},
			"avg_retention":    {40, 52, 65},
		}),
	},
	"tiktok": {
		"nano": followers("1K-10K", map[string]Range{
			"engagement_rate":    {5.0, 9.0, 15.0},
			"videos_per_week":    {3, 7, 14},
			"avg_watch_time_pct": {40, 60, 80},
		}),
		"micro": followers("10K-100K", map[string]Range{
			"engagement_rate":    {3.0, 6.0, 12.0},
			"videos_per_week":    {5, 10, 21},
			"avg_watch_time_pct": {35, 55, 75},
		}),
		"mid": followers("100K-1M", map[string]Range{
			"engagement_rate":    {2.0, 4.5, 9.0},
			"videos_per_week":    {5, 10, 21},
			"avg_watch_time_pct": {35, 55, 75},
		}),
		"macro": followers("1M+", map[string]Range{
			"engagement_rate":    {1.5, 3.5, 7.0},
			"videos_per_week":    {7, 14, 28},
			"avg_watch_time_pct": {30, 50, 70},
		}),
	},
}

var nicheModifiers = map[string]NicheModifier{
	"moda":        {1.1, "Fashion tends to get above-average engagement thanks to its visual appeal"},
	"tech":        {0.85, "Tech content gets lower engagement but higher conversion"},
	"fitness":     {1.2, "Fitness gets high engagement, especially on Reels and TikTok"},
	"gastronomia": {1.15, "Food content performs well in short visual formats"},
	"educacao":    {0.9, "Education gets lower engagement but many saves and shares"},
	"negocios":    {0.8, "B2B gets lower engagement but more qualified leads"},
	"beleza":      {1.15, "Beauty gets high engagement with tutorials and before/after posts"},
	"viagem":      {1.1, "Travel performs well with aspirational content and carousels"},
}

// SupportedPlatforms lists the platforms with benchmark data, sorted
func SupportedPlatforms() []string {
	out := make([]string, 0, len(platformBenchmarks))
	for p := range platformBenchmarks {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Benchmarks returns reference bands for a platform. A known accountSize narrows
// the result to that tier; an unknown one returns every tier. A niche without
// specific data gets a neutral modifier.
func Benchmarks(platform, niche, accountSize string) (*BenchmarkReport, error) {
	key := strings.ToLower(strings.TrimSpace(platform))
	tiers, ok := platformBenchmarks[key]
	if !ok {
		return nil, fmt.Errorf("%w: '%s', options: %s",
			ErrUnsupportedPlatform, platform, strings.Join(SupportedPlatforms(), ", "))
	}

	report := &BenchmarkReport{Platform: key}

	if tier, ok := tiers[accountSize]; ok {
		report.Benchmarks = map[string]Tier{accountSize: tier}
	} else {
		report.Benchmarks = make(map[string]Tier, len(tiers))
		for size, tier := range tiers {
			report.Benchmarks[size] = tier
		}
	}

	if niche = strings.ToLower(strings.TrimSpace(niche)); niche != "" {
		report.Niche = niche
		if mod, ok := nicheModifiers[niche]; ok {
			report.NicheModifier = &mod
		} else {
			report.NicheModifier = &NicheModifier{
				EngagementModifier: 1.0,
				Notes:              fmt.Sprintf("No specific data for niche '%s'. Using general benchmarks.", niche),
			}
		}
	}

	return report, nil
}
