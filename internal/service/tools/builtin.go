package tools

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"agentesocial/internal/domain/learning"
	"agentesocial/internal/domain/virality"
	"agentesocial/internal/service/scoring"
)

// Tool names exposed to the agent layer
const (
	CalculateViralityScore    = "calculate_virality_score"
	ClassifyContentBatch      = "classify_content_batch"
	DetectTrendingPatterns    = "detect_trending_patterns"
	AnalyzeContentPerformance = "analyze_content_performance"
	GetGrowthTrajectory       = "get_growth_trajectory"
	GetEngagementInsights     = "get_engagement_insights"
	SaveLearning              = "save_learning"
)

const defaultGrowthDays = 30

var (
	userParam     = Param{Name: "user_id", Type: "string", Description: "User id", Required: true}
	platformParam = Param{Name: "platform", Type: "string", Description: "Optional platform filter (instagram, youtube, tiktok, linkedin)"}
)

// NewDefaultRegistry registers the virality and learning tools
func NewDefaultRegistry(analyzer virality.Analyzer, aggregator learning.Aggregator, logger logrus.FieldLogger) *Registry {
	r := NewRegistry(logger)
	registerViralityTools(r, analyzer)
	registerLearningTools(r, aggregator)
	return r
}

func registerViralityTools(r *Registry, analyzer virality.Analyzer) {
	counter := func(name, desc string) Param {
		return Param{Name: name, Type: "integer", Description: desc}
	}

	r.Register(Tool{
		Name:        CalculateViralityScore,
		Description: "Scores one content item from 0 to 100: engagement velocity (40%), share rate (30%) and save rate (30%).",
		Params: []Param{
			counter("likes", "Like count"),
			counter("comments", "Comment count"),
			counter("shares", "Share count"),
			counter("saves", "Save count"),
			counter("views", "View count"),
			{Name: "posted_at", Type: "string", Description: "ISO-8601 publication time; defaults to now"},
			counter("followers", "Audience size at post time"),
		},
	}, func(ctx context.Context, args Args) (interface{}, error) {
		// the argument names match a batch item, so the same coercion applies
		sample, err := scoring.ParseItem(0, virality.Item(args), time.Now())
		if err != nil {
			return nil, err
		}
		return analyzer.Score(ctx, sample.ScoreInput), nil
	})

	r.Register(Tool{
		Name:        ClassifyContentBatch,
		Description: "Scores and classifies a list of content items, best first. Bad items come back classified as error.",
		Params: []Param{
			{Name: "items", Type: "array", Description: "Content items with likes, comments, shares, saves, views, followers, posted_at, caption, media_type, platform, id", Required: true},
		},
	}, func(ctx context.Context, args Args) (interface{}, error) {
		items, err := args.Items("items")
		if err != nil {
			return nil, err
		}
		return analyzer.ClassifyBatch(ctx, items), nil
	})

	r.Register(Tool{
		Name:        DetectTrendingPatterns,
		Description: "Finds media type, hashtag, timing and engagement-driver patterns in a content batch and suggests actions.",
		Params: []Param{
			{Name: "content_list", Type: "array", Description: "Content items, as for classify_content_batch, plus hashtags", Required: true},
		},
	}, func(ctx context.Context, args Args) (interface{}, error) {
		items, err := args.Items("content_list")
		if err != nil {
			return nil, err
		}
		return analyzer.DetectPatterns(ctx, items), nil
	})
}

func registerLearningTools(r *Registry, aggregator learning.Aggregator) {
	r.Register(Tool{
		Name:        AnalyzeContentPerformance,
		Description: "Analyzes which content types, tones, lengths and posting days perform best for the user.",
		Params:      []Param{userParam, platformParam},
	}, func(ctx context.Context, args Args) (interface{}, error) {
		userID, err := args.RequiredString("user_id")
		if err != nil {
			return nil, err
		}
		return aggregator.AnalyzeContentPatterns(ctx, userID, args.String("platform", ""))
	})

	r.Register(Tool{
		Name:        GetGrowthTrajectory,
		Description: "Summarizes follower, reach and engagement evolution over the last N days.",
		Params: []Param{
			userParam,
			platformParam,
			{Name: "days", Type: "integer", Description: "Days to analyze (default 30)"},
		},
	}, func(ctx context.Context, args Args) (interface{}, error) {
		userID, err := args.RequiredString("user_id")
		if err != nil {
			return nil, err
		}
		days, err := args.Int("days", defaultGrowthDays)
		if err != nil {
			return nil, err
		}
		return aggregator.GetGrowthTrajectory(ctx, userID, args.String("platform", ""), days)
	})

	r.Register(Tool{
		Name:        GetEngagementInsights,
		Description: "Compares the top 20% and bottom 20% of the user's content by engagement.",
		Params:      []Param{userParam, platformParam},
	}, func(ctx context.Context, args Args) (interface{}, error) {
		userID, err := args.RequiredString("user_id")
		if err != nil {
			return nil, err
		}
		return aggregator.GetEngagementInsights(ctx, userID, args.String("platform", ""))
	})

	r.Register(Tool{
		Name:        SaveLearning,
		Description: "Saves an insight for future use. A failed save is reported as skipped.",
		Params: []Param{
			userParam,
			{Name: "learning_type", Type: "string", Description: "content_pattern, engagement_insight, growth_insight or strategy", Required: true},
			{Name: "insight", Type: "string", Description: "Insight text", Required: true},
		},
	}, func(ctx context.Context, args Args) (interface{}, error) {
		return aggregator.SaveLearning(
			ctx,
			args.String("user_id", ""),
			args.String("learning_type", ""),
			args.String("insight", ""),
		), nil
	})
}
