// internal/domain/virality/analyzer.go

package virality

import (
	"context"
)

// Analyzer defines the interface for scoring and mining content batches
type Analyzer interface {
	// Score computes the virality of a single content item
	Score(ctx context.Context, in ScoreInput) Result

	// ClassifyBatch scores every item, isolating per-item failures, best first
	ClassifyBatch(ctx context.Context, items []Item) []Result

	// DetectPatterns derives aggregate insights from a batch of items
	DetectPatterns(ctx context.Context, items []Item) *TrendReport

	// RegisterViralHandler registers a callback invoked for every viral item found
	RegisterViralHandler(handler func(Result) error)
}

// Publisher announces viral content to interested subscribers
type Publisher interface {
	// PublishViral emits an event for a viral or super viral result
	PublishViral(ctx context.Context, r Result) error
}
