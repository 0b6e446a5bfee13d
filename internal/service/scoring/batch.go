// internal/service/scoring/batch.go

package scoring

import (
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"agentesocial/internal/domain/virality"
)

// BatchOptions controls how a batch is scored
type BatchOptions struct {
	// Now is the reference time for elapsed-time computations; zero means time.Now().
	Now time.Time

	// Workers above one shard scoring across goroutines once a batch reaches
	// ParallelThreshold items.
	Workers           int
	ParallelThreshold int
}

func (o BatchOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

func (o BatchOptions) parallel(n int) bool {
	return o.Workers > 1 && n > 0 && n >= o.ParallelThreshold
}

// ClassifyBatch scores every item and returns the results best first. An item
// that cannot be parsed yields a result classified as error with a zero score;
// it never aborts the batch. Items with equal scores keep their input order.
func ClassifyBatch(items []virality.Item, opts BatchOptions) []virality.Result {
	now := opts.now()
	results := make([]virality.Result, len(items))

	if opts.parallel(len(items)) {
		chunk := (len(items) + opts.Workers - 1) / opts.Workers

		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for start := 0; start < len(items); start += chunk {
			end := start + chunk
			if end > len(items) {
				end = len(items)
			}
			start := start // per-iteration copy (go1.22+ loopvar semantics)
			g.Go(func() error {
				for i := start; i < end; i++ {
					results[i] = classifyItem(i, items[i], now)
				}
				return nil
			})
		}
		// classifyItem never fails; errors travel inside the results
		_ = g.Wait()
	} else {
		for i, item := range items {
			results[i] = classifyItem(i, item, now)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ViralityScore > results[j].ViralityScore
	})

	return results
}

// classifyItem scores a single item, turning parse failures and panics into an error result
func classifyItem(idx int, item virality.Item, now time.Time) (result virality.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = errorResult(idx, item, fmt.Errorf("panic while scoring: %v", r))
		}
	}()

	sample, err := ParseItem(idx, item, now)
	if err != nil {
		return errorResult(idx, item, err)
	}

	result = Score(sample.ScoreInput, now)
	result.ContentID = sample.ID
	result.Caption = truncate(sample.Caption, batchCaptionMax)
	result.Platform = sample.Platform
	result.MediaType = sample.MediaType
	result.Index = idx
	result.Hashtags = sample.Hashtags
	result.HasTimestamp = sample.HasTimestamp

	return result
}

// errorResult keeps a parseable posted_at so the item still counts in timing analysis
func errorResult(idx int, item virality.Item, err error) virality.Result {
	result := virality.Result{
		ContentID:      contentID(idx, item),
		ViralityScore:  0,
		Classification: virality.ClassError,
		MediaType:      unknownValue,
		Error:          err.Error(),
		Index:          idx,
	}
	if raw := item["posted_at"]; raw != nil {
		if postedAt, perr := ParseTimestamp(raw); perr == nil {
			result.PostedAt = postedAt
			result.HasTimestamp = true
		}
	}
	return result
}
