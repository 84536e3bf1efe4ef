package reconcile

import (
	"math"

	"github.com/sells-group/vakit-cli/internal/model"
)

// DefaultPriority is the provider preference used when none is configured.
var DefaultPriority = []string{"aladhan", "prayzone", "muslimsalat"}

// DefaultOutlierThreshold is the allowed deviation from the mean, in minutes.
const DefaultOutlierThreshold = 20.0

// Selection explains how Select reached its answer.
type Selection struct {
	Best         *model.ProviderResult
	Outliers     []string
	DateFallback bool
}

// Select picks the most trustworthy result for isoDay. results must be in
// descriptor order; the answer depends only on their contents and order, not
// on the order providers finished in.
//
// Results dated isoDay are preferred; when none are, every result is used.
// With two or more results, a result whose hard anchor deviates from that
// anchor's mean by more than threshold minutes is an outlier. Means are
// taken only over results that supply the anchor, and only when at least two
// do. The first non-outlier in priority order wins, falling back to the first
// candidate in input order. If every result is an outlier, all are candidates.
func Select(results []*model.ProviderResult, isoDay string, threshold float64, priority []string) (*Selection, error) {
	var valid []*model.ProviderResult
	for _, r := range results {
		if r != nil && r.IsFor(isoDay) {
			valid = append(valid, r)
		}
	}

	sel := &Selection{}
	if len(valid) == 0 {
		sel.DateFallback = true
		for _, r := range results {
			if r != nil {
				valid = append(valid, r)
			}
		}
	}
	if len(valid) == 0 {
		return nil, &model.NoValidDataError{}
	}

	if len(valid) == 1 {
		sel.Best = valid[0]
		return sel, nil
	}

	outlier := outliers(valid, threshold)

	candidates := make([]*model.ProviderResult, 0, len(valid))
	for i, r := range valid {
		if outlier[i] {
			sel.Outliers = append(sel.Outliers, r.ProviderID)
			continue
		}
		candidates = append(candidates, r)
	}
	if len(candidates) == 0 {
		candidates = valid
	}

	if len(priority) == 0 {
		priority = DefaultPriority
	}
	for _, id := range priority {
		for _, c := range candidates {
			if c.ProviderID == id {
				sel.Best = c
				return sel, nil
			}
		}
	}

	sel.Best = candidates[0]
	return sel, nil
}

// outliers flags each result that strays from any hard anchor's mean.
func outliers(results []*model.ProviderResult, threshold float64) []bool {
	flagged := make([]bool, len(results))

	for _, name := range model.HardAnchors {
		var sum float64
		var n int
		for _, r := range results {
			if t, ok := r.Anchor(name); ok {
				sum += float64(t)
				n++
			}
		}
		if n < 2 {
			continue
		}
		mean := sum / float64(n)

		for i, r := range results {
			t, ok := r.Anchor(name)
			if !ok {
				continue
			}
			if math.Abs(float64(t)-mean) > threshold {
				flagged[i] = true
			}
		}
	}

	return flagged
}
