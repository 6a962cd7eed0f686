package service

import (
	"context"
	"strings"

	"github.com/agnivade/levenshtein"
)

// suggestionThreshold is the minimum normalized similarity before a past
// transaction is offered as a hint.
const suggestionThreshold = 0.6

// Suggestion is an advisory hint for manual resolution: the category of
// the most textually similar transaction already categorized. Suggestions
// never auto-assign and never create rules.
type Suggestion struct {
	CategoryID   string
	CategoryName string
	Description  string
	Similarity   float64
}

// Suggest scans the categorized history for the closest description by
// edit distance. Returns nil when nothing clears the threshold.
func (p *Pipeline) Suggest(ctx context.Context, description string) (*Suggestion, error) {
	history, err := p.Transactions.ListCategorized(ctx)
	if err != nil {
		return nil, err
	}
	upper := strings.ToUpper(description)
	var best *Suggestion
	for _, t := range history {
		sim := similarity(upper, strings.ToUpper(t.Description))
		if sim < suggestionThreshold {
			continue
		}
		if best == nil || sim > best.Similarity {
			best = &Suggestion{
				CategoryID:  *t.CategoryID,
				Description: t.Description,
				Similarity:  sim,
			}
		}
	}
	if best == nil {
		return nil, nil
	}
	cat, err := p.Categories.Get(ctx, best.CategoryID)
	if err != nil {
		return nil, err
	}
	if cat != nil {
		best.CategoryName = cat.Name
	}
	return best, nil
}

func similarity(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	// Two empty descriptions carry no signal; never offer a hint for them.
	if longest == 0 {
		return 0
	}
	if a == b {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
