// Package conflict decides which campaign governs a product when several
// active campaigns target it. Detection is pairwise: each strictly
// higher-priority overlap is reported independently, and no transitive
// consistency graph is built.
package conflict

import (
	"context"
	"sort"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/domain"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/selector"
)

// Conflict reports one higher-priority campaign overlapping the candidate.
type Conflict struct {
	CampaignID   string   `json:"campaign_id"`
	CampaignName string   `json:"campaign_name"`
	Priority     int      `json:"priority"`
	OverlapCount int      `json:"overlap_count"`
	ProductIDs   []string `json:"product_ids"`
}

// CoverageReport previews what an authored campaign would actually discount
// once higher-priority campaigns take their share.
type CoverageReport struct {
	MatchedCount       int        `json:"matched_count"`
	ConflictedCount    int        `json:"conflicted_count"`
	DiscountedCount    int        `json:"discounted_count"`
	CoveragePercentage float64    `json:"coverage_percentage"`
	Conflicts          []Conflict `json:"conflicts,omitempty"`
}

// Resolver resolves product sets through the selector, so conflict detection
// sees exactly what price application would see.
type Resolver struct {
	selector *selector.Selector
}

func NewResolver(s *selector.Selector) *Resolver {
	return &Resolver{selector: s}
}

// FindConflicts reports every active campaign with strictly higher priority
// whose resolved product set intersects the candidate's. Equal priority is
// not a conflict here; the age tie-break applies only at final price
// application (PickWinner).
func (r *Resolver) FindConflicts(ctx context.Context, candidate domain.Campaign, active []domain.Campaign) ([]Conflict, error) {
	candidateIDs, err := r.selector.Resolve(ctx, candidate.Selection)
	if err != nil {
		return nil, err
	}
	return r.findAgainst(ctx, candidate, candidateIDs, active)
}

func (r *Resolver) findAgainst(ctx context.Context, candidate domain.Campaign, candidateIDs []string, active []domain.Campaign) ([]Conflict, error) {
	candidateSet := make(map[string]struct{}, len(candidateIDs))
	for _, id := range candidateIDs {
		candidateSet[id] = struct{}{}
	}

	conflicts := make([]Conflict, 0)
	for _, other := range active {
		if other.ID == candidate.ID || other.Priority <= candidate.Priority {
			continue
		}

		otherIDs, err := r.selector.Resolve(ctx, other.Selection)
		if err != nil {
			return nil, err
		}

		var overlap []string
		for _, id := range otherIDs {
			if _, ok := candidateSet[id]; ok {
				overlap = append(overlap, id)
			}
		}
		if len(overlap) == 0 {
			continue
		}

		sort.Strings(overlap)
		conflicts = append(conflicts, Conflict{
			CampaignID:   other.ID,
			CampaignName: other.Name,
			Priority:     other.Priority,
			OverlapCount: len(overlap),
			ProductIDs:   overlap,
		})
	}
	return conflicts, nil
}

// PreviewCoverage subtracts conflicted products from the matched set before
// computing the coverage percentage. A random selection is additionally
// capped at its random_count.
func (r *Resolver) PreviewCoverage(ctx context.Context, draft domain.Campaign, active []domain.Campaign) (CoverageReport, error) {
	matched, err := r.selector.Resolve(ctx, draft.Selection)
	if err != nil {
		return CoverageReport{}, err
	}

	conflicts, err := r.findAgainst(ctx, draft, matched, active)
	if err != nil {
		return CoverageReport{}, err
	}

	conflicted := make(map[string]struct{})
	for _, c := range conflicts {
		for _, id := range c.ProductIDs {
			conflicted[id] = struct{}{}
		}
	}

	remaining := 0
	for _, id := range matched {
		if _, ok := conflicted[id]; !ok {
			remaining++
		}
	}
	discounted := selector.PoolSize(draft.Selection, remaining)

	report := CoverageReport{
		MatchedCount:    len(matched),
		ConflictedCount: len(conflicted),
		DiscountedCount: discounted,
		Conflicts:       conflicts,
	}
	if len(matched) > 0 {
		report.CoveragePercentage = float64(discounted) / float64(len(matched)) * 100
	}
	return report, nil
}

// PickWinner selects the campaign that applies at final price application:
// highest priority first, then the older campaign, then the lower ID. Returns
// nil for an empty slate.
func PickWinner(campaigns []domain.Campaign) *domain.Campaign {
	var winner *domain.Campaign
	for i := range campaigns {
		c := &campaigns[i]
		if winner == nil || beats(c, winner) {
			winner = c
		}
	}
	return winner
}

func beats(a, b *domain.Campaign) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
