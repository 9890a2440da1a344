// Package selector resolves a campaign's product selection policy into the
// concrete set of product IDs it targets. Resolution is memoized through the
// cache collaborator; freshness follows the cache's invalidation contract.
package selector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/cache"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/catalog"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/condition"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/domain"
	apperrors "github.com/webstepper/smart-cycle-discounts-sub018/pkg/errors"
)

// CategorySentinelAll is the authoring-surface placeholder meaning "no
// category restriction". It is filtered out before any category lookup.
const CategorySentinelAll = "all"

// Selector dispatches on the selection type. Safe for concurrent use.
type Selector struct {
	catalog catalog.Provider
	engine  *condition.Engine
	cache   *cache.Cache
}

// New creates a Selector. cache may be nil, in which case every resolution
// goes straight to the catalog.
func New(provider catalog.Provider, engine *condition.Engine, c *cache.Cache) *Selector {
	return &Selector{catalog: provider, engine: engine, cache: c}
}

// Resolve returns the product IDs the selection targets, sorted for
// deterministic output. For random selections this is the eligible pool,
// not a sample; truncation to random_count happens downstream.
func (s *Selector) Resolve(ctx context.Context, sel domain.ProductSelection) ([]string, error) {
	if s.cache == nil {
		return s.resolve(ctx, sel)
	}

	var ids []string
	err := s.cache.Remember(ctx, cache.GroupProducts, selectionKey(sel), &ids, func(ctx context.Context) (any, error) {
		return s.resolve(ctx, sel)
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Selector) resolve(ctx context.Context, sel domain.ProductSelection) ([]string, error) {
	var (
		ids []string
		err error
	)

	switch sel.Type {
	case domain.SelectionAllProducts, domain.SelectionRandomProducts:
		// Both resolve the eligible pool, narrowed by categories only
		// when non-trivial ones are present.
		ids, err = s.poolByCategories(ctx, sel.CategoryIDs)

	case domain.SelectionSpecificProducts:
		ids, err = s.existingOnly(ctx, sel.ProductIDs)

	case domain.SelectionCategories:
		ids, err = s.poolByCategories(ctx, sel.CategoryIDs)

	case domain.SelectionSmart:
		ids, err = s.smart(ctx, sel.Smart)

	case domain.SelectionConditions:
		all, cerr := s.catalog.AllProductIDs(ctx)
		if cerr != nil {
			err = cerr
			break
		}
		logic := condition.Logic(sel.ConditionLogic)
		if logic != condition.LogicAny {
			logic = condition.LogicAll
		}
		ids, err = s.engine.ApplyRaw(ctx, all, sel.Conditions, logic)

	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown selection type %q", sel.Type))
	}

	if err != nil {
		return nil, apperrors.Unavailable("catalog", err)
	}

	sort.Strings(ids)
	return ids, nil
}

// poolByCategories returns the full catalog when the category list is
// trivial (empty or only the sentinel), otherwise the exact-match members
// of the remaining categories. No taxonomy descent.
func (s *Selector) poolByCategories(ctx context.Context, categoryIDs []string) ([]string, error) {
	filtered := make([]string, 0, len(categoryIDs))
	for _, c := range categoryIDs {
		if c == "" || c == CategorySentinelAll {
			continue
		}
		filtered = append(filtered, c)
	}
	if len(filtered) == 0 {
		return s.catalog.AllProductIDs(ctx)
	}
	return s.catalog.ProductIDsByCategory(ctx, filtered)
}

// existingOnly drops IDs the catalog does not know.
func (s *Selector) existingOnly(ctx context.Context, ids []string) ([]string, error) {
	products, err := s.catalog.ProductsByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out, nil
}

func (s *Selector) smart(ctx context.Context, criteria *domain.SmartCriteria) ([]string, error) {
	all, err := s.catalog.AllProductIDs(ctx)
	if err != nil {
		return nil, err
	}
	if criteria == nil {
		return all, nil
	}

	products, err := s.catalog.ProductsByID(ctx, all)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(products))
	for _, p := range products {
		if criteria.MinPrice != nil && p.Price.LessThan(*criteria.MinPrice) {
			continue
		}
		if criteria.MaxPrice != nil && p.Price.GreaterThan(*criteria.MaxPrice) {
			continue
		}
		if criteria.MinStock != nil && p.Stock < *criteria.MinStock {
			continue
		}
		if criteria.MaxStock != nil && p.Stock > *criteria.MaxStock {
			continue
		}
		out = append(out, p.ID)
	}
	return out, nil
}

// PoolSize reports how many products a selection would discount, honoring
// the random_count truncation invariant.
func PoolSize(sel domain.ProductSelection, poolLen int) int {
	if sel.Type == domain.SelectionRandomProducts && sel.RandomCount > 0 && sel.RandomCount < poolLen {
		return sel.RandomCount
	}
	return poolLen
}

// selectionKey derives a stable cache suffix from the selection content.
func selectionKey(sel domain.ProductSelection) string {
	raw, err := json.Marshal(sel)
	if err != nil {
		return "selection:invalid"
	}
	sum := sha256.Sum256(raw)
	return "selection:" + hex.EncodeToString(sum[:16])
}
