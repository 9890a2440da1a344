package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/analytics"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/catalog"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/condition"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/conflict"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/discount"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/domain"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/repository"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/selector"
	apperrors "github.com/webstepper/smart-cycle-discounts-sub018/pkg/errors"
)

// EngineService is the evaluation facade exposed to the authoring and
// storefront surfaces: product resolution, condition filtering, discount
// calculation, and conflict resolution. It holds no mutable state; every
// call is a pure function of campaign definitions and the supplied context.
type EngineService struct {
	repo       repository.CampaignRepository
	catalog    catalog.Provider
	selector   *selector.Selector
	engine     *condition.Engine
	calculator *discount.Calculator
	resolver   *conflict.Resolver
	analytics  *analytics.Service
	logger     *slog.Logger

	now func() time.Time
}

// NewEngineService wires the evaluation components together. analytics may
// be nil when no tracking source is configured.
func NewEngineService(
	repo repository.CampaignRepository,
	provider catalog.Provider,
	sel *selector.Selector,
	engine *condition.Engine,
	resolver *conflict.Resolver,
	analyticsSvc *analytics.Service,
	logger *slog.Logger,
) *EngineService {
	return &EngineService{
		repo:       repo,
		catalog:    provider,
		selector:   sel,
		engine:     engine,
		calculator: discount.NewCalculator(),
		resolver:   resolver,
		analytics:  analyticsSvc,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ResolveProducts returns the product IDs a selection targets.
func (s *EngineService) ResolveProducts(ctx context.Context, sel domain.ProductSelection) ([]string, error) {
	return s.selector.Resolve(ctx, sel)
}

// ApplyConditions filters product IDs by raw authoring-surface conditions.
func (s *EngineService) ApplyConditions(ctx context.Context, ids []string, conditions []map[string]any, logic string) ([]string, error) {
	l := condition.Logic(logic)
	if l != condition.LogicAny {
		l = condition.LogicAll
	}
	return s.engine.ApplyRaw(ctx, ids, conditions, l)
}

// ValidateCondition strictly checks one condition record for the authoring
// surface.
func (s *EngineService) ValidateCondition(record map[string]any) error {
	return condition.Validate(record)
}

// CalculateDiscount runs the strategy for the given config.
func (s *EngineService) CalculateDiscount(price decimal.Decimal, cfg domain.DiscountConfig, dctx discount.Context) (discount.Result, error) {
	return s.calculator.Calculate(price, cfg, dctx)
}

// FindConflicts reports the higher-priority active campaigns overlapping the
// given campaign's product set.
func (s *EngineService) FindConflicts(ctx context.Context, campaignID string) ([]conflict.Conflict, error) {
	campaign, err := s.repo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("get campaign for conflict check: %w", err)
	}

	active, err := s.repo.ListActive(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}

	return s.resolver.FindConflicts(ctx, *campaign, active)
}

// PreviewCoverage reports what a draft campaign would discount once
// higher-priority active campaigns take their share. The draft does not need
// to be persisted.
func (s *EngineService) PreviewCoverage(ctx context.Context, draft domain.Campaign) (conflict.CoverageReport, error) {
	active, err := s.repo.ListActive(ctx, s.now())
	if err != nil {
		return conflict.CoverageReport{}, fmt.Errorf("list active campaigns: %w", err)
	}

	return s.resolver.PreviewCoverage(ctx, draft, active)
}

// ProductDiscount is the storefront answer for one product: the winning
// campaign and its computed price.
type ProductDiscount struct {
	ProductID    string          `json:"product_id"`
	CampaignID   string          `json:"campaign_id"`
	CampaignName string          `json:"campaign_name"`
	Priority     int             `json:"priority"`
	Result       discount.Result `json:"result"`
}

// BestDiscountForProduct resolves which active campaign governs the product
// at this instant and computes its discount. Returns nil when no campaign
// targets the product. Ties on priority go to the older campaign, then the
// lower ID.
func (s *EngineService) BestDiscountForProduct(ctx context.Context, productID string, dctx discount.Context) (*ProductDiscount, error) {
	products, err := s.catalog.ProductsByID(ctx, []string{productID})
	if err != nil {
		return nil, apperrors.Unavailable("catalog", err)
	}
	if len(products) == 0 {
		return nil, apperrors.NotFound("product", productID)
	}
	product := products[0]

	now := s.now()
	active, err := s.repo.ListActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}

	var contenders []domain.Campaign
	for _, campaign := range active {
		if !campaign.IsActiveAt(now) {
			continue
		}
		ids, err := s.selector.Resolve(ctx, campaign.Selection)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if id == productID {
				contenders = append(contenders, campaign)
				break
			}
		}
	}

	winner := conflict.PickWinner(contenders)
	if winner == nil {
		return nil, nil
	}

	result, err := s.calculator.Calculate(product.Price, winner.Discount, dctx)
	if err != nil {
		return nil, fmt.Errorf("calculate discount for campaign %s: %w", winner.ID, err)
	}

	return &ProductDiscount{
		ProductID:    productID,
		CampaignID:   winner.ID,
		CampaignName: winner.Name,
		Priority:     winner.Priority,
		Result:       result,
	}, nil
}

// CampaignPerformance returns derived analytics rates for a campaign.
func (s *EngineService) CampaignPerformance(ctx context.Context, campaignID string, from, to time.Time) (analytics.Performance, error) {
	if s.analytics == nil {
		return analytics.Performance{}, apperrors.Unavailable("analytics", fmt.Errorf("no tracking source configured"))
	}

	// Confirm the campaign exists so callers get a 404 rather than empty
	// rates for a bogus ID.
	if _, err := s.repo.GetByID(ctx, campaignID); err != nil {
		return analytics.Performance{}, fmt.Errorf("get campaign for performance: %w", err)
	}

	return s.analytics.CampaignPerformance(ctx, campaignID, from, to)
}
