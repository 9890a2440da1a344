package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/cache"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/condition"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/domain"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/event"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/repository"
	apperrors "github.com/webstepper/smart-cycle-discounts-sub018/pkg/errors"
)

// CampaignService implements the business logic for campaign lifecycle
// operations. Every mutation invalidates all cache groups eagerly; no stale
// discount is ever served at the cost of cache hit-rate.
type CampaignService struct {
	repo     repository.CampaignRepository
	producer *event.Producer
	cache    *cache.Cache
	logger   *slog.Logger
}

// NewCampaignService creates a new campaign service. cache may be nil.
func NewCampaignService(repo repository.CampaignRepository, producer *event.Producer, c *cache.Cache, logger *slog.Logger) *CampaignService {
	return &CampaignService{
		repo:     repo,
		producer: producer,
		cache:    c,
		logger:   logger,
	}
}

// CreateCampaignInput holds the parameters for creating a campaign.
type CreateCampaignInput struct {
	Name        string
	Description string
	Priority    int
	Discount    domain.DiscountConfig
	Selection   domain.ProductSelection
	StartsAt    time.Time
	EndsAt      time.Time
	Timezone    string
}

// UpdateCampaignInput holds the parameters for updating a campaign.
type UpdateCampaignInput struct {
	Name        *string
	Description *string
	Priority    *int
	Discount    *domain.DiscountConfig
	Selection   *domain.ProductSelection
	StartsAt    *time.Time
	EndsAt      *time.Time
	Timezone    *string
}

// CreateCampaign creates a new campaign in draft status.
func (s *CampaignService) CreateCampaign(ctx context.Context, input *CreateCampaignInput) (*domain.Campaign, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("campaign name is required")
	}
	if !domain.IsValidPriority(input.Priority) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("priority must be between %d and %d", domain.MinPriority, domain.MaxPriority))
	}
	if err := validateDiscount(&input.Discount); err != nil {
		return nil, err
	}
	if err := validateSelection(&input.Selection); err != nil {
		return nil, err
	}
	if input.StartsAt.IsZero() {
		return nil, apperrors.InvalidInput("start date is required")
	}
	if !input.EndsAt.IsZero() && !input.EndsAt.After(input.StartsAt) {
		return nil, apperrors.InvalidInput("end date must be after start date")
	}

	timezone := input.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown timezone %q", timezone))
	}

	now := time.Now().UTC()
	campaign := &domain.Campaign{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		Priority:    input.Priority,
		Status:      domain.CampaignStatusDraft,
		Discount:    input.Discount,
		Selection:   input.Selection,
		Schedule: domain.Schedule{
			StartsAt: input.StartsAt,
			EndsAt:   input.EndsAt,
			Timezone: timezone,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}

	s.afterMutation(ctx, campaign.ID, func() error {
		return s.producer.PublishCampaignCreated(ctx, campaign)
	})

	s.logger.InfoContext(ctx, "campaign created",
		slog.String("campaign_id", campaign.ID),
		slog.String("name", campaign.Name),
	)

	return campaign, nil
}

// GetCampaign retrieves a campaign by its ID.
func (s *CampaignService) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get campaign by id: %w", err)
	}
	return campaign, nil
}

// ListCampaigns returns a filtered, paginated list of campaigns.
func (s *CampaignService) ListCampaigns(ctx context.Context, filter repository.CampaignFilter) ([]domain.Campaign, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	campaigns, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}

	return campaigns, total, nil
}

// UpdateCampaign applies partial updates to an existing campaign.
func (s *CampaignService) UpdateCampaign(ctx context.Context, id string, input *UpdateCampaignInput) (*domain.Campaign, error) {
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get campaign for update: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("campaign name must not be empty")
		}
		campaign.Name = *input.Name
	}

	if input.Description != nil {
		campaign.Description = *input.Description
	}

	if input.Priority != nil {
		if !domain.IsValidPriority(*input.Priority) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("priority must be between %d and %d", domain.MinPriority, domain.MaxPriority))
		}
		campaign.Priority = *input.Priority
	}

	if input.Discount != nil {
		if err := validateDiscount(input.Discount); err != nil {
			return nil, err
		}
		campaign.Discount = *input.Discount
	}

	if input.Selection != nil {
		if err := validateSelection(input.Selection); err != nil {
			return nil, err
		}
		campaign.Selection = *input.Selection
	}

	if input.StartsAt != nil {
		campaign.Schedule.StartsAt = *input.StartsAt
	}

	if input.EndsAt != nil {
		campaign.Schedule.EndsAt = *input.EndsAt
	}

	if input.Timezone != nil {
		if _, err := time.LoadLocation(*input.Timezone); err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown timezone %q", *input.Timezone))
		}
		campaign.Schedule.Timezone = *input.Timezone
	}

	if !campaign.Schedule.EndsAt.IsZero() && !campaign.Schedule.EndsAt.After(campaign.Schedule.StartsAt) {
		return nil, apperrors.InvalidInput("end date must be after start date")
	}

	if err := s.repo.Update(ctx, campaign); err != nil {
		return nil, fmt.Errorf("update campaign: %w", err)
	}

	s.afterMutation(ctx, campaign.ID, func() error {
		return s.producer.PublishCampaignUpdated(ctx, campaign)
	})

	s.logger.InfoContext(ctx, "campaign updated",
		slog.String("campaign_id", campaign.ID),
	)

	return campaign, nil
}

// ChangeStatus moves a campaign through its lifecycle. Invalid transitions
// are a state conflict, not a validation error: the request was well formed
// but the campaign is not in a state that allows it.
func (s *CampaignService) ChangeStatus(ctx context.Context, id, status string) (*domain.Campaign, error) {
	if !domain.IsValidStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s", status, strings.Join(domain.ValidStatuses(), ", ")))
	}

	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get campaign for status change: %w", err)
	}

	if campaign.Status == status {
		return campaign, nil
	}
	if !domain.CanTransition(campaign.Status, status) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot transition campaign from %s to %s", campaign.Status, status))
	}

	from := campaign.Status
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update campaign status: %w", err)
	}
	campaign.Status = status

	s.afterMutation(ctx, campaign.ID, func() error {
		return s.producer.PublishStatusChanged(ctx, campaign.ID, from, status)
	})

	s.logger.InfoContext(ctx, "campaign status changed",
		slog.String("campaign_id", campaign.ID),
		slog.String("from", from),
		slog.String("to", status),
	)

	return campaign, nil
}

// DeleteCampaign removes a campaign.
func (s *CampaignService) DeleteCampaign(ctx context.Context, id string) error {
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get campaign for delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}

	s.afterMutation(ctx, id, func() error {
		return s.producer.PublishCampaignDeleted(ctx, campaign)
	})

	s.logger.InfoContext(ctx, "campaign deleted",
		slog.String("campaign_id", id),
	)

	return nil
}

// afterMutation runs the eager cache invalidation and event publication that
// follow every lifecycle change. Neither failure aborts the operation; the
// write already succeeded.
func (s *CampaignService) afterMutation(ctx context.Context, campaignID string, publish func() error) {
	if s.cache != nil {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			s.logger.ErrorContext(ctx, "failed to invalidate cache after campaign mutation",
				slog.String("campaign_id", campaignID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := publish(); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish campaign event",
			slog.String("campaign_id", campaignID),
			slog.String("error", err.Error()),
		)
	}
}

func validateDiscount(cfg *domain.DiscountConfig) error {
	if !domain.IsValidDiscountType(cfg.Type) {
		return apperrors.InvalidInput(fmt.Sprintf("invalid discount type %q, must be one of: %s", cfg.Type, strings.Join(domain.ValidDiscountTypes(), ", ")))
	}

	switch cfg.Type {
	case domain.DiscountTypePercentage:
		if cfg.Value.IsNegative() || cfg.Value.GreaterThan(hundred) {
			return apperrors.InvalidInput("percentage value must be between 0 and 100")
		}

	case domain.DiscountTypeFixed:
		if cfg.Value.IsNegative() {
			return apperrors.InvalidInput("fixed discount value must not be negative")
		}

	case domain.DiscountTypeTiered:
		if len(cfg.Tiers) == 0 {
			return apperrors.InvalidInput("tiered discount requires at least one tier")
		}
		if cfg.ApplyTo != "" && cfg.ApplyTo != domain.ApplyPerItem && cfg.ApplyTo != domain.ApplyOrderTotal {
			return apperrors.InvalidInput(fmt.Sprintf("invalid apply_to %q", cfg.ApplyTo))
		}
		for i, tier := range cfg.Tiers {
			if tier.MinQuantity < 0 {
				return apperrors.InvalidInput(fmt.Sprintf("tier %d: min quantity must not be negative", i))
			}
			if err := validateBreakpoint(tier.DiscountType, tier.DiscountValue, fmt.Sprintf("tier %d", i)); err != nil {
				return err
			}
		}

	case domain.DiscountTypeSpendThreshold:
		if len(cfg.Thresholds) == 0 {
			return apperrors.InvalidInput("spend threshold discount requires at least one threshold")
		}
		for i, th := range cfg.Thresholds {
			if th.SpendAmount.IsNegative() {
				return apperrors.InvalidInput(fmt.Sprintf("threshold %d: spend amount must not be negative", i))
			}
			if err := validateBreakpoint(th.DiscountType, th.DiscountValue, fmt.Sprintf("threshold %d", i)); err != nil {
				return err
			}
		}

	case domain.DiscountTypeBOGO:
		if cfg.BuyQuantity <= 0 || cfg.GetQuantity <= 0 {
			return apperrors.InvalidInput("bogo discount requires positive buy and get quantities")
		}
		if cfg.DiscountPercent.IsNegative() || cfg.DiscountPercent.GreaterThan(hundred) {
			return apperrors.InvalidInput("bogo discount percent must be between 0 and 100")
		}
	}

	return nil
}

var hundred = decimal.NewFromInt(100)

func validateBreakpoint(discountType string, value decimal.Decimal, label string) error {
	if discountType != domain.DiscountTypePercentage && discountType != domain.DiscountTypeFixed {
		return apperrors.InvalidInput(fmt.Sprintf("%s: discount type must be percentage or fixed", label))
	}
	if value.IsNegative() {
		return apperrors.InvalidInput(fmt.Sprintf("%s: discount value must not be negative", label))
	}
	if discountType == domain.DiscountTypePercentage && value.GreaterThan(hundred) {
		return apperrors.InvalidInput(fmt.Sprintf("%s: percentage must not exceed 100", label))
	}
	return nil
}

func validateSelection(sel *domain.ProductSelection) error {
	if !domain.IsValidSelectionType(sel.Type) {
		return apperrors.InvalidInput(fmt.Sprintf("invalid selection type %q, must be one of: %s", sel.Type, strings.Join(domain.ValidSelectionTypes(), ", ")))
	}

	switch sel.Type {
	case domain.SelectionSpecificProducts:
		if len(sel.ProductIDs) == 0 {
			return apperrors.InvalidInput("specific product selection requires product ids")
		}

	case domain.SelectionCategories:
		if len(sel.CategoryIDs) == 0 {
			return apperrors.InvalidInput("category selection requires category ids")
		}

	case domain.SelectionRandomProducts:
		if sel.RandomCount <= 0 {
			return apperrors.InvalidInput("random selection requires a positive random count")
		}

	case domain.SelectionConditions:
		if len(sel.Conditions) == 0 {
			return apperrors.InvalidInput("condition selection requires at least one condition")
		}
		// Authoring-time validation is strict; the fail-open policy
		// only applies at evaluation time.
		for i, record := range sel.Conditions {
			if err := condition.Validate(record); err != nil {
				return apperrors.InvalidInput(fmt.Sprintf("condition %d: %v", i, err))
			}
		}
		if sel.ConditionLogic != "" && sel.ConditionLogic != string(condition.LogicAll) && sel.ConditionLogic != string(condition.LogicAny) {
			return apperrors.InvalidInput(fmt.Sprintf("invalid condition logic %q", sel.ConditionLogic))
		}
	}

	return nil
}
