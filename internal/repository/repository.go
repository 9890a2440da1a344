package repository

import (
	"context"
	"time"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/domain"
)

// CampaignFilter defines filter criteria for listing campaigns.
type CampaignFilter struct {
	Status       *string
	DiscountType *string
	Page         int
	PerPage      int
}

// CampaignRepository defines the interface for campaign persistence operations.
type CampaignRepository interface {
	// Create inserts a new campaign into the store.
	Create(ctx context.Context, campaign *domain.Campaign) error

	// GetByID retrieves a campaign by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)

	// List returns campaigns matching the given filter along with the total count.
	List(ctx context.Context, filter CampaignFilter) ([]domain.Campaign, int, error)

	// ListActive returns campaigns whose status is active and whose schedule
	// covers the given instant, ordered for deterministic conflict resolution.
	ListActive(ctx context.Context, at time.Time) ([]domain.Campaign, error)

	// Update modifies an existing campaign in the store.
	Update(ctx context.Context, campaign *domain.Campaign) error

	// UpdateStatus sets only the status of a campaign.
	UpdateStatus(ctx context.Context, id, status string) error

	// Delete removes a campaign by its ID.
	Delete(ctx context.Context, id string) error
}
