package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Discount type constants.
const (
	DiscountTypePercentage     = "percentage"
	DiscountTypeFixed          = "fixed"
	DiscountTypeTiered         = "tiered"
	DiscountTypeSpendThreshold = "spend_threshold"
	DiscountTypeBOGO           = "bogo"
)

// Campaign status constants.
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusScheduled = "scheduled"
	CampaignStatusActive    = "active"
	CampaignStatusPaused    = "paused"
	CampaignStatusExpired   = "expired"
)

// Product selection type constants.
const (
	SelectionAllProducts      = "all_products"
	SelectionSpecificProducts = "specific_products"
	SelectionCategories       = "categories"
	SelectionRandomProducts   = "random_products"
	SelectionSmart            = "smart"
	SelectionConditions       = "conditions"
)

// Tiered discount application modes.
const (
	ApplyPerItem    = "per_item"
	ApplyOrderTotal = "order_total"
)

// Priority bounds. Higher priority wins conflicts.
const (
	MinPriority = 1
	MaxPriority = 5
)

// Campaign is a named, scheduled, prioritized discount policy targeting a
// product selection. The engine treats campaigns as read-only: every
// evaluation is a pure function of the campaign definition plus the
// point-in-time context supplied by the caller.
type Campaign struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Priority    int              `json:"priority"`
	Status      string           `json:"status"`
	Discount    DiscountConfig   `json:"discount"`
	Selection   ProductSelection `json:"selection"`
	Schedule    Schedule         `json:"schedule"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Schedule bounds a campaign in time.
type Schedule struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Timezone string    `json:"timezone"`
}

// DiscountConfig is discriminated by Type; type-specific fields are populated
// only for the matching type.
type DiscountConfig struct {
	Type string `json:"type"`

	// percentage (0-100) or fixed amount, depending on Type.
	Value decimal.Decimal `json:"value"`

	// tiered
	ApplyTo string `json:"apply_to,omitempty"`
	Tiers   []Tier `json:"tiers,omitempty"`

	// spend_threshold
	Thresholds []Threshold `json:"thresholds,omitempty"`

	// bogo
	BuyQuantity     int             `json:"buy_quantity,omitempty"`
	GetQuantity     int             `json:"get_quantity,omitempty"`
	DiscountPercent decimal.Decimal `json:"discount_percent,omitempty"`
}

// Tier is a quantity-keyed discount breakpoint. Among tiers whose MinQuantity
// is satisfied, the one with the largest MinQuantity applies.
type Tier struct {
	MinQuantity   int             `json:"min_quantity"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

// Threshold is a spend-keyed discount breakpoint with the same
// highest-qualifying selection semantics as Tier.
type Threshold struct {
	SpendAmount   decimal.Decimal `json:"spend_amount"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

// ProductSelection is discriminated by Type.
type ProductSelection struct {
	Type        string   `json:"type"`
	ProductIDs  []string `json:"product_ids,omitempty"`
	CategoryIDs []string `json:"category_ids,omitempty"`
	RandomCount int      `json:"random_count,omitempty"`

	Smart *SmartCriteria `json:"smart,omitempty"`

	// Conditions carries the raw authoring-surface condition records.
	// The condition engine normalizes the heterogeneous shapes; the
	// domain layer does not interpret them.
	Conditions []map[string]any `json:"conditions,omitempty"`

	// ConditionLogic is "all" or "any"; empty means "all".
	ConditionLogic string `json:"condition_logic,omitempty"`
}

// SmartCriteria filters the catalog by attribute bounds.
type SmartCriteria struct {
	MinPrice *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice *decimal.Decimal `json:"max_price,omitempty"`
	MinStock *int             `json:"min_stock,omitempty"`
	MaxStock *int             `json:"max_stock,omitempty"`
}

// ValidDiscountTypes returns the set of valid discount types.
func ValidDiscountTypes() []string {
	return []string{
		DiscountTypePercentage,
		DiscountTypeFixed,
		DiscountTypeTiered,
		DiscountTypeSpendThreshold,
		DiscountTypeBOGO,
	}
}

// IsValidDiscountType checks whether the given string is a valid discount type.
func IsValidDiscountType(t string) bool {
	for _, v := range ValidDiscountTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// ValidStatuses returns the set of valid campaign statuses.
func ValidStatuses() []string {
	return []string{
		CampaignStatusDraft,
		CampaignStatusScheduled,
		CampaignStatusActive,
		CampaignStatusPaused,
		CampaignStatusExpired,
	}
}

// IsValidStatus checks whether the given string is a valid campaign status.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// ValidSelectionTypes returns the set of valid product selection types.
func ValidSelectionTypes() []string {
	return []string{
		SelectionAllProducts,
		SelectionSpecificProducts,
		SelectionCategories,
		SelectionRandomProducts,
		SelectionSmart,
		SelectionConditions,
	}
}

// IsValidSelectionType checks whether the given string is a valid selection type.
func IsValidSelectionType(t string) bool {
	for _, v := range ValidSelectionTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// IsValidPriority checks whether the priority is within bounds.
func IsValidPriority(p int) bool {
	return p >= MinPriority && p <= MaxPriority
}

// statusTransitions maps each status to the statuses it may move to.
// Expired is terminal.
var statusTransitions = map[string][]string{
	CampaignStatusDraft:     {CampaignStatusScheduled, CampaignStatusActive},
	CampaignStatusScheduled: {CampaignStatusActive, CampaignStatusPaused},
	CampaignStatusActive:    {CampaignStatusPaused, CampaignStatusExpired},
	CampaignStatusPaused:    {CampaignStatusActive, CampaignStatusExpired},
	CampaignStatusExpired:   {},
}

// CanTransition reports whether a campaign may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsActiveAt reports whether the campaign is live at the given instant:
// status active and the instant inside the schedule window.
func (c *Campaign) IsActiveAt(now time.Time) bool {
	if c.Status != CampaignStatusActive {
		return false
	}
	if now.Before(c.Schedule.StartsAt) {
		return false
	}
	if !c.Schedule.EndsAt.IsZero() && now.After(c.Schedule.EndsAt) {
		return false
	}
	return true
}
