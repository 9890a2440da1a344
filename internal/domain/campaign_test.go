package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValidDiscountType(t *testing.T) {
	for _, typ := range ValidDiscountTypes() {
		assert.True(t, IsValidDiscountType(typ), typ)
	}
	assert.False(t, IsValidDiscountType("coupon"))
	assert.False(t, IsValidDiscountType(""))
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range ValidStatuses() {
		assert.True(t, IsValidStatus(s), s)
	}
	assert.False(t, IsValidStatus("archived"))
	assert.False(t, IsValidStatus(""))
}

func TestIsValidSelectionType(t *testing.T) {
	for _, s := range ValidSelectionTypes() {
		assert.True(t, IsValidSelectionType(s), s)
	}
	assert.False(t, IsValidSelectionType("everything"))
}

func TestIsValidPriority(t *testing.T) {
	assert.False(t, IsValidPriority(0))
	assert.True(t, IsValidPriority(1))
	assert.True(t, IsValidPriority(5))
	assert.False(t, IsValidPriority(6))
	assert.False(t, IsValidPriority(-1))
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{CampaignStatusDraft, CampaignStatusActive, true},
		{CampaignStatusDraft, CampaignStatusScheduled, true},
		{CampaignStatusDraft, CampaignStatusExpired, false},
		{CampaignStatusScheduled, CampaignStatusActive, true},
		{CampaignStatusActive, CampaignStatusPaused, true},
		{CampaignStatusActive, CampaignStatusExpired, true},
		{CampaignStatusPaused, CampaignStatusActive, true},
		{CampaignStatusExpired, CampaignStatusActive, false},
		{CampaignStatusExpired, CampaignStatusDraft, false},
		{CampaignStatusActive, CampaignStatusDraft, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCampaign_IsActiveAt(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(30 * 24 * time.Hour)

	campaign := &Campaign{
		Status:   CampaignStatusActive,
		Schedule: Schedule{StartsAt: start, EndsAt: end},
	}

	assert.False(t, campaign.IsActiveAt(start.Add(-time.Minute)))
	assert.True(t, campaign.IsActiveAt(start))
	assert.True(t, campaign.IsActiveAt(start.Add(time.Hour)))
	assert.False(t, campaign.IsActiveAt(end.Add(time.Minute)))

	campaign.Status = CampaignStatusPaused
	assert.False(t, campaign.IsActiveAt(start.Add(time.Hour)))
}

func TestCampaign_IsActiveAt_OpenEnded(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	campaign := &Campaign{
		Status:   CampaignStatusActive,
		Schedule: Schedule{StartsAt: start},
	}

	assert.True(t, campaign.IsActiveAt(start.Add(365*24*time.Hour)))
}
