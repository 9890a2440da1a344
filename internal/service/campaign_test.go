package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/domain"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/event"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/repository"
	apperrors "github.com/webstepper/smart-cycle-discounts-sub018/pkg/errors"
	pkgkafka "github.com/webstepper/smart-cycle-discounts-sub018/pkg/kafka"
)

// --- Mock Repository ---

type mockCampaignRepository struct {
	mock.Mock
}

func (m *mockCampaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	args := m.Called(ctx, campaign)
	return args.Error(0)
}

func (m *mockCampaignRepository) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campaign), args.Error(1)
}

func (m *mockCampaignRepository) List(ctx context.Context, filter repository.CampaignFilter) ([]domain.Campaign, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Campaign), args.Int(1), args.Error(2)
}

func (m *mockCampaignRepository) ListActive(ctx context.Context, at time.Time) ([]domain.Campaign, error) {
	args := m.Called(ctx, at)
	return args.Get(0).([]domain.Campaign), args.Error(1)
}

func (m *mockCampaignRepository) Update(ctx context.Context, campaign *domain.Campaign) error {
	args := m.Called(ctx, campaign)
	return args.Error(0)
}

func (m *mockCampaignRepository) UpdateStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockCampaignRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(repo *mockCampaignRepository) *CampaignService {
	logger := newTestLogger()
	// Event publishing fails silently in tests (no real broker).
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	producer := event.NewProducer(kafkaProducer, logger)
	return NewCampaignService(repo, producer, nil, logger)
}

func validCreateInput() *CreateCampaignInput {
	return &CreateCampaignInput{
		Name:     "Spring Clearance",
		Priority: 3,
		Discount: domain.DiscountConfig{
			Type:  domain.DiscountTypePercentage,
			Value: decimal.NewFromInt(15),
		},
		Selection: domain.ProductSelection{
			Type:        domain.SelectionCategories,
			CategoryIDs: []string{"clearance"},
		},
		StartsAt: time.Now().UTC().Add(24 * time.Hour),
		EndsAt:   time.Now().UTC().Add(30 * 24 * time.Hour),
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// --- Tests ---

func TestCreateCampaign_Success(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestService(repo)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Campaign")).Return(nil)

	campaign, err := svc.CreateCampaign(context.Background(), validCreateInput())
	require.NoError(t, err)
	require.NotNil(t, campaign)

	assert.NotEmpty(t, campaign.ID)
	assert.Equal(t, domain.CampaignStatusDraft, campaign.Status)
	assert.Equal(t, "UTC", campaign.Schedule.Timezone)
	assert.False(t, campaign.CreatedAt.IsZero())
	repo.AssertExpectations(t)
}

func TestCreateCampaign_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateCampaignInput)
	}{
		{"empty name", func(in *CreateCampaignInput) { in.Name = "" }},
		{"priority out of range", func(in *CreateCampaignInput) { in.Priority = 9 }},
		{"unknown discount type", func(in *CreateCampaignInput) { in.Discount.Type = "raffle" }},
		{"percentage above 100", func(in *CreateCampaignInput) { in.Discount.Value = decimal.NewFromInt(150) }},
		{"unknown selection type", func(in *CreateCampaignInput) { in.Selection.Type = "psychic" }},
		{"categories without ids", func(in *CreateCampaignInput) { in.Selection.CategoryIDs = nil }},
		{"missing start date", func(in *CreateCampaignInput) { in.StartsAt = time.Time{} }},
		{"end before start", func(in *CreateCampaignInput) { in.EndsAt = in.StartsAt.Add(-time.Hour) }},
		{"unknown timezone", func(in *CreateCampaignInput) { in.Timezone = "Mars/Olympus" }},
		{
			"tiered without tiers",
			func(in *CreateCampaignInput) {
				in.Discount = domain.DiscountConfig{Type: domain.DiscountTypeTiered}
			},
		},
		{
			"bogo without quantities",
			func(in *CreateCampaignInput) {
				in.Discount = domain.DiscountConfig{Type: domain.DiscountTypeBOGO}
			},
		},
		{
			"condition selection with malformed condition",
			func(in *CreateCampaignInput) {
				in.Selection = domain.ProductSelection{
					Type: domain.SelectionConditions,
					Conditions: []map[string]any{
						{"property": "price", "operator": "between", "value": 40},
					},
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockCampaignRepository)
			svc := newTestService(repo)

			input := validCreateInput()
			tt.mutate(input)

			_, err := svc.CreateCampaign(context.Background(), input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			repo.AssertNotCalled(t, "Create")
		})
	}
}

func TestCreateCampaign_OpenEndedSchedule(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestService(repo)

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	input := validCreateInput()
	input.EndsAt = time.Time{}

	campaign, err := svc.CreateCampaign(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, campaign.Schedule.EndsAt.IsZero())
	repo.AssertExpectations(t)
}

func TestUpdateCampaign_Partial(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestService(repo)

	existing := &domain.Campaign{
		ID:       "camp-1",
		Name:     "Old Name",
		Priority: 2,
		Status:   domain.CampaignStatusDraft,
		Discount: domain.DiscountConfig{Type: domain.DiscountTypePercentage, Value: decimal.NewFromInt(10)},
		Selection: domain.ProductSelection{
			Type:       domain.SelectionSpecificProducts,
			ProductIDs: []string{"p1"},
		},
		Schedule: domain.Schedule{StartsAt: time.Now().UTC(), Timezone: "UTC"},
	}

	repo.On("GetByID", mock.Anything, "camp-1").Return(existing, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := svc.UpdateCampaign(context.Background(), "camp-1", &UpdateCampaignInput{
		Name:     strPtr("New Name"),
		Priority: intPtr(5),
	})
	require.NoError(t, err)

	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, 5, updated.Priority)
	assert.Equal(t, domain.DiscountTypePercentage, updated.Discount.Type, "untouched fields survive")
	repo.AssertExpectations(t)
}

func TestUpdateCampaign_NotFound(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestService(repo)

	repo.On("GetByID", mock.Anything, "ghost").Return(nil, apperrors.NotFound("campaign", "ghost"))

	_, err := svc.UpdateCampaign(context.Background(), "ghost", &UpdateCampaignInput{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestChangeStatus_ValidTransition(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestService(repo)

	existing := &domain.Campaign{ID: "camp-1", Status: domain.CampaignStatusDraft}
	repo.On("GetByID", mock.Anything, "camp-1").Return(existing, nil)
	repo.On("UpdateStatus", mock.Anything, "camp-1", domain.CampaignStatusActive).Return(nil)

	campaign, err := svc.ChangeStatus(context.Background(), "camp-1", domain.CampaignStatusActive)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignStatusActive, campaign.Status)
	repo.AssertExpectations(t)
}

func TestChangeStatus_InvalidTransition(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestService(repo)

	existing := &domain.Campaign{ID: "camp-1", Status: domain.CampaignStatusExpired}
	repo.On("GetByID", mock.Anything, "camp-1").Return(existing, nil)

	_, err := svc.ChangeStatus(context.Background(), "camp-1", domain.CampaignStatusActive)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	repo.AssertNotCalled(t, "UpdateStatus")
}

func TestChangeStatus_SameStatusIsNoOp(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestService(repo)

	existing := &domain.Campaign{ID: "camp-1", Status: domain.CampaignStatusActive}
	repo.On("GetByID", mock.Anything, "camp-1").Return(existing, nil)

	campaign, err := svc.ChangeStatus(context.Background(), "camp-1", domain.CampaignStatusActive)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignStatusActive, campaign.Status)
	repo.AssertNotCalled(t, "UpdateStatus")
}

func TestChangeStatus_UnknownStatus(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestService(repo)

	_, err := svc.ChangeStatus(context.Background(), "camp-1", "vaporized")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "GetByID")
}

func TestDeleteCampaign(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestService(repo)

	existing := &domain.Campaign{ID: "camp-1", Status: domain.CampaignStatusDraft}
	repo.On("GetByID", mock.Anything, "camp-1").Return(existing, nil)
	repo.On("Delete", mock.Anything, "camp-1").Return(nil)

	err := svc.DeleteCampaign(context.Background(), "camp-1")
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestListCampaigns_PaginationClamped(t *testing.T) {
	repo := new(mockCampaignRepository)
	svc := newTestService(repo)

	repo.On("List", mock.Anything, repository.CampaignFilter{Page: 1, PerPage: 100}).
		Return([]domain.Campaign{}, 0, nil)

	_, _, err := svc.ListCampaigns(context.Background(), repository.CampaignFilter{Page: 0, PerPage: 500})
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
