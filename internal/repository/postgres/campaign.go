package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/domain"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/repository"
	apperrors "github.com/webstepper/smart-cycle-discounts-sub018/pkg/errors"
)

// DBTX is the subset of pgxpool.Pool the repository needs. pgxmock
// implements the same surface, so tests run against the identical code path.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CampaignRepository implements repository.CampaignRepository using PostgreSQL.
// The discount config and product selection are stored as JSONB documents;
// their shape is owned by the domain package.
type CampaignRepository struct {
	db DBTX
}

// NewCampaignRepository creates a new PostgreSQL-backed campaign repository.
func NewCampaignRepository(db DBTX) *CampaignRepository {
	return &CampaignRepository{db: db}
}

const campaignColumns = `id, name, description, priority, status, discount,
	   selection, starts_at, ends_at, timezone, created_at, updated_at`

// Create inserts a new campaign into the database.
func (r *CampaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	discountJSON, selectionJSON, err := marshalConfigs(c)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO campaigns (
			id, name, description, priority, status, discount,
			selection, starts_at, ends_at, timezone, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.db.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Description,
		c.Priority,
		c.Status,
		discountJSON,
		selectionJSON,
		c.Schedule.StartsAt,
		nullableTime(c.Schedule.EndsAt),
		c.Schedule.Timezone,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("campaign", "name", c.Name)
		}
		return fmt.Errorf("insert campaign: %w", err)
	}

	return nil
}

// GetByID retrieves a campaign by its ID.
func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM campaigns
		WHERE id = $1`, campaignColumns)

	c, err := r.scanCampaign(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("campaign", id)
		}
		return nil, err
	}
	return c, nil
}

// List returns campaigns matching the given filter with the total count.
func (r *CampaignRepository) List(ctx context.Context, filter repository.CampaignFilter) ([]domain.Campaign, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.DiscountType != nil {
		conditions = append(conditions, fmt.Sprintf("discount->>'type' = $%d", argIndex))
		args = append(args, *filter.DiscountType)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s,
			   count(*) OVER() AS total_count
		FROM campaigns
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		campaignColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var (
		campaigns  []domain.Campaign
		totalCount int
	)

	for rows.Next() {
		c, err := scanCampaignRow(rows, &totalCount)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate campaign rows: %w", err)
	}

	if campaigns == nil {
		campaigns = []domain.Campaign{}
	}

	return campaigns, totalCount, nil
}

// ListActive returns active campaigns whose schedule covers the given
// instant. Ordering matches the final-application tie-break: priority
// descending, then age, then ID.
func (r *CampaignRepository) ListActive(ctx context.Context, at time.Time) ([]domain.Campaign, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM campaigns
		WHERE status = $1
		  AND starts_at <= $2
		  AND (ends_at IS NULL OR ends_at >= $2)
		ORDER BY priority DESC, created_at ASC, id ASC`, campaignColumns)

	rows, err := r.db.Query(ctx, query, domain.CampaignStatusActive, at)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []domain.Campaign
	for rows.Next() {
		c, err := scanCampaignRow(rows, nil)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaign rows: %w", err)
	}

	if campaigns == nil {
		campaigns = []domain.Campaign{}
	}

	return campaigns, nil
}

// Update modifies an existing campaign in the database.
func (r *CampaignRepository) Update(ctx context.Context, c *domain.Campaign) error {
	discountJSON, selectionJSON, err := marshalConfigs(c)
	if err != nil {
		return err
	}

	c.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE campaigns
		SET name = $1, description = $2, priority = $3, status = $4,
		    discount = $5, selection = $6, starts_at = $7, ends_at = $8,
		    timezone = $9, updated_at = $10
		WHERE id = $11`

	ct, err := r.db.Exec(ctx, query,
		c.Name,
		c.Description,
		c.Priority,
		c.Status,
		discountJSON,
		selectionJSON,
		c.Schedule.StartsAt,
		nullableTime(c.Schedule.EndsAt),
		c.Schedule.Timezone,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("campaign", "name", c.Name)
		}
		return fmt.Errorf("update campaign: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("campaign", c.ID)
	}

	return nil
}

// UpdateStatus sets only the campaign status.
func (r *CampaignRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE campaigns
		SET status = $1, updated_at = NOW()
		WHERE id = $2`

	ct, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update campaign status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("campaign", id)
	}

	return nil
}

// Delete removes a campaign by its ID.
func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("campaign", id)
	}

	return nil
}

func marshalConfigs(c *domain.Campaign) ([]byte, []byte, error) {
	discountJSON, err := json.Marshal(c.Discount)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal discount config: %w", err)
	}
	selectionJSON, err := json.Marshal(c.Selection)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal product selection: %w", err)
	}
	return discountJSON, selectionJSON, nil
}

func (r *CampaignRepository) scanCampaign(row pgx.Row) (*domain.Campaign, error) {
	var (
		c             domain.Campaign
		discountJSON  []byte
		selectionJSON []byte
		endsAt        *time.Time
	)

	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Priority,
		&c.Status,
		&discountJSON,
		&selectionJSON,
		&c.Schedule.StartsAt,
		&endsAt,
		&c.Schedule.Timezone,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalConfigs(&c, discountJSON, selectionJSON, endsAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// scanCampaignRow scans one row from a multi-row query. totalCount is
// non-nil for queries that project count(*) OVER().
func scanCampaignRow(rows pgx.Rows, totalCount *int) (*domain.Campaign, error) {
	var (
		c             domain.Campaign
		discountJSON  []byte
		selectionJSON []byte
		endsAt        *time.Time
	)

	dest := []any{
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Priority,
		&c.Status,
		&discountJSON,
		&selectionJSON,
		&c.Schedule.StartsAt,
		&endsAt,
		&c.Schedule.Timezone,
		&c.CreatedAt,
		&c.UpdatedAt,
	}
	if totalCount != nil {
		dest = append(dest, totalCount)
	}

	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan campaign row: %w", err)
	}

	if err := unmarshalConfigs(&c, discountJSON, selectionJSON, endsAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func unmarshalConfigs(c *domain.Campaign, discountJSON, selectionJSON []byte, endsAt *time.Time) error {
	if discountJSON != nil {
		if err := json.Unmarshal(discountJSON, &c.Discount); err != nil {
			return fmt.Errorf("unmarshal discount config: %w", err)
		}
	}
	if selectionJSON != nil {
		if err := json.Unmarshal(selectionJSON, &c.Selection); err != nil {
			return fmt.Errorf("unmarshal product selection: %w", err)
		}
	}
	if endsAt != nil {
		c.Schedule.EndsAt = *endsAt
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
