package campaigns

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adcampaign/backend/internal/models"
)

const campaignColumns = `id, title, description, budget, created_by, impressions, clicks, created_at, updated_at`

// Repository handles campaign persistence. It implements Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a campaign repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanCampaign(row pgx.Row, c *models.Campaign) error {
	return row.Scan(&c.ID, &c.Title, &c.Description, &c.Budget, &c.CreatedBy,
		&c.Impressions, &c.Clicks, &c.CreatedAt, &c.UpdatedAt)
}

// Create inserts a new campaign with zeroed counters.
func (r *Repository) Create(ctx context.Context, c *models.Campaign) error {
	const q = `INSERT INTO campaigns (title, description, budget, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + campaignColumns
	return scanCampaign(r.pool.QueryRow(ctx, q, c.Title, c.Description, c.Budget, c.CreatedBy), c)
}

// GetByID returns a campaign by ID, or nil when no such campaign exists.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	const q = `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	var c models.Campaign
	err := scanCampaign(r.pool.QueryRow(ctx, q, id), &c)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all campaigns, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Campaign, error) {
	return r.list(ctx, `SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at DESC`)
}

// ListByCreator returns campaigns owned by the given user, newest first.
func (r *Repository) ListByCreator(ctx context.Context, userID uuid.UUID) ([]models.Campaign, error) {
	return r.list(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE created_by = $1 ORDER BY created_at DESC`, userID)
}

func (r *Repository) list(ctx context.Context, q string, args ...interface{}) ([]models.Campaign, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Campaign
	for rows.Next() {
		var c models.Campaign
		if err := scanCampaign(rows, &c); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Update overwrites title, description and budget. Counters and ownership are
// never touched here. Returns nil when the campaign no longer exists.
func (r *Repository) Update(ctx context.Context, id int64, title, description string, budget float64) (*models.Campaign, error) {
	const q = `UPDATE campaigns SET title = $1, description = $2, budget = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING ` + campaignColumns
	var c models.Campaign
	err := scanCampaign(r.pool.QueryRow(ctx, q, title, description, budget, id), &c)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes a campaign by ID. Returns false when no row was deleted.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// IncrementImpressions bumps the impression counter by one in a single atomic
// statement, so concurrent increments are never lost. Returns nil when the
// campaign does not exist.
func (r *Repository) IncrementImpressions(ctx context.Context, id int64) (*models.Campaign, error) {
	const q = `UPDATE campaigns SET impressions = impressions + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + campaignColumns
	var c models.Campaign
	err := scanCampaign(r.pool.QueryRow(ctx, q, id), &c)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// IncrementClicks bumps the click counter by one atomically. Returns nil when
// the campaign does not exist.
func (r *Repository) IncrementClicks(ctx context.Context, id int64) (*models.Campaign, error) {
	const q = `UPDATE campaigns SET clicks = clicks + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + campaignColumns
	var c models.Campaign
	err := scanCampaign(r.pool.QueryRow(ctx, q, id), &c)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
