package emaillogs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adcampaign/backend/internal/models"
)

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record inserts a delivery record. The caller assigns the ID.
func (r *Repository) Record(ctx context.Context, e *models.EmailLog) error {
	const q = `INSERT INTO email_logs (id, campaign_id, email_type, recipient_email, subject, body, status, sent_at, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9,''))
		RETURNING created_at`
	return r.pool.QueryRow(ctx, q, e.ID, e.CampaignID, e.EmailType, e.RecipientEmail, e.Subject, e.Body, e.Status, e.SentAt, e.ErrorMessage).
		Scan(&e.CreatedAt)
}

// GetByID returns an email log entry, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.EmailLog, error) {
	const q = `SELECT id, campaign_id, email_type, recipient_email, COALESCE(subject,''), COALESCE(body,''), status, sent_at, COALESCE(error_message,''), created_at
		FROM email_logs WHERE id = $1`
	var e models.EmailLog
	err := r.pool.QueryRow(ctx, q, id).Scan(&e.ID, &e.CampaignID, &e.EmailType, &e.RecipientEmail, &e.Subject, &e.Body, &e.Status, &e.SentAt, &e.ErrorMessage, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByCampaign returns email logs for a campaign, newest first.
func (r *Repository) ListByCampaign(ctx context.Context, campaignID int64) ([]*models.EmailLog, error) {
	const q = `SELECT id, campaign_id, email_type, recipient_email, COALESCE(subject,''), status, sent_at, COALESCE(error_message,''), created_at
		FROM email_logs
		WHERE campaign_id = $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.EmailLog
	for rows.Next() {
		var e models.EmailLog
		if err := rows.Scan(&e.ID, &e.CampaignID, &e.EmailType, &e.RecipientEmail, &e.Subject, &e.Status, &e.SentAt, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

// MarkPending resets an entry before it is re-enqueued for delivery.
func (r *Repository) MarkPending(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE email_logs SET status = 'pending', error_message = NULL WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// MarkSent records a successful delivery.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE email_logs SET status = 'sent', sent_at = NOW(), error_message = NULL WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// MarkFailed records a failed delivery with its error message.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	const q = `UPDATE email_logs SET status = 'failed', error_message = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, errMsg)
	return err
}
