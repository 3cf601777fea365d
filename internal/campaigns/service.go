package campaigns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adcampaign/backend/internal/models"
)

var (
	// ErrUnauthenticated means no caller identity was resolved where one is required.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means the caller is neither the campaign owner nor an admin.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound means the referenced campaign does not exist.
	ErrNotFound = errors.New("campaign not found")
)

// Caller is the resolved identity of the requesting user. A nil *Caller means
// the request is anonymous.
type Caller struct {
	ID    uuid.UUID
	Email string
	Role  models.Role
}

// Store is the campaign persistence port. Lookups return (nil, nil) for a
// missing campaign; counter increments must be atomic at the store.
type Store interface {
	Create(ctx context.Context, c *models.Campaign) error
	GetByID(ctx context.Context, id int64) (*models.Campaign, error)
	List(ctx context.Context) ([]models.Campaign, error)
	ListByCreator(ctx context.Context, userID uuid.UUID) ([]models.Campaign, error)
	Update(ctx context.Context, id int64, title, description string, budget float64) (*models.Campaign, error)
	Delete(ctx context.Context, id int64) (bool, error)
	IncrementImpressions(ctx context.Context, id int64) (*models.Campaign, error)
	IncrementClicks(ctx context.Context, id int64) (*models.Campaign, error)
}

// Notifier sends a plain-text message to an email address.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// EmailLogStore records delivery outcomes for outbound notifications.
type EmailLogStore interface {
	Record(ctx context.Context, e *models.EmailLog) error
}

// CreateParams is the writable portion of a campaign.
type CreateParams struct {
	Title       string
	Description string
	Budget      float64
}

// Service applies create/update/delete/view operations against ownership and
// role rules, maintains the impression/click counters, and dispatches creation
// notifications. It performs no in-process coordination between requests;
// counter safety comes from the store's atomic increments.
type Service struct {
	store        Store
	notifier     Notifier
	emails       EmailLogStore
	logger       *zap.Logger
	adminAddress string
}

// NewService creates the campaign service.
func NewService(store Store, notifier Notifier, emails EmailLogStore, logger *zap.Logger, adminAddress string) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, notifier: notifier, emails: emails, logger: logger, adminAddress: adminAddress}
}

// canModify is the single authorization predicate for mutations: admins may
// modify any campaign, everyone else only their own.
func canModify(caller *Caller, c *models.Campaign) bool {
	return caller.Role == models.RoleAdmin || c.CreatedBy == caller.ID
}

// ListAll returns every campaign. Deliberately unrestricted; see DESIGN.md.
func (s *Service) ListAll(ctx context.Context) ([]models.Campaign, error) {
	return s.store.List(ctx)
}

// ListMine returns the caller's campaigns, or all campaigns for an admin.
func (s *Service) ListMine(ctx context.Context, caller *Caller) ([]models.Campaign, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	if caller.Role == models.RoleAdmin {
		return s.store.List(ctx)
	}
	return s.store.ListByCreator(ctx, caller.ID)
}

// Get returns the campaign and its derived performance view.
func (s *Service) Get(ctx context.Context, id int64) (*models.Campaign, models.CampaignStats, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, models.CampaignStats{}, err
	}
	if c == nil {
		return nil, models.CampaignStats{}, ErrNotFound
	}
	return c, c.Stats(), nil
}

// Create persists a new campaign owned by the caller and dispatches two
// notifications: one to the creator, one to the administrative address.
// Notification delivery is best-effort; failures are logged and recorded but
// never roll back the creation.
func (s *Service) Create(ctx context.Context, caller *Caller, params CreateParams) (*models.Campaign, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	c := &models.Campaign{
		Title:       params.Title,
		Description: params.Description,
		Budget:      params.Budget,
		CreatedBy:   caller.ID,
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}

	s.notify(ctx, c, models.EmailTypeCampaignCreatedOwner, caller.Email,
		fmt.Sprintf("Campaign created: %s", c.Title),
		fmt.Sprintf("Your campaign %q was created with a budget of %.2f.", c.Title, c.Budget))
	s.notify(ctx, c, models.EmailTypeCampaignCreatedAdmin, s.adminAddress,
		"New campaign created",
		fmt.Sprintf("Campaign %q (budget %.2f) was created by %s.", c.Title, c.Budget, caller.Email))

	return c, nil
}

// Update overwrites title, description and budget. Counters and ownership are
// untouched. Allowed for the owner or any admin.
func (s *Service) Update(ctx context.Context, caller *Caller, id int64, params CreateParams) (*models.Campaign, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	if !canModify(caller, existing) {
		return nil, ErrForbidden
	}
	updated, err := s.store.Update(ctx, id, params.Title, params.Description, params.Budget)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	return updated, nil
}

// Delete removes a campaign permanently. Same authorization rule as Update.
func (s *Service) Delete(ctx context.Context, caller *Caller, id int64) error {
	if caller == nil {
		return ErrUnauthenticated
	}
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if !canModify(caller, existing) {
		return ErrForbidden
	}
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// RecordImpression increments the impression counter by one. Anonymous-callable.
func (s *Service) RecordImpression(ctx context.Context, id int64) (*models.Campaign, error) {
	c, err := s.store.IncrementImpressions(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// RecordClick increments the click counter by one. Anonymous-callable.
func (s *Service) RecordClick(ctx context.Context, id int64) (*models.Campaign, error) {
	c, err := s.store.IncrementClicks(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// notify sends one notification and records the outcome in the email log.
func (s *Service) notify(ctx context.Context, c *models.Campaign, emailType, to, subject, body string) {
	entry := &models.EmailLog{
		ID:             uuid.New(),
		CampaignID:     &c.ID,
		EmailType:      emailType,
		RecipientEmail: to,
		Subject:        subject,
		Body:           body,
	}
	if err := s.notifier.Send(ctx, to, subject, body); err != nil {
		s.logger.Warn("notification failed",
			zap.Int64("campaign_id", c.ID),
			zap.String("recipient", to),
			zap.Error(err))
		entry.Status = models.EmailLogStatusFailed
		entry.ErrorMessage = err.Error()
	} else {
		now := time.Now()
		entry.Status = models.EmailLogStatusSent
		entry.SentAt = &now
	}
	if err := s.emails.Record(ctx, entry); err != nil {
		s.logger.Warn("record email log failed", zap.Int64("campaign_id", c.ID), zap.Error(err))
	}
}
