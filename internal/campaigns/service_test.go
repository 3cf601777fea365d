package campaigns

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adcampaign/backend/internal/models"
)

const adminAddress = "admin@example.com"

type fakeStore struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]models.Campaign
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[int64]models.Campaign)}
}

func (s *fakeStore) Create(_ context.Context, c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	s.items[c.ID] = *c
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *fakeStore) List(_ context.Context) ([]models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.Campaign
	for id := int64(1); id <= s.nextID; id++ {
		if c, ok := s.items[id]; ok {
			list = append(list, c)
		}
	}
	return list, nil
}

func (s *fakeStore) ListByCreator(_ context.Context, userID uuid.UUID) ([]models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.Campaign
	for id := int64(1); id <= s.nextID; id++ {
		if c, ok := s.items[id]; ok && c.CreatedBy == userID {
			list = append(list, c)
		}
	}
	return list, nil
}

func (s *fakeStore) Update(_ context.Context, id int64, title, description string, budget float64) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	c.Title, c.Description, c.Budget = title, description, budget
	s.items[id] = c
	return &c, nil
}

func (s *fakeStore) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

func (s *fakeStore) IncrementImpressions(_ context.Context, id int64) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	c.Impressions++
	s.items[id] = c
	return &c, nil
}

func (s *fakeStore) IncrementClicks(_ context.Context, id int64) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	c.Clicks++
	s.items[id] = c
	return &c, nil
}

type sentMail struct {
	to, subject, body string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type fakeEmailLog struct {
	mu      sync.Mutex
	entries []models.EmailLog
}

func (l *fakeEmailLog) Record(_ context.Context, e *models.EmailLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, *e)
	return nil
}

func newTestService() (*Service, *fakeStore, *fakeNotifier, *fakeEmailLog) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	emails := &fakeEmailLog{}
	svc := NewService(store, notifier, emails, zap.NewNop(), adminAddress)
	return svc, store, notifier, emails
}

func newCaller(role models.Role) *Caller {
	id := uuid.New()
	return &Caller{ID: id, Email: id.String() + "@example.com", Role: role}
}

func TestCreateSetsOwnerCountersAndNotifies(t *testing.T) {
	svc, _, notifier, emails := newTestService()
	u1 := newCaller(models.RoleUser)

	c, err := svc.Create(context.Background(), u1, CreateParams{Title: "Summer Sale", Budget: 200})
	require.NoError(t, err)
	require.Equal(t, u1.ID, c.CreatedBy)
	require.Zero(t, c.Impressions)
	require.Zero(t, c.Clicks)

	require.Len(t, notifier.sent, 2)
	require.Equal(t, u1.Email, notifier.sent[0].to)
	require.Contains(t, notifier.sent[0].body, "Summer Sale")
	require.Contains(t, notifier.sent[0].body, "200.00")
	require.Equal(t, adminAddress, notifier.sent[1].to)

	require.Len(t, emails.entries, 2)
	for _, e := range emails.entries {
		require.Equal(t, models.EmailLogStatusSent, e.Status)
		require.NotNil(t, e.CampaignID)
		require.Equal(t, c.ID, *e.CampaignID)
	}
}

func TestCreateRequiresCaller(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.Create(context.Background(), nil, CreateParams{Title: "x"})
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCreateSurvivesNotificationFailure(t *testing.T) {
	svc, store, notifier, emails := newTestService()
	notifier.err = errors.New("smtp down")

	c, err := svc.Create(context.Background(), newCaller(models.RoleUser), CreateParams{Title: "Launch", Budget: 50})
	require.NoError(t, err)

	persisted, err := store.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, persisted)

	require.Len(t, emails.entries, 2)
	for _, e := range emails.entries {
		require.Equal(t, models.EmailLogStatusFailed, e.Status)
		require.Contains(t, e.ErrorMessage, "smtp down")
	}
}

func TestGetROI(t *testing.T) {
	svc, _, _, _ := newTestService()
	owner := newCaller(models.RoleUser)

	zeroBudget, err := svc.Create(context.Background(), owner, CreateParams{Title: "free", Budget: 0})
	require.NoError(t, err)
	funded, err := svc.Create(context.Background(), owner, CreateParams{Title: "paid", Budget: 100})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.RecordClick(context.Background(), zeroBudget.ID)
		require.NoError(t, err)
	}
	for i := 0; i < 5; i++ {
		_, err := svc.RecordClick(context.Background(), funded.ID)
		require.NoError(t, err)
	}
	_, stats, err := svc.Get(context.Background(), zeroBudget.ID)
	require.NoError(t, err)
	require.Equal(t, float64(0), stats.ROI)

	_, stats, err = svc.Get(context.Background(), funded.ID)
	require.NoError(t, err)
	require.InDelta(t, 0.5, stats.ROI, 1e-9)
	require.Equal(t, int64(5), stats.Clicks)
}

func TestGetMissing(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, _, err := svc.Get(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecordImpressionSequential(t *testing.T) {
	svc, _, _, _ := newTestService()
	c, err := svc.Create(context.Background(), newCaller(models.RoleUser), CreateParams{Title: "t", Budget: 10})
	require.NoError(t, err)

	const n = 7
	var last *models.Campaign
	for i := 0; i < n; i++ {
		last, err = svc.RecordImpression(context.Background(), c.ID)
		require.NoError(t, err)
	}
	require.Equal(t, int64(n), last.Impressions)
	require.Zero(t, last.Clicks)
}

func TestRecordClickMissingCampaign(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.RecordClick(context.Background(), 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAuthorization(t *testing.T) {
	svc, _, _, _ := newTestService()
	owner := newCaller(models.RoleUser)
	stranger := newCaller(models.RoleUser)
	admin := newCaller(models.RoleAdmin)

	c, err := svc.Create(context.Background(), owner, CreateParams{Title: "orig", Budget: 10})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), stranger, c.ID, CreateParams{Title: "hijacked"})
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(context.Background(), owner, c.ID, CreateParams{Title: "renamed", Description: "d", Budget: 20})
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Title)
	require.Equal(t, owner.ID, updated.CreatedBy)

	updated, err = svc.Update(context.Background(), admin, c.ID, CreateParams{Title: "admin edit", Budget: 30})
	require.NoError(t, err)
	require.Equal(t, "admin edit", updated.Title)

	_, err = svc.Update(context.Background(), owner, 404, CreateParams{Title: "x"})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(context.Background(), nil, c.ID, CreateParams{Title: "x"})
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestUpdatePreservesCountersAndOwnership(t *testing.T) {
	svc, _, _, _ := newTestService()
	owner := newCaller(models.RoleUser)

	c, err := svc.Create(context.Background(), owner, CreateParams{Title: "t", Budget: 10})
	require.NoError(t, err)
	_, err = svc.RecordImpression(context.Background(), c.ID)
	require.NoError(t, err)
	_, err = svc.RecordClick(context.Background(), c.ID)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), owner, c.ID, CreateParams{Title: "t2", Budget: 99})
	require.NoError(t, err)
	require.Equal(t, int64(1), updated.Impressions)
	require.Equal(t, int64(1), updated.Clicks)
	require.Equal(t, owner.ID, updated.CreatedBy)
}

func TestDeleteAuthorization(t *testing.T) {
	svc, store, _, _ := newTestService()
	owner := newCaller(models.RoleUser)
	stranger := newCaller(models.RoleUser)
	admin := newCaller(models.RoleAdmin)

	c1, err := svc.Create(context.Background(), owner, CreateParams{Title: "a", Budget: 1})
	require.NoError(t, err)
	c2, err := svc.Create(context.Background(), owner, CreateParams{Title: "b", Budget: 1})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(context.Background(), stranger, c1.ID), ErrForbidden)
	require.ErrorIs(t, svc.Delete(context.Background(), nil, c1.ID), ErrUnauthenticated)

	require.NoError(t, svc.Delete(context.Background(), owner, c1.ID))
	require.NoError(t, svc.Delete(context.Background(), admin, c2.ID))

	gone, err := store.GetByID(context.Background(), c1.ID)
	require.NoError(t, err)
	require.Nil(t, gone)

	require.ErrorIs(t, svc.Delete(context.Background(), owner, c1.ID), ErrNotFound)
}

func TestListMine(t *testing.T) {
	svc, _, _, _ := newTestService()
	u1 := newCaller(models.RoleUser)
	u2 := newCaller(models.RoleUser)
	admin := newCaller(models.RoleAdmin)

	_, err := svc.Create(context.Background(), u1, CreateParams{Title: "u1-a", Budget: 1})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), u1, CreateParams{Title: "u1-b", Budget: 1})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), u2, CreateParams{Title: "u2-a", Budget: 1})
	require.NoError(t, err)

	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)

	adminList, err := svc.ListMine(context.Background(), admin)
	require.NoError(t, err)
	require.Equal(t, all, adminList)

	mine, err := svc.ListMine(context.Background(), u1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, c := range mine {
		require.Equal(t, u1.ID, c.CreatedBy)
	}

	_, err = svc.ListMine(context.Background(), nil)
	require.ErrorIs(t, err, ErrUnauthenticated)
}
