package emaillogs

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adcampaign/backend/internal/models"
	"github.com/adcampaign/backend/pkg/queue"
)

type fakeLogStore struct {
	logs    map[uuid.UUID]*models.EmailLog
	pending []uuid.UUID
}

func newFakeLogStore(entries ...*models.EmailLog) *fakeLogStore {
	s := &fakeLogStore{logs: make(map[uuid.UUID]*models.EmailLog)}
	for _, e := range entries {
		s.logs[e.ID] = e
	}
	return s
}

func (s *fakeLogStore) ListByCampaign(_ context.Context, campaignID int64) ([]*models.EmailLog, error) {
	var out []*models.EmailLog
	for _, e := range s.logs {
		if e.CampaignID != nil && *e.CampaignID == campaignID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeLogStore) GetByID(_ context.Context, id uuid.UUID) (*models.EmailLog, error) {
	return s.logs[id], nil
}

func (s *fakeLogStore) MarkPending(_ context.Context, id uuid.UUID) error {
	s.pending = append(s.pending, id)
	return nil
}

type fakeEnqueuer struct {
	enqueued []queue.EmailPayload
}

func (q *fakeEnqueuer) EnqueueEmail(_ context.Context, payload queue.EmailPayload) error {
	q.enqueued = append(q.enqueued, payload)
	return nil
}

func campaignLog(campaignID int64, recipient string) *models.EmailLog {
	return &models.EmailLog{
		ID:             uuid.New(),
		CampaignID:     &campaignID,
		EmailType:      models.EmailTypeCampaignCreatedOwner,
		RecipientEmail: recipient,
		Subject:        "Campaign created",
		Body:           "hello",
		Status:         models.EmailLogStatusSent,
	}
}

func performResend(t *testing.T, h *Handler, campaignID string, logID string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	raw, err := json.Marshal(ResendRequest{EmailLogID: logID})
	require.NoError(t, err)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/campaigns/"+campaignID+"/emails/resend", bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: campaignID}}
	h.Resend(c)
	return w
}

func TestResendQueuesOwnLog(t *testing.T) {
	entry := campaignLog(7, "owner@example.com")
	store := newFakeLogStore(entry)
	q := &fakeEnqueuer{}
	h := NewHandler(store, q, zap.NewNop())

	w := performResend(t, h, "7", entry.ID.String())

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []uuid.UUID{entry.ID}, store.pending)
	require.Len(t, q.enqueued, 1)
	require.Equal(t, entry.ID, q.enqueued[0].EmailLogID)
	require.Equal(t, "owner@example.com", q.enqueued[0].RecipientEmail)
}

func TestResendRejectsOtherCampaignsLog(t *testing.T) {
	entry := campaignLog(42, "victim@example.com")
	store := newFakeLogStore(entry)
	q := &fakeEnqueuer{}
	h := NewHandler(store, q, zap.NewNop())

	// Caller is authorized for campaign 7 but names a log from campaign 42.
	w := performResend(t, h, "7", entry.ID.String())

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Empty(t, store.pending)
	require.Empty(t, q.enqueued)
}

func TestResendRejectsDetachedLog(t *testing.T) {
	entry := campaignLog(7, "owner@example.com")
	entry.CampaignID = nil // campaign was deleted, FK set null
	store := newFakeLogStore(entry)
	q := &fakeEnqueuer{}
	h := NewHandler(store, q, zap.NewNop())

	w := performResend(t, h, "7", entry.ID.String())

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Empty(t, store.pending)
	require.Empty(t, q.enqueued)
}

func TestResendUnknownLog(t *testing.T) {
	store := newFakeLogStore()
	q := &fakeEnqueuer{}
	h := NewHandler(store, q, zap.NewNop())

	w := performResend(t, h, "7", uuid.New().String())

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Empty(t, q.enqueued)
}
