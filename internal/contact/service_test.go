package contact

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wecantrust/donations-backend/pkg/db/models"
	"github.com/wecantrust/donations-backend/pkg/enums"
	pkgerrors "github.com/wecantrust/donations-backend/pkg/errors"
	"github.com/wecantrust/donations-backend/pkg/logger"
)

func setupContactTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS contact_messages (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT,
  subject TEXT NOT NULL DEFAULT 'general',
  message TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'new',
  admin_notes TEXT,
  responded_by TEXT,
  resolved_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newContactService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(db),
		Logger: logger.New(logger.Options{ServiceName: "test"}),
	})
	require.NoError(t, err)
	return svc
}

func submitMessage(t *testing.T, svc Service, subject string) *MessageResponse {
	t.Helper()
	resp, err := svc.Submit(context.Background(), SubmitRequest{
		Name:    "Ravi Kumar",
		Email:   "ravi@example.com",
		Subject: subject,
		Message: "I would like to know more about your programs.",
	})
	require.NoError(t, err)
	return resp
}

func TestSubmitCreatesNewMessage(t *testing.T) {
	svc := newContactService(t, setupContactTestDB(t))

	resp := submitMessage(t, svc, "volunteer")
	assert.Equal(t, enums.ContactStatusNew, resp.Status)
	assert.Equal(t, enums.ContactSubjectVolunteer, resp.Subject)
	assert.NotEqual(t, uuid.Nil, resp.ID)
}

func TestSubmitRejectsUnknownSubject(t *testing.T) {
	svc := newContactService(t, setupContactTestDB(t))

	_, err := svc.Submit(context.Background(), SubmitRequest{
		Name:    "Ravi Kumar",
		Email:   "ravi@example.com",
		Subject: "spam",
		Message: "hello there, long enough message",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestStatusWorkflow(t *testing.T) {
	svc := newContactService(t, setupContactTestDB(t))
	msg := submitMessage(t, svc, "general")
	ctx := context.Background()

	updated, err := svc.UpdateStatus(ctx, msg.ID, UpdateStatusRequest{Status: "in-progress"}, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.ContactStatusInProgress, updated.Status)

	updated, err = svc.UpdateStatus(ctx, msg.ID, UpdateStatusRequest{Status: "resolved"}, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.ContactStatusResolved, updated.Status)
	require.NotNil(t, updated.ResolvedAt)

	updated, err = svc.UpdateStatus(ctx, msg.ID, UpdateStatusRequest{Status: "closed"}, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.ContactStatusClosed, updated.Status)
}

func TestStatusWorkflowBlocksBackwardMoves(t *testing.T) {
	svc := newContactService(t, setupContactTestDB(t))
	msg := submitMessage(t, svc, "general")
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, msg.ID, UpdateStatusRequest{Status: "closed"}, nil)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, msg.ID, UpdateStatusRequest{Status: "new"}, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestStatusUpdateIsIdempotentForSameStatus(t *testing.T) {
	svc := newContactService(t, setupContactTestDB(t))
	msg := submitMessage(t, svc, "general")

	updated, err := svc.UpdateStatus(context.Background(), msg.ID, UpdateStatusRequest{Status: "new"}, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.ContactStatusNew, updated.Status)
}

func TestStatusUpdateRecordsNotesAndResponder(t *testing.T) {
	svc := newContactService(t, setupContactTestDB(t))
	msg := submitMessage(t, svc, "general")
	ctx := context.Background()

	adminID := uuid.New()
	notes := "Called the donor back, awaiting documents."
	updated, err := svc.UpdateStatus(ctx, msg.ID, UpdateStatusRequest{Status: "in-progress", AdminNotes: &notes}, &adminID)
	require.NoError(t, err)
	require.NotNil(t, updated.AdminNotes)
	assert.Equal(t, notes, *updated.AdminNotes)
	require.NotNil(t, updated.RespondedBy)
	assert.Equal(t, adminID, *updated.RespondedBy)

	// A same-status update carrying new notes still persists them.
	revised := "Documents received."
	updated, err = svc.UpdateStatus(ctx, msg.ID, UpdateStatusRequest{Status: "in-progress", AdminNotes: &revised}, &adminID)
	require.NoError(t, err)
	require.NotNil(t, updated.AdminNotes)
	assert.Equal(t, revised, *updated.AdminNotes)

	fetched, err := svc.Get(ctx, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.AdminNotes)
	assert.Equal(t, revised, *fetched.AdminNotes)
}

func TestListFiltersAndPaginates(t *testing.T) {
	db := setupContactTestDB(t)
	svc := newContactService(t, db)
	ctx := context.Background()

	first := submitMessage(t, svc, "donation")
	require.NoError(t, db.Model(&models.ContactMessage{}).
		Where("id = ?", first.ID).
		Update("created_at", time.Now().UTC().Add(-time.Hour)).Error)
	second := submitMessage(t, svc, "program")
	_, err := svc.UpdateStatus(ctx, second.ID, UpdateStatusRequest{Status: "resolved"}, nil)
	require.NoError(t, err)

	all, err := svc.List(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.Total)
	require.Len(t, all.Items, 2)
	assert.Equal(t, second.ID, all.Items[0].ID)

	resolved, err := svc.List(ctx, "resolved", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, resolved.Total)

	_, err = svc.List(ctx, "bogus", 1, 10)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDelete(t *testing.T) {
	svc := newContactService(t, setupContactTestDB(t))
	msg := submitMessage(t, svc, "general")
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, msg.ID))

	err := svc.Delete(ctx, msg.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = svc.Get(ctx, msg.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestOverviewCounts(t *testing.T) {
	svc := newContactService(t, setupContactTestDB(t))
	ctx := context.Background()

	submitMessage(t, svc, "general")
	submitMessage(t, svc, "general")
	resolved := submitMessage(t, svc, "donation")
	_, err := svc.UpdateStatus(ctx, resolved.ID, UpdateStatusRequest{Status: "resolved"}, nil)
	require.NoError(t, err)

	stats, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 2, stats.ByStatus[enums.ContactStatusNew])
	assert.EqualValues(t, 1, stats.ByStatus[enums.ContactStatusResolved])
	assert.EqualValues(t, 2, stats.BySubject[enums.ContactSubjectGeneral])
	assert.EqualValues(t, 1, stats.BySubject[enums.ContactSubjectDonation])
}
