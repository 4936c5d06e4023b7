package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/docmanager/internal/model"
	"github.com/iliyamo/docmanager/internal/queue"
)

func TestDocumentService_CreateAppliesDefaults(t *testing.T) {
	f := newFixture(t)
	viewer := f.seedUser(t, "alice@x.com", model.RoleViewer)

	d, err := f.docSvc.Create(context.Background(), viewer, CreateDocumentInput{
		Title:       "  Quarterly report ",
		Description: "numbers",
		File:        model.StoredFile{Path: "uploads/1714554000000-q1.pdf", Extension: ".pdf", Size: 2048},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "Quarterly report", d.Title)
	assert.Equal(t, model.StatusPending, d.Status)
	assert.Equal(t, model.IngestionNotStarted, d.IngestionStatus)
	assert.Equal(t, viewer.ID, d.UploadedBy)
	assert.Equal(t, "uploads/1714554000000-q1.pdf", d.FileURL)
	assert.Equal(t, ".pdf", d.FileType)
	assert.EqualValues(t, 2048, d.FileSize)
	require.NotNil(t, d.Uploader)
	assert.Equal(t, viewer.Email, d.Uploader.Email)
	assert.Equal(t, []string{queue.EventDocumentCreated}, f.events.Types())
}

func TestDocumentService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, "alice@x.com", model.RoleViewer)

	_, err := f.docSvc.Create(ctx, u, CreateDocumentInput{Title: "   ", File: model.StoredFile{Path: "p"}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.docSvc.Create(ctx, u, CreateDocumentInput{Title: "ok"})
	require.ErrorIs(t, err, ErrValidation)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "document", verr.Fields[0].Field)

	docs, err := f.docSvc.List(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentService_ListNewestFirst(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "alice@x.com", model.RoleViewer)
	first := f.seedDocument(t, u, "first")
	second := f.seedDocument(t, u, "second")

	docs, err := f.docSvc.List(context.Background(), u)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, second.ID, docs[0].ID)
	assert.Equal(t, first.ID, docs[1].ID)
}

func TestDocumentService_GetMissing(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "alice@x.com", model.RoleViewer)
	_, err := f.docSvc.Get(context.Background(), u, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDocumentService_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	editor := f.seedUser(t, "ed@x.com", model.RoleEditor)
	doc := f.seedDocument(t, editor, "spec")

	got, err := f.docSvc.UpdateStatus(ctx, editor, doc.ID, StatusInput{
		Status: model.StatusCompleted, IngestionStatus: model.IngestionInProgress,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, model.IngestionInProgress, got.IngestionStatus)
	assert.True(t, got.UpdatedAt.After(doc.UpdatedAt))

	// Transitions are free-form, including backwards.
	got, err = f.docSvc.UpdateStatus(ctx, editor, doc.ID, StatusInput{
		Status: model.StatusPending, IngestionStatus: model.IngestionNotStarted,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)

	assert.Equal(t, []string{
		queue.EventDocumentCreated,
		queue.EventDocumentStatusChanged,
		queue.EventDocumentStatusChanged,
	}, f.events.Types())
}

func TestDocumentService_UpdateStatusViewerForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := f.seedUser(t, "vi@x.com", model.RoleViewer)
	doc := f.seedDocument(t, viewer, "mine")

	_, err := f.docSvc.UpdateStatus(ctx, viewer, doc.ID, StatusInput{
		Status: model.StatusCompleted, IngestionStatus: model.IngestionCompleted,
	})
	assert.ErrorIs(t, err, ErrForbidden)

	// Forbidden wins over not found.
	_, err = f.docSvc.UpdateStatus(ctx, viewer, "missing", StatusInput{})
	assert.ErrorIs(t, err, ErrForbidden)

	stored, err := f.docs.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
	assert.Equal(t, model.IngestionNotStarted, stored.IngestionStatus)
}

func TestDocumentService_UpdateStatusRejectsUnknownValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "root@x.com", model.RoleAdmin)
	doc := f.seedDocument(t, admin, "doc")

	_, err := f.docSvc.UpdateStatus(ctx, admin, doc.ID, StatusInput{
		Status: "bogus", IngestionStatus: model.IngestionCompleted,
	})
	require.ErrorIs(t, err, ErrValidation)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "status", verr.Fields[0].Field)
	assert.Equal(t, "bogus", verr.Fields[0].Value)

	_, err = f.docSvc.UpdateStatus(ctx, admin, doc.ID, StatusInput{
		Status: model.StatusFailed, IngestionStatus: "halfway",
	})
	assert.ErrorIs(t, err, ErrValidation)

	stored, err := f.docs.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
	assert.Equal(t, doc.UpdatedAt, stored.UpdatedAt)
	assert.Equal(t, []string{queue.EventDocumentCreated}, f.events.Types())
}

func TestDocumentService_UpdateStatusMissing(t *testing.T) {
	f := newFixture(t)
	admin := f.seedUser(t, "root@x.com", model.RoleAdmin)
	_, err := f.docSvc.UpdateStatus(context.Background(), admin, "missing", StatusInput{
		Status: model.StatusCompleted, IngestionStatus: model.IngestionCompleted,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDocumentService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.seedUser(t, "vi@x.com", model.RoleViewer)
	editor := f.seedUser(t, "ed@x.com", model.RoleEditor)
	doc := f.seedDocument(t, owner, "temp")

	assert.ErrorIs(t, f.docSvc.Delete(ctx, owner, doc.ID), ErrForbidden)

	require.NoError(t, f.docSvc.Delete(ctx, editor, doc.ID))
	assert.Equal(t, []string{doc.FileURL}, f.files.removed)

	assert.ErrorIs(t, f.docSvc.Delete(ctx, editor, doc.ID), ErrNotFound)
	_, err := f.docSvc.Get(ctx, editor, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDocumentService_DeleteSurvivesFileAndEventFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "root@x.com", model.RoleAdmin)
	doc := f.seedDocument(t, admin, "temp")

	f.files.err = errBoom
	f.events.err = errBoom
	require.NoError(t, f.docSvc.Delete(ctx, admin, doc.ID))
	_, err := f.docs.GetByID(ctx, doc.ID)
	assert.Error(t, err)
}
