package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/docmanager/internal/logging"
	"github.com/iliyamo/docmanager/internal/model"
	"github.com/iliyamo/docmanager/internal/queue"
	"github.com/iliyamo/docmanager/internal/repository"
)

// DocumentStore persists document metadata.  repository.DocumentRepo and
// repository.MemoryDocumentRepo implement it.
type DocumentStore interface {
	Create(ctx context.Context, d model.Document) error
	GetByID(ctx context.Context, id string) (model.Document, error)
	List(ctx context.Context) ([]model.Document, error)
	UpdateStatus(ctx context.Context, id string, status model.DocumentStatus, ingestion model.IngestionStatus, at time.Time) (model.Document, error)
	Delete(ctx context.Context, id string) (model.Document, error)
}

// FileRemover deletes stored artifacts.  storage.FileStore satisfies it.
type FileRemover interface {
	Remove(ctx context.Context, path string) error
}

// EventPublisher receives document lifecycle events.
type EventPublisher interface {
	PublishDocumentEvent(ctx context.Context, ev queue.DocumentEvent) error
}

// CreateDocumentInput is the metadata part of an upload.  The file itself
// has already been written by the file store.
type CreateDocumentInput struct {
	Title       string           `json:"title" validate:"required,max=255"`
	Description string           `json:"description"`
	File        model.StoredFile `json:"-"`
}

// StatusInput is the body of a status update.
type StatusInput struct {
	Status          model.DocumentStatus  `json:"status" validate:"required,docstatus"`
	IngestionStatus model.IngestionStatus `json:"ingestionStatus" validate:"required,ingestion"`
}

// DocumentService owns the document lifecycle: upload metadata, listing,
// status transitions and deletion.
type DocumentService struct {
	Docs   DocumentStore
	Files  FileRemover    // optional
	Events EventPublisher // optional
	Log    logging.Logger
	Now    func() time.Time
}

// NewDocumentService wires a DocumentService.  files and events may be nil.
func NewDocumentService(docs DocumentStore, files FileRemover, events EventPublisher, log logging.Logger) *DocumentService {
	if log == nil {
		log = logging.Nop()
	}
	return &DocumentService{Docs: docs, Files: files, Events: events, Log: log, Now: time.Now}
}

// Create records a new document uploaded by caller.  Any role may upload.
// Status starts at pending and ingestion at not_started.
func (s *DocumentService) Create(ctx context.Context, caller model.User, in CreateDocumentInput) (model.Document, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := Struct(in); err != nil {
		return model.Document{}, err
	}
	if in.File.Path == "" {
		return model.Document{}, invalid("document", "no file uploaded", nil)
	}

	now := utcNow(s.Now)
	d := model.Document{
		ID:              uuid.NewString(),
		Title:           in.Title,
		Description:     in.Description,
		FileURL:         in.File.Path,
		FileType:        in.File.Extension,
		FileSize:        in.File.Size,
		UploadedBy:      caller.ID,
		Status:          model.StatusPending,
		IngestionStatus: model.IngestionNotStarted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Docs.Create(ctx, d); err != nil {
		return model.Document{}, s.fail(ctx, "create document", err)
	}
	d.Uploader = &model.UserSummary{ID: caller.ID, Name: caller.Name, Email: caller.Email}

	s.Log.Info(ctx, "document uploaded", "document_id", d.ID, "size", d.FileSize, "by", caller.ID)
	s.publish(ctx, queue.DocumentEvent{
		Type:            queue.EventDocumentCreated,
		DocumentID:      d.ID,
		Title:           d.Title,
		ActorID:         caller.ID,
		ActorRole:       string(caller.Role),
		Status:          string(d.Status),
		IngestionStatus: string(d.IngestionStatus),
		OccurredAt:      now,
	})
	return d, nil
}

// List returns every document, newest first.  Any role may list.
func (s *DocumentService) List(ctx context.Context, _ model.User) ([]model.Document, error) {
	docs, err := s.Docs.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list documents", err)
	}
	return docs, nil
}

// Get returns one document.  Any role may read.
func (s *DocumentService) Get(ctx context.Context, _ model.User, id string) (model.Document, error) {
	d, err := s.Docs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Document{}, ErrNotFound
		}
		return model.Document{}, s.fail(ctx, "get document", err)
	}
	return d, nil
}

// UpdateStatus sets both status fields of document id.  Admins and editors
// only.  The role check runs before anything else, so viewers learn
// nothing about which documents exist.
func (s *DocumentService) UpdateStatus(ctx context.Context, caller model.User, id string, in StatusInput) (model.Document, error) {
	if err := Authorize(caller, model.RoleAdmin, model.RoleEditor); err != nil {
		return model.Document{}, err
	}
	if err := Struct(in); err != nil {
		return model.Document{}, err
	}
	cur, err := s.Get(ctx, caller, id)
	if err != nil {
		return model.Document{}, err
	}
	if !model.StatusTransitionAllowed(cur.Status, in.Status) {
		return model.Document{}, invalid("status", "transition from "+string(cur.Status)+" is not allowed", string(in.Status))
	}
	if !model.IngestionTransitionAllowed(cur.IngestionStatus, in.IngestionStatus) {
		return model.Document{}, invalid("ingestionStatus", "transition from "+string(cur.IngestionStatus)+" is not allowed", string(in.IngestionStatus))
	}

	now := utcNow(s.Now)
	d, err := s.Docs.UpdateStatus(ctx, id, in.Status, in.IngestionStatus, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Document{}, ErrNotFound
		}
		return model.Document{}, s.fail(ctx, "update document status", err)
	}

	s.Log.Info(ctx, "document status changed", "document_id", id,
		"status", string(d.Status), "ingestion_status", string(d.IngestionStatus), "by", caller.ID)
	s.publish(ctx, queue.DocumentEvent{
		Type:            queue.EventDocumentStatusChanged,
		DocumentID:      d.ID,
		Title:           d.Title,
		ActorID:         caller.ID,
		ActorRole:       string(caller.Role),
		Status:          string(d.Status),
		IngestionStatus: string(d.IngestionStatus),
		PrevStatus:      string(cur.Status),
		PrevIngestion:   string(cur.IngestionStatus),
		OccurredAt:      now,
	})
	return d, nil
}

// Delete removes document id and, best effort, its stored file.  Admins and
// editors only; editors may delete documents they did not upload.
func (s *DocumentService) Delete(ctx context.Context, caller model.User, id string) error {
	if err := Authorize(caller, model.RoleAdmin, model.RoleEditor); err != nil {
		return err
	}
	d, err := s.Docs.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return s.fail(ctx, "delete document", err)
	}
	if s.Files != nil && d.FileURL != "" {
		if err := s.Files.Remove(ctx, d.FileURL); err != nil {
			s.Log.Warn(ctx, "stored file not removed", "document_id", id, "path", d.FileURL, "err", err)
		}
	}

	s.Log.Info(ctx, "document deleted", "document_id", id, "by", caller.ID)
	s.publish(ctx, queue.DocumentEvent{
		Type:       queue.EventDocumentDeleted,
		DocumentID: d.ID,
		Title:      d.Title,
		ActorID:    caller.ID,
		ActorRole:  string(caller.Role),
		OccurredAt: utcNow(s.Now),
	})
	return nil
}

// publish is best effort: the request has already succeeded.
func (s *DocumentService) publish(ctx context.Context, ev queue.DocumentEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishDocumentEvent(ctx, ev); err != nil {
		s.Log.Warn(ctx, "document event not published", "type", ev.Type, "document_id", ev.DocumentID, "err", err)
	}
}

func (s *DocumentService) fail(ctx context.Context, op string, err error) error {
	s.Log.Error(ctx, "documents: "+op+" failed", "err", err)
	return internal(op, err)
}
