package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/docmanager/internal/model"
)

// MemoryUserRepo is an in-memory implementation of the user store.  It
// enforces the same unique-email rule as the `users` table.
type MemoryUserRepo struct {
	mu      sync.RWMutex
	byID    map[string]model.User
	byEmail map[string]string // normalized email -> id
}

// NewMemoryUserRepo constructs an empty MemoryUserRepo.
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		byID:    make(map[string]model.User),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryUserRepo) Create(ctx context.Context, u model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.Email = NormalizeEmail(u.Email)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return ErrEmailExists
	}
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *MemoryUserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryUserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

// List returns users ordered by creation time, oldest first.
func (r *MemoryUserRepo) List(ctx context.Context) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]model.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryUserRepo) UpdateRole(ctx context.Context, id string, role model.Role, at time.Time) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = at
	r.byID[id] = u
	return u, nil
}

func (r *MemoryUserRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, u.Email)
	return nil
}

// MemoryDocumentRepo is an in-memory implementation of the document store.
// When Users is set, reads populate the uploader summary from it.
type MemoryDocumentRepo struct {
	mu    sync.RWMutex
	docs  map[string]model.Document
	Users *MemoryUserRepo
}

// NewMemoryDocumentRepo constructs an empty MemoryDocumentRepo.  users may
// be nil.
func NewMemoryDocumentRepo(users *MemoryUserRepo) *MemoryDocumentRepo {
	return &MemoryDocumentRepo{docs: make(map[string]model.Document), Users: users}
}

func (r *MemoryDocumentRepo) Create(ctx context.Context, d model.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.Uploader = nil
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[d.ID] = d
	return nil
}

func (r *MemoryDocumentRepo) GetByID(ctx context.Context, id string) (model.Document, error) {
	if err := ctx.Err(); err != nil {
		return model.Document{}, err
	}
	r.mu.RLock()
	d, ok := r.docs[id]
	r.mu.RUnlock()
	if !ok {
		return model.Document{}, ErrNotFound
	}
	return r.populate(ctx, d), nil
}

// List returns all documents, newest first.
func (r *MemoryDocumentRepo) List(ctx context.Context) ([]model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]model.Document, 0, len(r.docs))
	for _, d := range r.docs {
		out = append(out, d)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	for i := range out {
		out[i] = r.populate(ctx, out[i])
	}
	return out, nil
}

func (r *MemoryDocumentRepo) UpdateStatus(ctx context.Context, id string, status model.DocumentStatus, ingestion model.IngestionStatus, at time.Time) (model.Document, error) {
	if err := ctx.Err(); err != nil {
		return model.Document{}, err
	}
	r.mu.Lock()
	d, ok := r.docs[id]
	if !ok {
		r.mu.Unlock()
		return model.Document{}, ErrNotFound
	}
	d.Status = status
	d.IngestionStatus = ingestion
	d.UpdatedAt = at
	r.docs[id] = d
	r.mu.Unlock()
	return r.populate(ctx, d), nil
}

func (r *MemoryDocumentRepo) Delete(ctx context.Context, id string) (model.Document, error) {
	if err := ctx.Err(); err != nil {
		return model.Document{}, err
	}
	r.mu.Lock()
	d, ok := r.docs[id]
	if ok {
		delete(r.docs, id)
	}
	r.mu.Unlock()
	if !ok {
		return model.Document{}, ErrNotFound
	}
	return r.populate(ctx, d), nil
}

func (r *MemoryDocumentRepo) populate(ctx context.Context, d model.Document) model.Document {
	d.Uploader = nil
	if r.Users == nil {
		return d
	}
	if u, err := r.Users.GetByID(ctx, d.UploadedBy); err == nil {
		d.Uploader = &model.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return d
}
