package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/docmanager/internal/model"
	"github.com/iliyamo/docmanager/internal/queue"
	"github.com/iliyamo/docmanager/internal/repository"
	"github.com/iliyamo/docmanager/internal/utils"
)

type fixture struct {
	users  *repository.MemoryUserRepo
	docs   *repository.MemoryDocumentRepo
	tokens *utils.TokenIssuer
	auth   *AuthService
	admin  *UserService
	docSvc *DocumentService
	events *recordingPublisher
	files  *recordingRemover
	clock  *testClock
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.DocumentEvent
	err    error
}

func (p *recordingPublisher) PublishDocumentEvent(_ context.Context, ev queue.DocumentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type recordingRemover struct {
	removed []string
	err     error
}

func (r *recordingRemover) Remove(_ context.Context, path string) error {
	r.removed = append(r.removed, path)
	return r.err
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	users := repository.NewMemoryUserRepo()
	docs := repository.NewMemoryDocumentRepo(users)
	tokens, err := utils.NewTokenIssuer([]byte("test-secret"), 0, clock.Now)
	require.NoError(t, err)

	events := &recordingPublisher{}
	files := &recordingRemover{}

	auth := NewAuthService(users, tokens, bcrypt.MinCost, nil)
	auth.Now = clock.Now
	userSvc := NewUserService(users, nil)
	userSvc.Now = clock.Now
	docSvc := NewDocumentService(docs, files, events, nil)
	docSvc.Now = clock.Now

	return &fixture{
		users: users, docs: docs, tokens: tokens,
		auth: auth, admin: userSvc, docSvc: docSvc,
		events: events, files: files, clock: clock,
	}
}

// seedUser stores a user with the given role directly.
func (f *fixture) seedUser(t *testing.T, email string, role model.Role) model.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), RegisterInput{Email: email, Password: "secret1", Name: email})
	require.NoError(t, err)
	if role != model.RoleViewer {
		u, err = f.users.UpdateRole(context.Background(), u.ID, role, f.clock.Now())
		require.NoError(t, err)
	}
	return u
}

func (f *fixture) seedDocument(t *testing.T, owner model.User, title string) model.Document {
	t.Helper()
	d, err := f.docSvc.Create(context.Background(), owner, CreateDocumentInput{
		Title: title,
		File:  model.StoredFile{Path: "uploads/1-" + title + ".pdf", Extension: ".pdf", Size: 42},
	})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return d
}

var errBoom = errors.New("boom")

// failingUsers fails every call; it exercises the internal error path.
type failingUsers struct{}

func (failingUsers) Create(context.Context, model.User) error { return errBoom }
func (failingUsers) GetByEmail(context.Context, string) (model.User, error) {
	return model.User{}, errBoom
}
func (failingUsers) GetByID(context.Context, string) (model.User, error) {
	return model.User{}, errBoom
}
func (failingUsers) List(context.Context) ([]model.User, error) { return nil, errBoom }
func (failingUsers) UpdateRole(context.Context, string, model.Role, time.Time) (model.User, error) {
	return model.User{}, errBoom
}
func (failingUsers) Delete(context.Context, string) error { return errBoom }
