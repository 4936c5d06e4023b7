package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/docmanager/internal/logging"
	"github.com/iliyamo/docmanager/internal/model"
	"github.com/iliyamo/docmanager/internal/repository"
	"github.com/iliyamo/docmanager/internal/utils"
)

// UserStore is the credential store.  repository.UserRepo and
// repository.MemoryUserRepo implement it.
type UserStore interface {
	Create(ctx context.Context, u model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateRole(ctx context.Context, id string, role model.Role, at time.Time) (model.User, error)
	Delete(ctx context.Context, id string) error
}

// RegisterInput is the self-registration request.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,bcryptlen"`
	Name     string `json:"name" validate:"required"`
}

func (in *RegisterInput) normalize() {
	in.Email = repository.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
}

// LoginInput is the login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is what register and login hand back to the client.
type Session struct {
	Token utils.AccessToken
	User  model.User
}

// AuthService registers users, verifies credentials, issues tokens and
// resolves tokens back to users.
type AuthService struct {
	Users      UserStore
	Tokens     *utils.TokenIssuer
	BcryptCost int
	Log        logging.Logger
	Now        func() time.Time
}

// NewAuthService wires an AuthService.  A nil log discards output.
func NewAuthService(users UserStore, tokens *utils.TokenIssuer, bcryptCost int, log logging.Logger) *AuthService {
	if log == nil {
		log = logging.Nop()
	}
	return &AuthService{Users: users, Tokens: tokens, BcryptCost: bcryptCost, Log: log, Now: time.Now}
}

// Register creates a viewer account.  It fails with a *ValidationError for
// malformed input and ErrDuplicateEmail when the normalized email is taken.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	in.normalize()
	if err := Struct(in); err != nil {
		return model.User{}, err
	}
	return s.create(ctx, in, model.RoleViewer)
}

func (s *AuthService) create(ctx context.Context, in RegisterInput, role model.Role) (model.User, error) {
	if _, err := s.Users.GetByEmail(ctx, in.Email); err == nil {
		return model.User{}, ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, s.fail(ctx, "lookup user by email", err)
	}

	hash, err := utils.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return model.User{}, s.fail(ctx, "hash password", err)
	}
	now := utcNow(s.Now)
	u := model.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		// Lost a race with a concurrent registration of the same email.
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, ErrDuplicateEmail
		}
		return model.User{}, s.fail(ctx, "create user", err)
	}
	s.Log.Info(ctx, "user registered", "user_id", u.ID, "role", string(u.Role))
	return u, nil
}

// Verify checks a plaintext password against the stored hash for email.
// An unknown email and a wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Verify(ctx context.Context, email, password string) (model.User, error) {
	u, err := s.Users.GetByEmail(ctx, repository.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.BurnPasswordCheck(password, s.BcryptCost)
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, s.fail(ctx, "lookup user by email", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Login validates the request shape, verifies the credentials and issues
// a token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (Session, error) {
	in.Email = repository.NormalizeEmail(in.Email)
	if err := Struct(in); err != nil {
		return Session{}, err
	}
	u, err := s.Verify(ctx, in.Email, in.Password)
	if err != nil {
		return Session{}, err
	}
	return s.SessionFor(ctx, u)
}

// SignUp registers a user and issues its first token.
func (s *AuthService) SignUp(ctx context.Context, in RegisterInput) (Session, error) {
	u, err := s.Register(ctx, in)
	if err != nil {
		return Session{}, err
	}
	return s.SessionFor(ctx, u)
}

// SessionFor issues a token for u.
func (s *AuthService) SessionFor(ctx context.Context, u model.User) (Session, error) {
	tok, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return Session{}, s.fail(ctx, "issue token", err)
	}
	return Session{Token: tok, User: u}, nil
}

// Authenticate resolves a bearer token to the user it was issued for.  The
// user is re-read on every call, so role changes and deletions take effect
// immediately even though tokens are never revoked.
func (s *AuthService) Authenticate(ctx context.Context, rawToken string) (model.User, error) {
	userID, err := s.Tokens.Verify(rawToken)
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
		}
		return model.User{}, s.fail(ctx, "lookup user by id", err)
	}
	return u, nil
}

// EnsureAdmin creates an admin account unless a user with the same email
// already exists, in which case it reports created=false and leaves the
// existing record untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, in RegisterInput) (model.User, bool, error) {
	in.normalize()
	if err := Struct(in); err != nil {
		return model.User{}, false, err
	}
	existing, err := s.Users.GetByEmail(ctx, in.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, false, s.fail(ctx, "lookup user by email", err)
	}
	u, err := s.create(ctx, in, model.RoleAdmin)
	if errors.Is(err, ErrDuplicateEmail) {
		existing, gerr := s.Users.GetByEmail(ctx, in.Email)
		if gerr != nil {
			return model.User{}, false, s.fail(ctx, "lookup user by email", gerr)
		}
		return existing, false, nil
	}
	if err != nil {
		return model.User{}, false, err
	}
	return u, true, nil
}

func (s *AuthService) fail(ctx context.Context, op string, err error) error {
	s.Log.Error(ctx, "auth: "+op+" failed", "err", err)
	return internal(op, err)
}

func utcNow(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}

// Authorize returns ErrForbidden unless u's role is one of roles.
func Authorize(u model.User, roles ...model.Role) error {
	for _, r := range roles {
		if u.Role == r {
			return nil
		}
	}
	return ErrForbidden
}
