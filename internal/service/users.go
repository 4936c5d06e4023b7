package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/docmanager/internal/logging"
	"github.com/iliyamo/docmanager/internal/model"
	"github.com/iliyamo/docmanager/internal/repository"
)

// RoleInput is the body of a role change.
type RoleInput struct {
	Role model.Role `json:"role" validate:"required,role"`
}

// UserService exposes the caller's own profile and admin-only user
// management.
type UserService struct {
	Users UserStore
	Log   logging.Logger
	Now   func() time.Time
}

// NewUserService wires a UserService.
func NewUserService(users UserStore, log logging.Logger) *UserService {
	if log == nil {
		log = logging.Nop()
	}
	return &UserService{Users: users, Log: log}
}

// Me returns the public projection of the authenticated caller.
func (s *UserService) Me(caller model.User) model.UserView {
	return caller.View()
}

// List returns every user.  Admin only.
func (s *UserService) List(ctx context.Context, caller model.User) ([]model.UserView, error) {
	if err := Authorize(caller, model.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.Users.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list users", err)
	}
	out := make([]model.UserView, 0, len(users))
	for _, u := range users {
		out = append(out, u.View())
	}
	return out, nil
}

// ChangeRole sets the role of user targetID.  Admin only.  An admin may
// demote itself; the change applies from its next request.
func (s *UserService) ChangeRole(ctx context.Context, caller model.User, targetID string, in RoleInput) (model.UserView, error) {
	if err := Authorize(caller, model.RoleAdmin); err != nil {
		return model.UserView{}, err
	}
	if err := Struct(in); err != nil {
		return model.UserView{}, err
	}
	u, err := s.Users.UpdateRole(ctx, targetID, in.Role, utcNow(s.Now))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.UserView{}, ErrNotFound
		}
		return model.UserView{}, s.fail(ctx, "update role", err)
	}
	s.Log.Info(ctx, "user role changed", "user_id", u.ID, "role", string(u.Role), "by", caller.ID)
	return u.View(), nil
}

// Delete removes user targetID.  Admin only.  Documents the user uploaded
// are kept.
func (s *UserService) Delete(ctx context.Context, caller model.User, targetID string) error {
	if err := Authorize(caller, model.RoleAdmin); err != nil {
		return err
	}
	if err := s.Users.Delete(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return s.fail(ctx, "delete user", err)
	}
	s.Log.Info(ctx, "user deleted", "user_id", targetID, "by", caller.ID)
	return nil
}

func (s *UserService) fail(ctx context.Context, op string, err error) error {
	s.Log.Error(ctx, "users: "+op+" failed", "err", err)
	return internal(op, err)
}
