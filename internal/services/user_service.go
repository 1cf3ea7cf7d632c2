package services

import (
	"context"

	"github.com/campuscare/backend/internal/logger"
	"github.com/campuscare/backend/internal/models"
	"github.com/campuscare/backend/internal/policy"
	"github.com/campuscare/backend/internal/store"
)

type UserService struct {
	users store.UserStore
	stats StatsCache
}

func NewUserService(users store.UserStore, stats StatsCache) *UserService {
	if stats == nil {
		stats = NoopStatsCache{}
	}
	return &UserService{users: users, stats: stats}
}

// Me returns the account behind the actor's token.
func (s *UserService) Me(ctx context.Context, actor policy.Actor) (*models.User, error) {
	user, err := s.users.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, fromStore(err, "user")
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, actor policy.Actor) ([]models.User, error) {
	if !policy.IsAdmin(actor) {
		return nil, ErrForbidden
	}
	return s.users.ListUsers(ctx)
}

// Delete removes a user with their complaints and upvotes. Admins cannot
// delete themselves, and the last admin cannot be deleted.
func (s *UserService) Delete(ctx context.Context, actor policy.Actor, id uint) error {
	if !policy.IsAdmin(actor) {
		return ErrForbidden
	}
	if actor.ID == id {
		return ErrSelfDelete
	}

	target, err := s.users.GetUser(ctx, id)
	if err != nil {
		return fromStore(err, "user")
	}
	if target.Role == models.RoleAdmin {
		admins, err := s.users.CountAdmins(ctx)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	if err := s.users.DeleteUser(ctx, id); err != nil {
		return fromStore(err, "user")
	}
	s.stats.Invalidate(ctx)

	logger.WithUser(actor.ID).WithField("deleted_user_id", id).Info("User deleted")
	return nil
}
