package services

import (
	"context"
	"testing"

	"github.com/campuscare/backend/internal/models"
	"github.com/campuscare/backend/internal/policy"
	"github.com/campuscare/backend/internal/store"
	"github.com/campuscare/backend/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, mem *storetest.Memory, email string, role models.Role, department string) policy.Actor {
	t.Helper()
	user := &models.User{Email: email, Password: "hash", Role: role}
	if department != "" {
		user.Department = &department
	}
	require.NoError(t, mem.CreateUser(context.Background(), user))
	return policy.Actor{ID: user.ID, Email: email, Role: role, Department: department}
}

func TestUserService_Me(t *testing.T) {
	mem := storetest.NewMemory()
	svc := NewUserService(mem, nil)
	student := seedUser(t, mem, "s@campus.edu", models.RoleStudent, "")

	user, err := svc.Me(context.Background(), student)
	require.NoError(t, err)
	assert.Equal(t, "s@campus.edu", user.Email)

	_, err = svc.Me(context.Background(), policy.Actor{ID: 4242, Role: models.RoleStudent})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_List(t *testing.T) {
	mem := storetest.NewMemory()
	svc := NewUserService(mem, nil)
	admin := seedUser(t, mem, "admin@campus.edu", models.RoleAdmin, "")
	student := seedUser(t, mem, "s@campus.edu", models.RoleStudent, "")

	users, err := svc.List(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = svc.List(context.Background(), student)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("self delete", func(t *testing.T) {
		mem := storetest.NewMemory()
		svc := NewUserService(mem, nil)
		admin := seedUser(t, mem, "admin@campus.edu", models.RoleAdmin, "")
		seedUser(t, mem, "admin2@campus.edu", models.RoleAdmin, "")

		assert.ErrorIs(t, svc.Delete(ctx, admin, admin.ID), ErrSelfDelete)
	})

	t.Run("unknown user", func(t *testing.T) {
		mem := storetest.NewMemory()
		svc := NewUserService(mem, nil)
		admin := seedUser(t, mem, "admin@campus.edu", models.RoleAdmin, "")

		assert.ErrorIs(t, svc.Delete(ctx, admin, 4242), ErrNotFound)
	})

	t.Run("non admin", func(t *testing.T) {
		mem := storetest.NewMemory()
		svc := NewUserService(mem, nil)
		student := seedUser(t, mem, "s@campus.edu", models.RoleStudent, "")
		other := seedUser(t, mem, "o@campus.edu", models.RoleStudent, "")

		assert.ErrorIs(t, svc.Delete(ctx, student, other.ID), ErrForbidden)
	})

	t.Run("last admin", func(t *testing.T) {
		mem := storetest.NewMemory()
		svc := NewUserService(mem, nil)
		admin := seedUser(t, mem, "admin@campus.edu", models.RoleAdmin, "")
		// Token of an admin whose account was already removed.
		stale := policy.Actor{ID: admin.ID + 100, Role: models.RoleAdmin}

		assert.ErrorIs(t, svc.Delete(ctx, stale, admin.ID), ErrLastAdmin)
	})

	t.Run("cascades to complaints and upvotes", func(t *testing.T) {
		mem := storetest.NewMemory()
		cache := &countingCache{}
		svc := NewUserService(mem, cache)
		admin := seedUser(t, mem, "admin@campus.edu", models.RoleAdmin, "")
		student := seedUser(t, mem, "s@campus.edu", models.RoleStudent, "")
		other := seedUser(t, mem, "o@campus.edu", models.RoleStudent, "")

		complaint := &models.Complaint{Title: "Leak", Description: "Water", Status: models.StatusPending, StudentID: student.ID}
		require.NoError(t, mem.CreateComplaint(ctx, complaint))
		require.NoError(t, mem.CreateUpvote(ctx, &models.Upvote{UserID: other.ID, ComplaintID: complaint.ID}))

		require.NoError(t, svc.Delete(ctx, admin, student.ID))

		_, err := mem.GetUser(ctx, student.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = mem.GetComplaint(ctx, complaint.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Zero(t, mem.UpvotesFor(complaint.ID))
		assert.Equal(t, 1, cache.invalidations)
	})
}
