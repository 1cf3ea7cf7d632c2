package services

import (
	"context"
	"testing"
	"time"

	"github.com/campuscare/backend/internal/models"
	"github.com/campuscare/backend/internal/policy"
	"github.com/campuscare/backend/internal/store/storetest"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func newAuth() (*AuthService, *storetest.Memory) {
	mem := storetest.NewMemory()
	return NewAuthService(mem, testSecret, 24*time.Hour), mem
}

var adminActor = policy.Actor{ID: 999, Email: "root@campus.edu", Role: models.RoleAdmin}

func TestRegisterStudent(t *testing.T) {
	auth, mem := newAuth()
	ctx := context.Background()

	user, err := auth.RegisterStudent(ctx, "  Alice@Campus.EDU ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice@campus.edu", user.Email)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Nil(t, user.Department)
	assert.NotEqual(t, "secret1", user.Password, "password must be hashed")

	stored, err := mem.GetUserByEmail(ctx, "alice@campus.edu")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestRegisterStudent_Duplicate(t *testing.T) {
	auth, _ := newAuth()
	ctx := context.Background()

	_, err := auth.RegisterStudent(ctx, "bob@campus.edu", "secret1")
	require.NoError(t, err)

	_, err = auth.RegisterStudent(ctx, "BOB@campus.edu", "another1")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = auth.RegisterStudent(ctx, "Bob <bob@campus.edu>", "another1")
	assert.ErrorIs(t, err, ErrValidation, "display-name forms are not a second mailbox")
}

func TestRegisterStudent_Validation(t *testing.T) {
	auth, _ := newAuth()
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"missing email", "", "secret1"},
		{"malformed email", "not-an-email", "secret1"},
		{"display name", "Carol <carol@campus.edu>", "secret1"},
		{"angle brackets", "<carol@campus.edu>", "secret1"},
		{"short password", "carol@campus.edu", "12345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.RegisterStudent(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRegisterUser(t *testing.T) {
	auth, _ := newAuth()
	ctx := context.Background()

	t.Run("requires admin", func(t *testing.T) {
		student := policy.Actor{ID: 1, Role: models.RoleStudent}
		_, err := auth.RegisterUser(ctx, student, RegisterRequest{Email: "x@campus.edu", Password: "secret1", Role: "admin"})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("department requires a department name", func(t *testing.T) {
		_, err := auth.RegisterUser(ctx, adminActor, RegisterRequest{Email: "it@campus.edu", Password: "secret1", Role: "department"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := auth.RegisterUser(ctx, adminActor, RegisterRequest{Email: "x@campus.edu", Password: "secret1", Role: "janitor"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("creates department user", func(t *testing.T) {
		user, err := auth.RegisterUser(ctx, adminActor, RegisterRequest{
			Email: "it@campus.edu", Password: "secret1", Role: "Department", Department: " IT Services ",
		})
		require.NoError(t, err)
		assert.Equal(t, models.RoleDepartment, user.Role)
		assert.Equal(t, "IT Services", user.DepartmentName())
	})

	t.Run("department is dropped for other roles", func(t *testing.T) {
		user, err := auth.RegisterUser(ctx, adminActor, RegisterRequest{
			Email: "admin2@campus.edu", Password: "secret1", Role: "admin", Department: "Library",
		})
		require.NoError(t, err)
		assert.Nil(t, user.Department)
	})
}

func TestLogin(t *testing.T) {
	auth, _ := newAuth()
	ctx := context.Background()

	_, err := auth.RegisterStudent(ctx, "dave@campus.edu", "secret1")
	require.NoError(t, err)

	t.Run("unknown email", func(t *testing.T) {
		_, err := auth.Login(ctx, models.RoleStudent, "nobody@campus.edu", "secret1")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("unknown email still compares a hash", func(t *testing.T) {
		var compared int
		counting, _ := newAuth()
		counting.compare = func(hash, password []byte) error {
			compared++
			assert.NotEmpty(t, hash)
			return bcrypt.CompareHashAndPassword(hash, password)
		}
		_, err := counting.Login(ctx, models.RoleStudent, "nobody@campus.edu", "secret1")
		assert.ErrorIs(t, err, ErrUnauthenticated)
		assert.Equal(t, 1, compared)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := auth.Login(ctx, models.RoleStudent, "dave@campus.edu", "wrong-password")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("role mismatch", func(t *testing.T) {
		_, err := auth.Login(ctx, models.RoleAdmin, "dave@campus.edu", "secret1")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("success", func(t *testing.T) {
		res, err := auth.Login(ctx, models.RoleStudent, "Dave@campus.edu", "secret1")
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, "dave@campus.edu", res.User.Email)

		actor, err := auth.ParseToken(res.Token)
		require.NoError(t, err)
		assert.Equal(t, res.User.ID, actor.ID)
		assert.Equal(t, models.RoleStudent, actor.Role)
		assert.Equal(t, "dave@campus.edu", actor.Email)
	})
}

func TestIssueToken_ExpiresAfterTTL(t *testing.T) {
	auth, _ := newAuth()
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	auth.now = func() time.Time { return issued }

	dept := "Library"
	token, expiresAt, err := auth.IssueToken(&models.User{ID: 7, Email: "lib@campus.edu", Role: models.RoleDepartment, Department: &dept})
	require.NoError(t, err)
	assert.Equal(t, issued.Add(24*time.Hour), expiresAt)

	actor, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, policy.Actor{ID: 7, Email: "lib@campus.edu", Role: models.RoleDepartment, Department: "Library"}, actor)

	auth.now = func() time.Time { return issued.Add(25 * time.Hour) }
	_, err = auth.ParseToken(token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestParseToken_Rejects(t *testing.T) {
	auth, _ := newAuth()

	t.Run("garbage", func(t *testing.T) {
		_, err := auth.ParseToken("not.a.token")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewAuthService(storetest.NewMemory(), "other-secret", time.Hour)
		token, _, err := other.IssueToken(&models.User{ID: 1, Role: models.RoleAdmin})
		require.NoError(t, err)
		_, err = auth.ParseToken(token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("unsigned", func(t *testing.T) {
		claims := Claims{
			UserID: 1,
			Role:   "admin",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = auth.ParseToken(token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("unknown role", func(t *testing.T) {
		claims := Claims{
			UserID: 1,
			Role:   "superuser",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = auth.ParseToken(token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}
