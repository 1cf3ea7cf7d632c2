package services

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"
	"sync"
	"time"

	"github.com/campuscare/backend/internal/logger"
	"github.com/campuscare/backend/internal/models"
	"github.com/campuscare/backend/internal/policy"
	"github.com/campuscare/backend/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID     uint   `json:"user_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	jwt.RegisteredClaims
}

type RegisterRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

type AuthService struct {
	users   store.UserStore
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	compare func(hash, password []byte) error
}

func NewAuthService(users store.UserStore, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		users:   users,
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		compare: bcrypt.CompareHashAndPassword,
	}
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// unknownUserHash is compared against when the email is not registered, so
// both failure paths pay the bcrypt cost.
func unknownUserHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("campuscare-unknown-user"), bcrypt.DefaultCost)
	})
	return dummyHash
}

// HashPassword bcrypt-hashes a plaintext password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrValidation)
	}
	addr, err := netmail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	return addr.Address, nil
}

func checkPassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	return nil
}

// RegisterStudent creates a student account. It is the only public
// registration path.
func (s *AuthService) RegisterStudent(ctx context.Context, email, password string) (*models.User, error) {
	return s.register(ctx, email, password, models.RoleStudent, "")
}

// RegisterUser lets an admin create an account of any role.
func (s *AuthService) RegisterUser(ctx context.Context, actor policy.Actor, req RegisterRequest) (*models.User, error) {
	if !policy.IsAdmin(actor) {
		return nil, ErrForbidden
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.register(ctx, req.Email, req.Password, role, req.Department)
}

func (s *AuthService) register(ctx context.Context, email, password string, role models.Role, department string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	user := &models.User{Email: email, Role: role}
	department = strings.TrimSpace(department)
	if role == models.RoleDepartment {
		if department == "" {
			return nil, fmt.Errorf("%w: department is required for department users", ErrValidation)
		}
		user.Department = &department
	}

	if user.Password, err = HashPassword(password); err != nil {
		return nil, err
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fromStore(err, "user")
	}

	logger.Info("User registered", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, nil
}

// Login authenticates against the role-specific endpoint. An account of a
// different role is refused even with the right password.
func (s *AuthService) Login(ctx context.Context, role models.Role, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.compare(unknownUserHash(), []byte(password))
			return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
		}
		return nil, err
	}
	if err := s.compare([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	}
	if user.Role != role {
		return nil, fmt.Errorf("%w: account is not a %s account", ErrForbidden, role)
	}

	token, expiresAt, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) IssueToken(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       string(user.Role),
		Department: user.DepartmentName(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken verifies a token and returns the actor it identifies.
func (s *AuthService) ParseToken(tokenString string) (policy.Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return policy.Actor{}, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}

	role, err := models.ParseRole(claims.Role)
	if err != nil || claims.UserID == 0 {
		return policy.Actor{}, fmt.Errorf("%w: invalid token claims", ErrUnauthenticated)
	}
	return policy.Actor{
		ID:         claims.UserID,
		Email:      claims.Email,
		Role:       role,
		Department: claims.Department,
	}, nil
}
