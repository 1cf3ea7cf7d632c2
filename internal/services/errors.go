package services

import (
	"errors"
	"fmt"

	"github.com/campuscare/backend/internal/store"
)

// Services wrap these with context, e.g. fmt.Errorf("%w: title is required",
// ErrValidation). Controllers map them to status codes.
var (
	ErrValidation        = errors.New("validation failed")
	ErrUnauthenticated   = errors.New("authentication required")
	ErrForbidden         = errors.New("not authorized to perform this action")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrSelfDelete        = errors.New("admin cannot delete their own account")
	ErrLastAdmin         = errors.New("at least one admin must remain in the system")
)

// fromStore converts store sentinels into service errors; what names the
// missing or duplicated resource.
func fromStore(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%s %w", what, ErrNotFound)
	case errors.Is(err, store.ErrDuplicate):
		return fmt.Errorf("%s %w", what, ErrConflict)
	default:
		return err
	}
}
