// Package apperrors defines the error taxonomy shared by every service in
// the backend. Each error chains up to one of four root kinds; callers
// classify with errors.Is and the HTTP boundary maps kinds to status codes.
package apperrors

import (
	"errors"
	"fmt"
)

// Root kinds. Every typed error wraps exactly one of these.
var (
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
)

// Typed errors thrown by the Session Authority and its collaborators.
// Security-relevant failures deliberately share ErrInvalidCredentials /
// ErrInvalidRefreshToken so callers cannot distinguish the internal cause;
// the audit sink receives the precise reason instead.
var (
	ErrEmailTaken          = fmt.Errorf("an account with this email already exists: %w", ErrConflict)
	ErrInvalidCredentials  = fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	ErrAccountInactive     = fmt.Errorf("account is deactivated: %w", ErrUnauthorized)
	ErrInvalidRefreshToken = fmt.Errorf("invalid refresh token: %w", ErrUnauthorized)
	ErrInvalidAccessToken  = fmt.Errorf("invalid access token: %w", ErrUnauthorized)
	ErrInvalidOTP          = fmt.Errorf("invalid or expired OTP: %w", ErrBadRequest)
	ErrSessionNotFound     = fmt.Errorf("session not found: %w", ErrNotFound)
	ErrUserNotFound        = fmt.Errorf("user not found: %w", ErrNotFound)
	ErrMentorNotFound      = fmt.Errorf("mentor profile not found: %w", ErrNotFound)
	ErrSlotNotFound        = fmt.Errorf("availability slot not found: %w", ErrNotFound)
	ErrSlotNotOwned        = fmt.Errorf("you do not own this availability slot: %w", ErrUnauthorized)
	ErrSkillNotFound       = fmt.Errorf("skill not found: %w", ErrNotFound)
	ErrTagExists           = fmt.Errorf("tag name or slug already exists: %w", ErrBadRequest)
	ErrUnknownTags         = fmt.Errorf("some tags do not exist: %w", ErrBadRequest)
	ErrTagsAlreadyAssigned = fmt.Errorf("all tags already assigned: %w", ErrBadRequest)
)

// BadRequestf builds a request-validation error with a caller-facing message.
func BadRequestf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrBadRequest)...)
}

// Conflictf builds a conflict error with a caller-facing message.
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}

func IsConflict(err error) bool     { return errors.Is(err, ErrConflict) }
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
func IsBadRequest(err error) bool   { return errors.Is(err, ErrBadRequest) }
func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
