package users

import "context"

// Repo manages account storage. Implementations return
// apperrors.ErrUserNotFound (or an error wrapping it) for absent accounts.
type Repo interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetActive(ctx context.Context, id string, active bool) error
}
