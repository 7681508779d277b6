package auth

import (
	"context"
	"errors"
)

// ErrEmailExists indicates a duplicate email address.
var ErrEmailExists = errors.New("email already exists")

// Repository persists user accounts.
type Repository interface {
	Create(ctx context.Context, email, nickname, passwordHash string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, bool, error)
	GetByID(ctx context.Context, id int64) (User, bool, error)
}
