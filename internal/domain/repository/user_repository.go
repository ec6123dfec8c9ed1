package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-invoice-dashboard/internal/domain/entity"
)

// ErrNotFound is returned when a lookup matches no row. Callers use it
// to tell "no such record" apart from infrastructure failures.
var ErrNotFound = errors.New("not found")

// UserRepository defines the read-only user lookups used by login.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}
