package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmr/account-service/internal/domain"
)

// UpdateUserParams is the allow-listed field set for user updates. A nil
// field is left untouched; Password is re-hashed before it is stored.
type UpdateUserParams struct {
	Name     *string
	Email    *string
	Password *string
}

// Empty reports whether no field is set.
func (p UpdateUserParams) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Password == nil
}

type UserRepository interface {
	// Create hashes the raw password and inserts the row. The returned
	// record is the public projection; the hash is never populated.
	// A duplicate email fails with domain.ErrEmailExists.
	Create(ctx context.Context, name, email, rawPassword string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByEmailWithSecret includes the password hash. Login verification only.
	GetByEmailWithSecret(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateUserParams) (*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
}

type Repositories struct {
	User UserRepository
}
