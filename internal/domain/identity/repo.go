package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/medvault/medvault/internal/platform/auth"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role auth.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
}
