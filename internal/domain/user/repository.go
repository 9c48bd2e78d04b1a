package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for user persistence operations.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	List(ctx context.Context, params ListParams) ([]*User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// ListParams contains parameters for listing users.
type ListParams struct {
	Page      int
	PageSize  int
	Search    string
	IsActive  *bool
	Role      Role
	SortBy    string
	SortOrder string
}
