package report

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for report persistence operations.
type Repository interface {
	Create(ctx context.Context, report *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	Update(ctx context.Context, report *Report) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params ListParams) ([]*Report, int64, error)
}

// ListParams contains parameters for listing reports.
type ListParams struct {
	Page      int
	PageSize  int
	Search    string
	UserID    *uuid.UUID
	Status    Status
	SortBy    string
	SortOrder string
}
