package user

import (
	"context"

	"github.com/chiragkoyande/audit-project/internal/domain/shared"
	"github.com/chiragkoyande/audit-project/internal/domain/user"
)

// ListQuery represents the list users query.
type ListQuery struct {
	Page      int
	PageSize  int
	Search    string
	IsActive  *bool
	Role      string
	SortBy    string
	SortOrder string
}

// ListResult represents the list users result.
type ListResult struct {
	Users       []*user.User
	TotalItems  int64
	TotalPages  int32
	CurrentPage int32
	PageSize    int32
}

// ListHandler handles the ListUsers query.
type ListHandler struct {
	repo user.Repository
}

// NewListHandler creates a new ListHandler.
func NewListHandler(repo user.Repository) *ListHandler {
	return &ListHandler{repo: repo}
}

// Handle executes the list users query.
func (h *ListHandler) Handle(ctx context.Context, query ListQuery) (*ListResult, error) {
	page, pageSize := shared.NormalizePage(query.Page, query.PageSize)

	var role user.Role
	if query.Role != "" {
		r, err := user.ParseRole(query.Role)
		if err != nil {
			return nil, err
		}
		role = r
	}

	users, total, err := h.repo.List(ctx, user.ListParams{
		Page:      page,
		PageSize:  pageSize,
		Search:    query.Search,
		IsActive:  query.IsActive,
		Role:      role,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	})
	if err != nil {
		return nil, err
	}

	totalPages := int32(total) / int32(pageSize)
	if int32(total)%int32(pageSize) > 0 {
		totalPages++
	}

	return &ListResult{
		Users:       users,
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: int32(page),
		PageSize:    int32(pageSize),
	}, nil
}
