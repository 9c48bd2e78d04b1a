package httpdelivery

import (
	"net/http"
	"time"

	userapp "github.com/chiragkoyande/audit-project/internal/application/user"
	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
	"github.com/chiragkoyande/audit-project/internal/domain/user"
)

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	FullName string `json:"full_name" validate:"required,max=255"`
	Role     string `json:"role" validate:"omitempty,oneof=admin auditor viewer"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateUserRequest is the body of PUT /users/{id}. Absent fields are left unchanged.
type UpdateUserRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=255"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin auditor viewer"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:        u.ID().String(),
		Email:     u.Email(),
		FullName:  u.FullName(),
		Role:      string(u.Role()),
		IsActive:  u.IsActive(),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
	}
}

// UserHandler serves user management. Every route requires the admin role.
type UserHandler struct {
	createHandler     *userapp.CreateHandler
	getHandler        *userapp.GetHandler
	listHandler       *userapp.ListHandler
	updateHandler     *userapp.UpdateHandler
	deactivateHandler *userapp.DeactivateHandler
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userRepo user.Repository, auditor auditlog.Recorder) *UserHandler {
	return &UserHandler{
		createHandler:     userapp.NewCreateHandler(userRepo, auditor),
		getHandler:        userapp.NewGetHandler(userRepo),
		listHandler:       userapp.NewListHandler(userRepo),
		updateHandler:     userapp.NewUpdateHandler(userRepo, auditor),
		deactivateHandler: userapp.NewDeactivateHandler(userRepo, auditor),
	}
}

// Register implements Registrar.
func (h *UserHandler) Register(rt *Router) {
	rt.handle(http.MethodPost, "/api/v1/users", accessAdmin, h.create)
	rt.handle(http.MethodGet, "/api/v1/users", accessAdmin, h.list)
	rt.handle(http.MethodGet, "/api/v1/users/{id}", accessAdmin, h.get)
	rt.handle(http.MethodPut, "/api/v1/users/{id}", accessAdmin, h.update)
	rt.handle(http.MethodPost, "/api/v1/users/{id}/deactivate", accessAdmin, h.deactivate)
}

func (h *UserHandler) create(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	entity, err := h.createHandler.Handle(r.Context(), userapp.CreateCommand{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	writeCreated(w, "User created successfully", toUserResponse(entity))
	return nil
}

func (h *UserHandler) get(w http.ResponseWriter, r *http.Request, params map[string]string) error {
	id, err := pathUUID(params, "id")
	if err != nil {
		return err
	}
	entity, err := h.getHandler.Handle(r.Context(), userapp.GetQuery{ID: id})
	if err != nil {
		return err
	}
	writeOK(w, "User retrieved successfully", toUserResponse(entity))
	return nil
}

func (h *UserHandler) list(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		return err
	}
	pageSize, err := queryInt(r, "page_size", 0)
	if err != nil {
		return err
	}
	isActive, err := queryBool(r, "is_active")
	if err != nil {
		return err
	}

	q := r.URL.Query()
	result, err := h.listHandler.Handle(r.Context(), userapp.ListQuery{
		Page:      page,
		PageSize:  pageSize,
		Search:    q.Get("search"),
		IsActive:  isActive,
		Role:      q.Get("role"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	})
	if err != nil {
		return err
	}

	users := make([]userResponse, 0, len(result.Users))
	for _, u := range result.Users {
		users = append(users, toUserResponse(u))
	}
	writePage(w, "Users retrieved successfully", users, int(result.CurrentPage), int(result.PageSize), result.TotalItems)
	return nil
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request, params map[string]string) error {
	id, err := pathUUID(params, "id")
	if err != nil {
		return err
	}
	var req UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	entity, err := h.updateHandler.Handle(r.Context(), userapp.UpdateCommand{
		ID:       id,
		FullName: req.FullName,
		Role:     req.Role,
		IsActive: req.IsActive,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	writeOK(w, "User updated successfully", toUserResponse(entity))
	return nil
}

func (h *UserHandler) deactivate(w http.ResponseWriter, r *http.Request, params map[string]string) error {
	id, err := pathUUID(params, "id")
	if err != nil {
		return err
	}
	entity, err := h.deactivateHandler.Handle(r.Context(), userapp.DeactivateCommand{ID: id})
	if err != nil {
		return err
	}
	writeOK(w, "User deactivated successfully", toUserResponse(entity))
	return nil
}
