package httpdelivery

import (
	"net/http"
	"time"

	"github.com/chiragkoyande/audit-project/internal/application/auth"
	"github.com/chiragkoyande/audit-project/internal/domain/shared"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        userResponse `json:"user"`
}

// AuthHandler serves login and logout.
type AuthHandler struct {
	service *auth.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// Register implements Registrar.
func (h *AuthHandler) Register(rt *Router) {
	rt.handle(http.MethodPost, "/api/v1/auth/login", accessPublic, h.login)
	rt.handle(http.MethodPost, "/api/v1/auth/logout", accessUser, h.logout)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	result, err := h.service.Login(r.Context(), auth.LoginInput{Email: req.Email, Password: req.Password})
	RecordAuthOperation("login", err == nil)
	if err != nil {
		return err
	}

	writeOK(w, "Login successful", loginResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresIn:   result.ExpiresIn,
		ExpiresAt:   result.ExpiresAt,
		User:        toUserResponse(result.User),
	})
	return nil
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		return shared.ErrUnauthorized
	}
	err := h.service.Logout(r.Context(), claims)
	RecordAuthOperation("logout", err == nil)
	if err != nil {
		return err
	}
	writeOK(w, "Logged out", nil)
	return nil
}
