package httpdelivery

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"

	"github.com/chiragkoyande/audit-project/internal/domain/shared"
	"github.com/chiragkoyande/audit-project/internal/domain/user"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/jwt"
)

// Authenticator validates bearer tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*jwt.Claims, error)
}

type access int

const (
	accessPublic access = iota
	accessUser
	accessAdmin
)

// endpoint is an API handler that reports failures as errors.
type endpoint func(w http.ResponseWriter, r *http.Request, params map[string]string) error

// Router registers API endpoints on a grpc-gateway ServeMux.
type Router struct {
	mux   *runtime.ServeMux
	authn Authenticator
	err   error
}

// NewRouter creates a router whose protected routes use authn.
func NewRouter(authn Authenticator) *Router {
	return &Router{
		mux:   runtime.NewServeMux(runtime.WithErrorHandler(baseResponseErrorHandler)),
		authn: authn,
	}
}

// Handler returns the underlying mux.
func (rt *Router) Handler() http.Handler { return rt.mux }

// Err returns the first route registration error.
func (rt *Router) Err() error { return rt.err }

// Registrar is implemented by every resource handler.
type Registrar interface {
	Register(rt *Router)
}

// Register registers each resource handler.
func (rt *Router) Register(handlers ...Registrar) *Router {
	for _, h := range handlers {
		h.Register(rt)
	}
	return rt
}

// handle registers ep for method and pattern. Later registrations take
// precedence, so literal paths must be registered after {param} siblings.
func (rt *Router) handle(method, pattern string, level access, ep endpoint) {
	h := func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		info := routeFrom(r.Context())
		if info != nil {
			info.pattern = pattern
		}

		if level != accessPublic {
			ctx, err := rt.authenticate(r, level)
			if err != nil {
				writeError(w, r, err)
				return
			}
			r = r.WithContext(ctx)
		}

		if err := ep(w, r, params); err != nil {
			writeError(w, r, err)
		}
	}

	if err := rt.mux.HandlePath(method, pattern, h); err != nil && rt.err == nil {
		rt.err = fmt.Errorf("failed to register %s %s: %w", method, pattern, err)
	}
}

type claimsKey struct{}

func (rt *Router) authenticate(r *http.Request, level access) (context.Context, error) {
	token, ok := bearerToken(r)
	if !ok {
		return nil, fmt.Errorf("%w: missing bearer token", shared.ErrUnauthorized)
	}
	if rt.authn == nil {
		return nil, shared.ErrUnauthorized
	}

	claims, err := rt.authn.Authenticate(r.Context(), token)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, shared.ErrInvalidToken
	}
	if level == accessAdmin && claims.Role != string(user.RoleAdmin) {
		return nil, fmt.Errorf("%w: admin role required", shared.ErrPermissionDenied)
	}

	if info := routeFrom(r.Context()); info != nil {
		info.userID = claims.UserID
	}
	ctx := shared.WithActor(r.Context(), shared.Actor{UserID: userID, Email: claims.Email, Role: claims.Role})
	return context.WithValue(ctx, claimsKey{}, claims), nil
}

func claimsFrom(ctx context.Context) (*jwt.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*jwt.Claims)
	return c, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
