package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chiragkoyande/audit-project/internal/application/auth"
	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
	"github.com/chiragkoyande/audit-project/internal/domain/shared"
	"github.com/chiragkoyande/audit-project/internal/domain/user"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/jwt"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/memcache"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/password"
)

// MockUserRepository is a mock implementation of user.Repository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, params user.ListParams) ([]*user.User, int64, error) {
	args := m.Called(ctx, params)
	return args.Get(0).([]*user.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockRecorder is a mock implementation of auditlog.Recorder.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, p auditlog.Params) (*auditlog.AuditLog, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditlog.AuditLog), args.Error(1)
}

const testPassword = "C0rrectHorseBattery"

func newJWT() *jwt.Service {
	return jwt.NewService(&config.JWTConfig{
		AccessTokenSecret: "test-secret-key-for-unit-tests",
		AccessTokenTTL:    15 * time.Minute,
		Issuer:            "audit-backend",
	})
}

func activeUser(t *testing.T) *user.User {
	t.Helper()
	u, err := user.NewUser("auditor@example.com", "Alex Auditor", user.RoleAuditor)
	require.NoError(t, err)
	hash, err := password.Hash(testPassword)
	require.NoError(t, err)
	u.SetPasswordHash(hash)
	return u
}

func TestService_Login(t *testing.T) {
	t.Run("success - issues bearer token", func(t *testing.T) {
		repo := new(MockUserRepository)
		auditor := new(MockRecorder)
		u := activeUser(t)
		svc := auth.NewService(repo, newJWT(), nil, auditor)

		repo.On("GetByEmail", mock.Anything, "auditor@example.com").Return(u, nil)
		auditor.On("Record", mock.Anything, mock.MatchedBy(func(p auditlog.Params) bool {
			return p.Action == auditlog.ActionLogin && p.Status == auditlog.StatusSuccess
		})).Return(nil, nil)

		res, err := svc.Login(context.Background(), auth.LoginInput{Email: "auditor@example.com", Password: testPassword})
		require.NoError(t, err)
		assert.Equal(t, "Bearer", res.TokenType)
		assert.Equal(t, int64(900), res.ExpiresIn)
		assert.NotEmpty(t, res.AccessToken)
		auditor.AssertExpectations(t)
	})

	t.Run("error - wrong password is recorded as failed login", func(t *testing.T) {
		repo := new(MockUserRepository)
		auditor := new(MockRecorder)
		svc := auth.NewService(repo, newJWT(), nil, auditor)

		repo.On("GetByEmail", mock.Anything, "auditor@example.com").Return(activeUser(t), nil)
		auditor.On("Record", mock.Anything, mock.MatchedBy(func(p auditlog.Params) bool {
			return p.Action == auditlog.ActionLoginFailed && p.Status == auditlog.StatusFailure && p.UserID != nil
		})).Return(nil, nil)

		_, err := svc.Login(context.Background(), auth.LoginInput{Email: "auditor@example.com", Password: "nope"})
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
		auditor.AssertExpectations(t)
	})

	t.Run("error - unknown email", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := auth.NewService(repo, newJWT(), nil, nil)
		repo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, shared.ErrNotFound)

		_, err := svc.Login(context.Background(), auth.LoginInput{Email: "ghost@example.com", Password: testPassword})
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	})

	t.Run("error - inactive user", func(t *testing.T) {
		repo := new(MockUserRepository)
		u := activeUser(t)
		require.NoError(t, u.Deactivate())
		svc := auth.NewService(repo, newJWT(), nil, nil)
		repo.On("GetByEmail", mock.Anything, "auditor@example.com").Return(u, nil)

		_, err := svc.Login(context.Background(), auth.LoginInput{Email: "auditor@example.com", Password: testPassword})
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
	})
}

func TestService_AuthenticateAndLogout(t *testing.T) {
	jwtSvc := newJWT()
	blacklist := memcache.NewTokenBlacklist(100, time.Hour)
	svc := auth.NewService(new(MockUserRepository), jwtSvc, blacklist, nil)
	ctx := context.Background()

	token, err := jwtSvc.Issue(uuid.New(), "auditor@example.com", "auditor")
	require.NoError(t, err)

	t.Run("success - valid token", func(t *testing.T) {
		claims, err := svc.Authenticate(ctx, token.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "auditor@example.com", claims.Email)
		assert.Equal(t, token.TokenID, claims.ID)
	})

	t.Run("error - garbage token", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, shared.ErrInvalidToken)
	})

	t.Run("error - token revoked after logout", func(t *testing.T) {
		claims, err := svc.Authenticate(ctx, token.AccessToken)
		require.NoError(t, err)
		require.NoError(t, svc.Logout(ctx, claims))

		_, err = svc.Authenticate(ctx, token.AccessToken)
		assert.ErrorIs(t, err, shared.ErrInvalidToken)
	})
}
