package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiragkoyande/audit-project/internal/domain/shared"
)

func TestNewUser(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		fullName string
		role     Role
		wantErr  error
	}{
		{"success - defaults to viewer", "Jane@Example.com", "Jane Doe", "", nil},
		{"success - admin", "root@example.com", "Root", RoleAdmin, nil},
		{"invalid email", "not-an-email", "Jane", RoleViewer, ErrInvalidEmail},
		{"email too long", strings.Repeat("a", 250) + "@x.com", "Jane", RoleViewer, ErrEmailTooLong},
		{"empty name", "jane@example.com", "   ", RoleViewer, ErrEmptyFullName},
		{"name too long", "jane@example.com", strings.Repeat("n", 256), RoleViewer, ErrFullNameTooLong},
		{"bad role", "jane@example.com", "Jane", Role("owner"), ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewUser(tt.email, tt.fullName, tt.role)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, u)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, strings.ToLower(tt.email), u.Email())
			assert.True(t, u.IsActive())
			assert.NotEmpty(t, u.ID())
			if tt.role == "" {
				assert.Equal(t, RoleViewer, u.Role())
			}
		})
	}
}

func TestUser_Behavior(t *testing.T) {
	u, err := NewUser("jane@example.com", "Jane", RoleAuditor)
	require.NoError(t, err)

	t.Run("cannot login without password", func(t *testing.T) {
		assert.ErrorIs(t, u.CanLogin(), ErrNoPassword)
	})

	t.Run("success - login after password set", func(t *testing.T) {
		u.SetPasswordHash("hash")
		assert.NoError(t, u.CanLogin())
	})

	t.Run("deactivate twice conflicts", func(t *testing.T) {
		require.NoError(t, u.Deactivate())
		assert.ErrorIs(t, u.Deactivate(), shared.ErrConflict)
		assert.ErrorIs(t, u.CanLogin(), ErrInactive)
		u.Activate()
		assert.True(t, u.IsActive())
	})

	t.Run("change role", func(t *testing.T) {
		assert.ErrorIs(t, u.ChangeRole("root"), ErrInvalidRole)
		require.NoError(t, u.ChangeRole(RoleAdmin))
		assert.Equal(t, RoleAdmin, u.Role())
	})

	t.Run("to map", func(t *testing.T) {
		m := u.ToMap()
		assert.Equal(t, "jane@example.com", m["email"])
		assert.Equal(t, "Jane", m["full_name"])
		assert.Equal(t, true, m["is_active"])
	})
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	r, err = ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, RoleViewer, r)

	_, err = ParseRole("superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)
}
