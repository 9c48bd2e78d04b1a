package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("Correct-Horse-42")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=2$"))

	ok, err := Verify("Correct-Horse-42", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := Hash("Correct-Horse-42")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts differ")
}

func TestVerify_InvalidHash(t *testing.T) {
	for _, h := range []string{"", "plain", "$bcrypt$x$y$z$w", "$argon2id$v=18$m=1,t=1,p=1$AAAA$AAAA"} {
		_, err := Verify("x", h)
		assert.ErrorIs(t, err, ErrInvalidHash, h)
	}
}

func TestValidate(t *testing.T) {
	policy := DefaultPolicy()
	tests := []struct {
		password string
		wantErr  error
	}{
		{"Sh0rt", ErrPasswordTooShort},
		{"alllowercase123", ErrNoUppercase},
		{"ALLUPPERCASE123", ErrNoLowercase},
		{"NoNumbersHereAtAll", ErrNoNumber},
		{"Good-Password-2024", nil},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := Validate(tt.password, policy)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
