package syslog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"Info", LevelInfo, false},
		{"warning", LevelWarning, false},
		{"warn", LevelWarning, false},
		{"ERROR", LevelError, false},
		{"critical", LevelCritical, false},
		{"fatal", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewEntry(t *testing.T) {
	t.Run("success - level upper-cased", func(t *testing.T) {
		e, err := NewEntry("error", "billing", "charge failed")
		require.NoError(t, err)
		assert.Equal(t, LevelError, e.Level())
		require.NoError(t, e.WithRequestID("req-123"))
		e.WithStackTrace("trace").WithData(map[string]interface{}{"k": "v"})

		m := e.ToMap()
		assert.Equal(t, "ERROR", m["level"])
		assert.Equal(t, "req-123", m["request_id"])
		assert.Equal(t, "trace", m["stack_trace"])
	})

	t.Run("validation", func(t *testing.T) {
		_, err := NewEntry("info", "", "msg")
		assert.ErrorIs(t, err, ErrEmptyModule)
		_, err = NewEntry("info", strings.Repeat("m", 101), "msg")
		assert.ErrorIs(t, err, ErrModuleTooLong)
		_, err = NewEntry("info", "mod", " ")
		assert.ErrorIs(t, err, ErrEmptyMessage)
		_, err = NewEntry("loud", "mod", "msg")
		assert.ErrorIs(t, err, ErrInvalidLevel)

		e, err := NewEntry("info", "mod", "msg")
		require.NoError(t, err)
		assert.ErrorIs(t, e.WithRequestID(strings.Repeat("r", 51)), ErrRequestIDTooLong)
	})
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, 5, NormalizeLimit(5))
	assert.Equal(t, 1000, NormalizeLimit(5000))
}
