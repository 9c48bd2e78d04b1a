package auditlog

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() Params {
	uid := uuid.New()
	return Params{
		UserID:       &uid,
		Action:       ActionUpdate,
		ResourceType: "report",
		ResourceID:   "42",
		Description:  "updated title",
		Changes:      map[string]interface{}{"title": map[string]interface{}{"old": "a", "new": "b"}},
		IPAddress:    "192.168.1.10",
	}
}

func TestNewAuditLog(t *testing.T) {
	t.Run("success - defaults", func(t *testing.T) {
		l, err := NewAuditLog(validParams())
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, l.Status())
		assert.False(t, l.Timestamp().IsZero())
		assert.Equal(t, time.UTC, l.Timestamp().Location())
		assert.Equal(t, 0, l.Timestamp().Nanosecond()%1000)
		assert.Equal(t, int64(0), l.Seq())
	})

	t.Run("success - ipv6 and nil user", func(t *testing.T) {
		p := validParams()
		p.UserID = nil
		p.IPAddress = "2001:db8::1"
		l, err := NewAuditLog(p)
		require.NoError(t, err)
		assert.Nil(t, l.UserID())
		assert.Nil(t, l.ToMap()["user_id"])
	})

	tests := []struct {
		name    string
		mutate  func(p *Params)
		wantErr error
	}{
		{"empty action", func(p *Params) { p.Action = " " }, ErrEmptyAction},
		{"long action", func(p *Params) { p.Action = strings.Repeat("a", 51) }, ErrActionTooLong},
		{"empty resource type", func(p *Params) { p.ResourceType = "" }, ErrEmptyResourceType},
		{"long resource type", func(p *Params) { p.ResourceType = strings.Repeat("r", 51) }, ErrResourceTypeTooLong},
		{"long resource id", func(p *Params) { p.ResourceID = strings.Repeat("1", 51) }, ErrResourceIDTooLong},
		{"bad ip", func(p *Params) { p.IPAddress = "999.1.1.1" }, ErrInvalidIPAddress},
		{"bad status", func(p *Params) { p.Status = "maybe" }, ErrInvalidStatus},
		{"unserializable changes", func(p *Params) { p.Changes = map[string]interface{}{"ch": make(chan int)} }, ErrChangesNotSerialized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			_, err := NewAuditLog(p)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuditLog_IsSensitiveFailure(t *testing.T) {
	p := validParams()
	p.Action = ActionDelete
	p.Status = StatusFailure
	l, err := NewAuditLog(p)
	require.NoError(t, err)
	assert.True(t, l.IsSensitiveFailure())

	p.Status = StatusSuccess
	l, err = NewAuditLog(p)
	require.NoError(t, err)
	assert.False(t, l.IsSensitiveFailure())

	p.Action = ActionUpdate
	p.Status = StatusFailure
	l, err = NewAuditLog(p)
	require.NoError(t, err)
	assert.False(t, l.IsSensitiveFailure())
}

func TestComputeChanges(t *testing.T) {
	oldData := map[string]interface{}{"title": "a", "status": "draft", "gone": 1}
	newData := map[string]interface{}{"title": "b", "status": "draft", "added": true}

	changes := ComputeChanges(oldData, newData)

	assert.Len(t, changes, 3)
	assert.Equal(t, map[string]interface{}{"old": "a", "new": "b"}, changes["title"])
	assert.Equal(t, map[string]interface{}{"old": nil, "new": true}, changes["added"])
	assert.Equal(t, map[string]interface{}{"old": 1, "new": nil}, changes["gone"])
	assert.NotContains(t, changes, "status")
}

func TestToJSON(t *testing.T) {
	type sample struct {
		Name string `json:"name"`
	}
	assert.Equal(t, map[string]interface{}{"name": "x"}, ToJSON(sample{Name: "x"}))
	assert.Nil(t, ToJSON(nil))
	assert.Nil(t, ToJSON([]int{1}))
}
