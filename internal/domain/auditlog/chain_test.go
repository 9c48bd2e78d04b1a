package auditlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildChain(t *testing.T, n int) []*AuditLog {
	t.Helper()
	logs := make([]*AuditLog, 0, n)
	prev := ""
	for i := 1; i <= n; i++ {
		l, err := NewAuditLog(validParams())
		require.NoError(t, err)
		l.Chain(int64(i), prev)
		prev = l.Hash()
		logs = append(logs, l)
	}
	return logs
}

func TestChain_Hash(t *testing.T) {
	logs := buildChain(t, 2)
	assert.True(t, len(logs[0].Hash()) > len(HashPrefix))
	assert.Contains(t, logs[0].Hash(), HashPrefix)
	assert.Equal(t, logs[0].Hash(), logs[1].PrevHash())
	assert.Equal(t, logs[0].Hash(), logs[0].ComputeHash())
}

func TestVerifyChain(t *testing.T) {
	t.Run("success - intact chain", func(t *testing.T) {
		logs := buildChain(t, 5)
		res := VerifyChain(logs, "")
		assert.True(t, res.Intact())
		assert.Equal(t, int64(5), res.Checked)
		assert.Equal(t, logs[4].Hash(), res.LastHash)
	})

	t.Run("tampered content", func(t *testing.T) {
		logs := buildChain(t, 4)
		logs[2].description = "changed"
		logs[2].action = "login"
		res := VerifyChain(logs, "")
		assert.False(t, res.Intact())
		assert.Equal(t, int64(3), res.BrokenAtSeq)
		assert.Equal(t, "content hash mismatch", res.Reason)
	})

	t.Run("removed entry", func(t *testing.T) {
		logs := buildChain(t, 4)
		logs = append(logs[:1], logs[2:]...)
		res := VerifyChain(logs, "")
		assert.Equal(t, int64(3), res.BrokenAtSeq)
		assert.Equal(t, "previous hash mismatch", res.Reason)
	})

	t.Run("continues from a previous page", func(t *testing.T) {
		logs := buildChain(t, 6)
		first := VerifyChain(logs[:3], "")
		second := VerifyChain(logs[3:], first.LastHash)
		assert.True(t, second.Intact())
	})
}
