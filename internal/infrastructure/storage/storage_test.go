package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name     string
		basePath string
		folder   string
		file     string
		want     string
	}{
		{"with base path", "audit", "compliance", "compliance_20240101_000000.pdf", "audit/compliance/compliance_20240101_000000.pdf"},
		{"no base path", "", "exports", "audit_logs.xlsx", "exports/audit_logs.xlsx"},
		{"strips directories from name", "audit", "exports", "../../etc/passwd", "audit/exports/passwd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectKey(tt.basePath, tt.folder, tt.file))
		})
	}
}
