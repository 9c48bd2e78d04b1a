package httpdelivery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	appnotification "github.com/chiragkoyande/audit-project/internal/application/notification"
	"github.com/chiragkoyande/audit-project/internal/domain/analysis"
	"github.com/chiragkoyande/audit-project/internal/domain/report"
	"github.com/chiragkoyande/audit-project/internal/domain/shared"
	"github.com/chiragkoyande/audit-project/internal/domain/syslog"
	"github.com/chiragkoyande/audit-project/internal/domain/user"
)

func TestErrorMapper(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
		http int
	}{
		{"not found", fmt.Errorf("report: %w", shared.ErrNotFound), codes.NotFound, http.StatusNotFound},
		{"already exists", shared.ErrAlreadyExists, codes.AlreadyExists, http.StatusConflict},
		{"invalid transition", report.ErrInvalidTransition, codes.Aborted, http.StatusConflict},
		{"archived report", report.ErrArchived, codes.FailedPrecondition, http.StatusPreconditionFailed},
		{"ai disabled", analysis.ErrAIDisabled, codes.FailedPrecondition, http.StatusPreconditionFailed},
		{"expired token", shared.ErrTokenExpired, codes.Unauthenticated, http.StatusUnauthorized},
		{"permission denied", shared.ErrPermissionDenied, codes.PermissionDenied, http.StatusForbidden},
		{"queue unavailable", appnotification.ErrQueueUnavailable, codes.Unavailable, http.StatusServiceUnavailable},
		{"invalid email", user.ErrInvalidEmail, codes.InvalidArgument, http.StatusBadRequest},
		{"invalid level", syslog.ErrInvalidLevel, codes.InvalidArgument, http.StatusBadRequest},
		{"validation error", shared.NewValidationError("title", "is required"), codes.InvalidArgument, http.StatusBadRequest},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), codes.Internal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := status.Convert(ErrorMapper(tt.err))
			assert.Equal(t, tt.code, st.Code())
			assert.Equal(t, tt.http, grpcCodeToHTTP(st.Code()))
		})
	}

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, ErrorMapper(nil))
	})

	t.Run("status errors pass through", func(t *testing.T) {
		in := status.Error(codes.ResourceExhausted, "slow down")
		assert.Equal(t, codes.ResourceExhausted, status.Code(ErrorMapper(in)))
	})
}

func TestErrorResponse(t *testing.T) {
	t.Run("success - validation errors are listed", func(t *testing.T) {
		var errs shared.ValidationErrors
		errs.Add("email", "is required")
		errs.Add("password", "is required")

		code, base := errorResponse(errs)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "400", base.StatusCode)
		assert.False(t, base.IsSuccess)
		assert.Equal(t, "Validation failed", base.Message)
		assert.Len(t, base.ValidationErrors, 2)
		assert.Equal(t, "email", base.ValidationErrors[0].Field)
	})

	t.Run("success - internal messages are hidden", func(t *testing.T) {
		code, base := errorResponse(errors.New("pq: connection refused"))
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "internal server error", base.Message)
		assert.Empty(t, base.ValidationErrors)
	})

	t.Run("success - unavailable keeps its message", func(t *testing.T) {
		code, base := errorResponse(appnotification.ErrQueueUnavailable)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Contains(t, base.Message, appnotification.ErrQueueUnavailable.Error())
	})
}
