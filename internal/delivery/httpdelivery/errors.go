package httpdelivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	appnotification "github.com/chiragkoyande/audit-project/internal/application/notification"
	"github.com/chiragkoyande/audit-project/internal/domain/analysis"
	"github.com/chiragkoyande/audit-project/internal/domain/auditlog"
	"github.com/chiragkoyande/audit-project/internal/domain/compliance"
	"github.com/chiragkoyande/audit-project/internal/domain/notification"
	"github.com/chiragkoyande/audit-project/internal/domain/report"
	"github.com/chiragkoyande/audit-project/internal/domain/shared"
	"github.com/chiragkoyande/audit-project/internal/domain/syslog"
	"github.com/chiragkoyande/audit-project/internal/domain/user"
	"github.com/chiragkoyande/audit-project/pkg/response"
)

// invalidArgumentErrors are domain validation failures reported as 400.
var invalidArgumentErrors = []error{
	shared.ErrInvalidInput,
	shared.ErrEmptyID,
	user.ErrInvalidEmail,
	user.ErrEmailTooLong,
	user.ErrEmptyFullName,
	user.ErrFullNameTooLong,
	user.ErrInvalidRole,
	auditlog.ErrEmptyAction,
	auditlog.ErrActionTooLong,
	auditlog.ErrEmptyResourceType,
	auditlog.ErrResourceTypeTooLong,
	auditlog.ErrResourceIDTooLong,
	auditlog.ErrInvalidIPAddress,
	auditlog.ErrInvalidStatus,
	auditlog.ErrChangesNotSerialized,
	syslog.ErrInvalidLevel,
	syslog.ErrEmptyModule,
	syslog.ErrModuleTooLong,
	syslog.ErrEmptyMessage,
	syslog.ErrRequestIDTooLong,
	syslog.ErrInvalidRetention,
	report.ErrEmptyTitle,
	report.ErrTitleTooLong,
	report.ErrEmptyOwner,
	report.ErrInvalidStatus,
	compliance.ErrEmptyData,
	compliance.ErrUnsupportedFormat,
	compliance.ErrUnsupportedFramework,
	compliance.ErrNoFrameworks,
	notification.ErrNoRecipients,
	notification.ErrEmptySubject,
	notification.ErrEmptyContent,
	notification.ErrUnsupportedChannel,
	notification.ErrInvalidType,
	notification.ErrInvalidPriority,
	analysis.ErrEmptyDocument,
	analysis.ErrEmptyData,
}

// ErrorMapper maps domain errors to gRPC status codes.
func ErrorMapper(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(errorCode(err), err.Error())
}

func errorCode(err error) codes.Code {
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, shared.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, shared.ErrAlreadyExists):
		return codes.AlreadyExists
	case errors.Is(err, shared.ErrConflict), errors.Is(err, report.ErrInvalidTransition):
		return codes.Aborted
	case errors.Is(err, report.ErrArchived),
		errors.Is(err, analysis.ErrAIDisabled),
		errors.Is(err, notification.ErrChannelDisabled):
		return codes.FailedPrecondition
	case errors.Is(err, shared.ErrUnauthorized),
		errors.Is(err, shared.ErrInvalidCredentials),
		errors.Is(err, shared.ErrInvalidToken),
		errors.Is(err, shared.ErrTokenExpired):
		return codes.Unauthenticated
	case errors.Is(err, shared.ErrPermissionDenied):
		return codes.PermissionDenied
	case errors.Is(err, shared.ErrUnavailable), errors.Is(err, appnotification.ErrQueueUnavailable):
		return codes.Unavailable
	}
	for _, target := range invalidArgumentErrors {
		if errors.Is(err, target) {
			return codes.InvalidArgument
		}
	}
	return codes.Internal
}

// grpcCodeToHTTP maps gRPC status codes to HTTP status codes.
func grpcCodeToHTTP(code codes.Code) int {
	switch code {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Canceled:
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse converts err into an HTTP status and a BaseResponse body.
func errorResponse(err error) (int, response.BaseResponse) {
	st := status.Convert(ErrorMapper(err))
	httpStatus := grpcCodeToHTTP(st.Code())

	message := st.Message()
	if httpStatus >= http.StatusInternalServerError && st.Code() != codes.Unavailable {
		message = "internal server error"
	}

	base := response.Error(strconv.Itoa(httpStatus), message)
	base.ValidationErrors = validationDetails(err)
	if len(base.ValidationErrors) > 0 {
		base.Message = "Validation failed"
	}
	return httpStatus, base
}

func validationDetails(err error) []response.ValidationError {
	var list shared.ValidationErrors
	if errors.As(err, &list) {
		out := make([]response.ValidationError, 0, len(list))
		for _, v := range list {
			out = append(out, response.ValidationError{Field: v.Field, Message: v.Message})
		}
		return out
	}
	var single *shared.ValidationError
	if errors.As(err, &single) {
		return []response.ValidationError{{Field: single.Field, Message: single.Message}}
	}
	return nil
}

// writeError writes err as a BaseResponse with the mapped HTTP status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	httpStatus, base := errorResponse(err)
	if httpStatus >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", shared.RequestID(r.Context())).
			Msg("Request failed")
	}
	writeJSON(w, httpStatus, response.Envelope{Base: base})
}

// baseResponseErrorHandler renders gateway routing errors in the BaseResponse format.
func baseResponseErrorHandler(_ context.Context, _ *runtime.ServeMux, _ runtime.Marshaler, w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, err)
}

func writeJSON(w http.ResponseWriter, httpStatus int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}
