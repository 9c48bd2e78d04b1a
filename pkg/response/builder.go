// Package response provides utilities for building API responses.
package response

// BaseResponse status codes.
const (
	StatusSuccess         = "200"
	StatusCreated         = "201"
	StatusAccepted        = "202"
	StatusBadRequest      = "400"
	StatusUnauthorized    = "401"
	StatusForbidden       = "403"
	StatusNotFound        = "404"
	StatusConflict        = "409"
	StatusTooManyRequests = "429"
	StatusInternalError   = "500"
	StatusServiceUnavail  = "503"
)

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Pagination describes a page of a list result.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
}

// NewPagination computes total pages for the given page parameters.
func NewPagination(page, pageSize int, total int64) *Pagination {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &Pagination{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalItems:  total,
		TotalPages:  totalPages,
	}
}

// BaseResponse is the standard response format.
type BaseResponse struct {
	ValidationErrors []ValidationError `json:"validation_errors,omitempty"`
	StatusCode       string            `json:"status_code"`
	IsSuccess        bool              `json:"is_success"`
	Message          string            `json:"message"`
}

// Envelope is the body of every API response: a BaseResponse plus an optional payload.
type Envelope struct {
	Base       BaseResponse `json:"base"`
	Data       interface{}  `json:"data,omitempty"`
	Pagination *Pagination  `json:"pagination,omitempty"`
}

// WithData wraps a base response and payload into an Envelope.
func WithData(base BaseResponse, data interface{}) Envelope {
	return Envelope{Base: base, Data: data}
}

// WithPage wraps a base response, a list payload and its pagination.
func WithPage(base BaseResponse, data interface{}, page *Pagination) Envelope {
	return Envelope{Base: base, Data: data, Pagination: page}
}

// Success creates a successful response.
func Success(message string) BaseResponse {
	return BaseResponse{
		StatusCode: StatusSuccess,
		IsSuccess:  true,
		Message:    message,
	}
}

// Created creates a successful creation response.
func Created(message string) BaseResponse {
	return BaseResponse{
		StatusCode: StatusCreated,
		IsSuccess:  true,
		Message:    message,
	}
}

// Accepted creates a response for work queued for later processing.
func Accepted(message string) BaseResponse {
	return BaseResponse{
		StatusCode: StatusAccepted,
		IsSuccess:  true,
		Message:    message,
	}
}

// Error creates a failed response with an explicit status code.
func Error(statusCode, message string) BaseResponse {
	return BaseResponse{
		StatusCode: statusCode,
		IsSuccess:  false,
		Message:    message,
	}
}

// BadRequest creates a bad request response.
func BadRequest(message string) BaseResponse {
	return Error(StatusBadRequest, message)
}

// Unauthorized creates an unauthorized response.
func Unauthorized(message string) BaseResponse {
	return Error(StatusUnauthorized, message)
}

// NotFound creates a not found response.
func NotFound(message string) BaseResponse {
	return Error(StatusNotFound, message)
}

// Conflict creates a conflict response.
func Conflict(message string) BaseResponse {
	return Error(StatusConflict, message)
}

// InternalError creates an internal server error response.
func InternalError(message string) BaseResponse {
	return Error(StatusInternalError, message)
}

// ValidationFailed creates a validation error response.
func ValidationFailed(errors []ValidationError) BaseResponse {
	return BaseResponse{
		ValidationErrors: errors,
		StatusCode:       StatusBadRequest,
		IsSuccess:        false,
		Message:          "Validation failed",
	}
}
