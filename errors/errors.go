// Package errors provides the structured error type shared by every gobatch
// package. Each failure carries a machine-readable code so callers can tell
// construction, transport, demultiplexing and resolution failures apart
// without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// AppError is the unified error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried by the caller.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the status an HTTP endpoint should answer with for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context such as offending node ids.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// HasCode reports whether err, or any error it wraps, is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// --- Construction errors ---

// DuplicateNodeID reports that id was already added to the builder.
func DuplicateNodeID(id string) *AppError {
	return &AppError{
		Code: ErrCodeDuplicateNodeID, Message: fmt.Sprintf("node %q already exists", id),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"node_id": id},
	}
}

// UnknownParent reports that node declares parent which is not part of the graph.
func UnknownParent(node, parent string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownParent, Message: fmt.Sprintf("node %q declares unknown parent %q", node, parent),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"node_id": node, "parent_id": parent},
	}
}

// CyclicDependency reports the set of nodes that could not be ordered.
func CyclicDependency(nodes []string) *AppError {
	sorted := append([]string(nil), nodes...)
	sort.Strings(sorted)
	return &AppError{
		Code: ErrCodeCyclicDependency, Message: fmt.Sprintf("dependency cycle among nodes [%s]", strings.Join(sorted, ", ")),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"node_ids": sorted},
	}
}

// DanglingReference reports a reference from node to an id that is absent or not a declared parent.
func DanglingReference(node, missing, reason string) *AppError {
	return &AppError{
		Code: ErrCodeDanglingReference, Message: fmt.Sprintf("node %q references %q: %s", node, missing, reason),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"node_id": node, "missing_id": missing},
	}
}

// InvalidInput creates an error for a malformed field.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Details: details,
	}
}

// Validation creates an error from a pre-formatted validation message.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// --- Transport errors ---

// Transport wraps a failure of the single outbound batch call.
func Transport(message string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTransport, Message: message,
		HTTPStatus: http.StatusBadGateway, Retryable: true, Cause: cause,
	}
}

// Unavailable reports that the batch endpoint is saturated.
func Unavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeUnavailable, Message: fmt.Sprintf("%s is busy, try again later", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// --- Demultiplexing errors ---

// MissingNodeResult reports the node ids absent from an aggregate response.
func MissingNodeResult(ids []string) *AppError {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return &AppError{
		Code: ErrCodeMissingNodeResult, Message: fmt.Sprintf("batch response has no result for nodes [%s]", strings.Join(sorted, ", ")),
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"node_ids": sorted},
	}
}

// MalformedBatchBody reports an aggregate response that could not be parsed.
func MalformedBatchBody(cause error) *AppError {
	return &AppError{
		Code: ErrCodeMalformedBatchBody, Message: "batch response body could not be parsed",
		HTTPStatus: http.StatusBadGateway, Cause: cause,
	}
}

// --- Resolution errors ---

// ParentNotYetExecuted reports a reference resolved before its parent produced a result.
func ParentNotYetExecuted(parent string) *AppError {
	return &AppError{
		Code: ErrCodeParentNotYetExecuted, Message: fmt.Sprintf("parent %q has no result yet", parent),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"parent_id": parent},
	}
}

// FieldPathNotFound reports that path does not resolve inside parent's result.
func FieldPathNotFound(parent, path string) *AppError {
	return &AppError{
		Code: ErrCodeFieldPathNotFound, Message: fmt.Sprintf("path %q not found in result of %q", path, parent),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"parent_id": parent, "path": path},
	}
}

// --- Internal errors ---

// Internal wraps an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}

// Storage wraps a result store failure.
func Storage(op string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStorage, Message: fmt.Sprintf("result store %s failed", op),
		HTTPStatus: http.StatusInternalServerError, Retryable: true, Cause: cause,
		Details: map[string]any{"operation": op},
	}
}

// ErrorResponse is the JSON body an HTTP endpoint returns for an AppError.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is the client-facing part of an AppError.
type ErrorBody struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

// ToResponse converts the error into its JSON response form.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: ErrorBody{
		Code:      e.Code,
		Message:   e.Message,
		Retryable: e.Retryable,
		Details:   e.Details,
	}}
}

// IsAppError checks if err is or wraps an AppError.
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// AsAppError returns the AppError inside err, if any.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
