package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Graph construction errors. Raised by Builder.Build before any network activity.
const (
	// ErrCodeDuplicateNodeID indicates a node id was added twice.
	ErrCodeDuplicateNodeID ErrorCode = "DUPLICATE_NODE_ID"
	// ErrCodeUnknownParent indicates a declared parent is not part of the graph.
	ErrCodeUnknownParent ErrorCode = "UNKNOWN_PARENT"
	// ErrCodeCyclicDependency indicates the parent edges form a cycle.
	ErrCodeCyclicDependency ErrorCode = "CYCLIC_DEPENDENCY"
	// ErrCodeDanglingReference indicates a reference names a node that is not a declared parent in the graph.
	ErrCodeDanglingReference ErrorCode = "DANGLING_REFERENCE"
	// ErrCodeInvalidInput indicates a malformed node specification or argument.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Transport errors (the single outbound call failed).
const (
	// ErrCodeTransport indicates the batch call itself failed; no result is available.
	ErrCodeTransport ErrorCode = "TRANSPORT_ERROR"
	// ErrCodeUnavailable indicates the batch endpoint refused work because it is saturated.
	ErrCodeUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Demultiplexing errors.
const (
	// ErrCodeMissingNodeResult indicates the aggregate response omitted a submitted node.
	ErrCodeMissingNodeResult ErrorCode = "MISSING_NODE_RESULT"
	// ErrCodeMalformedBatchBody indicates the aggregate response could not be parsed.
	ErrCodeMalformedBatchBody ErrorCode = "MALFORMED_BATCH_BODY"
)

// Resolution errors.
const (
	// ErrCodeParentNotYetExecuted indicates a reference was resolved before its parent produced a result.
	ErrCodeParentNotYetExecuted ErrorCode = "PARENT_NOT_YET_EXECUTED"
	// ErrCodeFieldPathNotFound indicates a reference path does not exist in the parent's result.
	ErrCodeFieldPathNotFound ErrorCode = "FIELD_PATH_NOT_FOUND"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeStorage indicates the result store failed.
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTransport:   true,
	ErrCodeUnavailable: true,
	ErrCodeStorage:     true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
