package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration errors
const (
	// ErrCodeInvalidInput indicates an invalid run argument or option.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required argument is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Run lifecycle errors
const (
	// ErrCodeCancelled indicates the shared cancellation signal fired.
	ErrCodeCancelled ErrorCode = "CANCELLED"
	// ErrCodeTimeout indicates an operation gave up after its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeFeedClosed indicates an insert into a feed closed for writing.
	ErrCodeFeedClosed ErrorCode = "FEED_CLOSED"
	// ErrCodeParticipantFailed indicates a producer or consumer body failed.
	ErrCodeParticipantFailed ErrorCode = "PARTICIPANT_FAILED"
	// ErrCodeDisposalFailed indicates releasing a participant or feed failed.
	ErrCodeDisposalFailed ErrorCode = "DISPOSAL_FAILED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:           true,
	ErrCodeParticipantFailed: false,
	ErrCodeCancelled:         false,
	ErrCodeInternal:          false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
