package xr

import (
	"errors"
	"fmt"
)

// Result is a runtime status code. Zero is success, positive values are
// qualified successes and negative values are errors.
type Result int32

const (
	Success            Result = 0
	TimeoutExpired     Result = 1
	SessionLossPending Result = 3
	EventUnavailable   Result = 4
	FrameDiscarded     Result = 9

	ErrorValidationFailure          Result = -1
	ErrorRuntimeFailure             Result = -2
	ErrorLimitReached               Result = -10
	ErrorHandleInvalid              Result = -12
	ErrorSessionRunning             Result = -14
	ErrorSessionNotRunning          Result = -16
	ErrorSessionLost                Result = -17
	ErrorSessionNotReady            Result = -28
	ErrorSessionNotStopping         Result = -29
	ErrorCallOrderInvalid           Result = -37
	ErrorSwapchainFormatUnsupported Result = -38
	ErrorLayerInvalid               Result = -39
)

var resultNames = map[Result]string{
	Success:            "SUCCESS",
	TimeoutExpired:     "TIMEOUT_EXPIRED",
	SessionLossPending: "SESSION_LOSS_PENDING",
	EventUnavailable:   "EVENT_UNAVAILABLE",
	FrameDiscarded:     "FRAME_DISCARDED",

	ErrorValidationFailure:          "ERROR_VALIDATION_FAILURE",
	ErrorRuntimeFailure:             "ERROR_RUNTIME_FAILURE",
	ErrorHandleInvalid:              "ERROR_HANDLE_INVALID",
	ErrorSessionRunning:             "ERROR_SESSION_RUNNING",
	ErrorSessionNotRunning:          "ERROR_SESSION_NOT_RUNNING",
	ErrorSessionLost:                "ERROR_SESSION_LOST",
	ErrorSessionNotReady:            "ERROR_SESSION_NOT_READY",
	ErrorSessionNotStopping:         "ERROR_SESSION_NOT_STOPPING",
	ErrorCallOrderInvalid:           "ERROR_CALL_ORDER_INVALID",
	ErrorSwapchainFormatUnsupported: "ERROR_SWAPCHAIN_FORMAT_UNSUPPORTED",
	ErrorLayerInvalid:               "ERROR_LAYER_INVALID",
	ErrorLimitReached:               "ERROR_LIMIT_REACHED",
}

// String returns the OpenXR-style name of the result code.
func (r Result) String() string {
	if s, ok := resultNames[r]; ok {
		return s
	}
	return fmt.Sprintf("RESULT(%d)", int32(r))
}

// Succeeded reports whether r is an unqualified or qualified success.
func (r Result) Succeeded() bool { return r >= 0 }

// Failed reports whether r is an error code.
func (r Result) Failed() bool { return r < 0 }

// ResultError wraps a failing Result together with the operation that
// produced it. Runtime implementations return *ResultError for every
// failure so callers can recover the underlying code with errors.As.
type ResultError struct {
	Op     string
	Result Result
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("xr: %s: %s", e.Op, e.Result)
}

// NewError creates a *ResultError for the given operation and code.
func NewError(op string, r Result) *ResultError {
	return &ResultError{Op: op, Result: r}
}

// ResultOf extracts the Result from an error chain. It returns Success
// for a nil error and ErrorRuntimeFailure for errors that do not carry
// a Result.
func ResultOf(err error) Result {
	if err == nil {
		return Success
	}
	var re *ResultError
	if errors.As(err, &re) {
		return re.Result
	}
	return ErrorRuntimeFailure
}

// IsResult reports whether err carries the given result code.
func IsResult(err error, r Result) bool {
	var re *ResultError
	return errors.As(err, &re) && re.Result == r
}
