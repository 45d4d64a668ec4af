package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownMode is returned for a mode name outside prime|factorial|both.
	ErrUnknownMode = errors.New("unknown mode")
	// ErrIndexOutOfRange is returned when a history row does not exist.
	ErrIndexOutOfRange = errors.New("history index out of range")
	// ErrStaleEntry is returned when an update targets a record that is no
	// longer in the history, typically because it was cleared meanwhile.
	ErrStaleEntry = errors.New("history entry no longer exists")
	// ErrCorruptHistory is returned by strict hydration when the persisted
	// value cannot be decoded.
	ErrCorruptHistory = errors.New("persisted history is corrupt")
	// ErrTransport wraps network-level failures talking to the math service.
	ErrTransport = errors.New("math service unreachable")
	// ErrMalformedResponse wraps bodies that are not the expected JSON.
	ErrMalformedResponse = errors.New("malformed math service response")
)

// ValidationError is a client-side input rejection with a user-facing reason.
type ValidationError struct {
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validation messages, shown verbatim next to the input.
const (
	MsgInvalidNumber  = "Please enter a valid number."
	MsgNotWholeNumber = "Please enter a whole number."
	MsgNegativeNumber = "Number must be zero or positive."
	MsgUnknownError   = "Unknown error occurred"
)

// ErrorResponse is the decoded error payload of the math service.
// Message holds the already-flattened text of the "message" field.
type ErrorResponse struct {
	Timestamp     time.Time
	StatusCode    int
	StatusMessage string
	Message       string
}

// ServiceError is a request the math service rejected with a non-success status.
type ServiceError struct {
	Response ErrorResponse
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("Error %d - %s:\n%s", e.Response.StatusCode, e.Response.StatusMessage, e.Response.Message)
}
