package types

import "errors"

// ErrUnsupported is wrapped by backends for operations their protocol cannot perform.
var ErrUnsupported = errors.New("operation not supported by backend")

// CommandError wraps a failed lifecycle command with human-readable context.
// It is what the dashboard surfaces to the operator as a blocking notification.
type CommandError struct {
	// Code is the normalized error code (e.g., "REBOOT_FAILED", "BUSY")
	Code string `json:"code"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// Action is the suggested remediation action
	Action string `json:"action,omitempty"`

	// OnuID is the slot the command targeted
	OnuID int `json:"onu_id,omitempty"`

	// Raw is the raw backend output or status, if any
	Raw string `json:"raw,omitempty"`

	// Err is the underlying cause
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	msg := e.Code + ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Action != "" {
		msg += " (Suggestion: " + e.Action + ")"
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Command error codes
const (
	ErrCodeRegisterFailed = "REGISTER_FAILED"
	ErrCodeRebootFailed   = "REBOOT_FAILED"
	ErrCodeRemoveFailed   = "REMOVE_FAILED"
	ErrCodeBusy           = "BUSY"
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeTransport      = "TRANSPORT"
	ErrCodeUnsupported    = "UNSUPPORTED"
)

// AsCommandError extracts a *CommandError from err.
func AsCommandError(err error) (*CommandError, bool) {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr, true
	}
	return nil, false
}
