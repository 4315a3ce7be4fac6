package projector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/muurk/projctl/internal/protocol"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeVerification indicates the liveness probe did not succeed
	ErrTypeVerification ErrorType = iota
	// ErrTypeWrite indicates the command frame could not be written
	ErrTypeWrite
	// ErrTypeRead indicates the transport failed while reading the reply
	ErrTypeRead
	// ErrTypeTimeout indicates no complete reply arrived before the deadline
	ErrTypeTimeout
	// ErrTypeMalformed indicates a reply that matches no known shape
	ErrTypeMalformed
	// ErrTypeInvalidCommand indicates a command outside the supported set
	ErrTypeInvalidCommand
	// ErrTypeInvalidArgument indicates an unknown model or source name
	ErrTypeInvalidArgument
	// ErrTypeSessionFailed indicates a command on a session that already failed
	ErrTypeSessionFailed
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeVerification:
		return "Verification Error"
	case ErrTypeWrite:
		return "Write Error"
	case ErrTypeRead:
		return "Read Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeMalformed:
		return "Malformed Response"
	case ErrTypeInvalidCommand:
		return "Invalid Command"
	case ErrTypeInvalidArgument:
		return "Invalid Argument"
	case ErrTypeSessionFailed:
		return "Session Failed"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error represents an error that occurred during a projector session
type Error struct {
	Type    ErrorType        // Category of error
	Command protocol.Command // Command being executed (zero if none)
	Message string           // Human-readable error message
	Err     error            // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Command.Valid() {
		msg = e.Command.String() + ": " + msg
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(t ErrorType, cmd protocol.Command, message string, err error) *Error {
	return &Error{Type: t, Command: cmd, Message: message, Err: err}
}

// ErrorTypeOf returns the type of the outermost session error in err's chain.
func ErrorTypeOf(err error) (ErrorType, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Type, true
	}
	return 0, false
}

func hasType(err error, types ...ErrorType) bool {
	et, ok := ErrorTypeOf(err)
	if !ok {
		return false
	}
	for _, t := range types {
		if et == t {
			return true
		}
	}
	return false
}

// IsTimeoutError checks if an error is a reply timeout
func IsTimeoutError(err error) bool {
	return hasType(err, ErrTypeTimeout)
}

// IsTransportError checks if an error is a write or read fault
func IsTransportError(err error) bool {
	return hasType(err, ErrTypeWrite, ErrTypeRead)
}

// IsMalformedError checks if an error is an unparseable reply
func IsMalformedError(err error) bool {
	return hasType(err, ErrTypeMalformed)
}

// IsInvalidCommandError checks if an error is an unsupported command
func IsInvalidCommandError(err error) bool {
	return hasType(err, ErrTypeInvalidCommand)
}

// IsInvalidArgumentError checks if an error is an unknown model or source
func IsInvalidArgumentError(err error) bool {
	return hasType(err, ErrTypeInvalidArgument)
}

// IsVerificationError checks if an error came from the liveness probe
func IsVerificationError(err error) bool {
	return hasType(err, ErrTypeVerification)
}

// IsTerminal reports whether the session that returned err can no longer be
// used.
func IsTerminal(err error) bool {
	return hasType(err, ErrTypeWrite, ErrTypeRead, ErrTypeTimeout, ErrTypeMalformed, ErrTypeSessionFailed)
}

// TroubleshootingHint returns user-friendly troubleshooting advice for an error
func TroubleshootingHint(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "An unexpected error occurred. Please try again."
	}

	switch e.Type {
	case ErrTypeVerification:
		var inner *Error
		if errors.As(e.Err, &inner) {
			return "The projector did not answer the power query.\n" + TroubleshootingHint(inner)
		}
		return strings.Join([]string{
			"The projector did not answer the power query.",
			"Troubleshooting:",
			"  • Check that the projector is plugged in and not still booting",
			"  • Confirm the RS232 control option is enabled in the projector menu",
		}, "\n")

	case ErrTypeTimeout:
		return strings.Join([]string{
			"The projector did not respond in time.",
			"Troubleshooting:",
			"  • Check the serial cable (a null-modem adapter may be required)",
			"  • Verify the projector baud rate is set to 9600",
			"  • Try increasing the timeout with --timeout",
		}, "\n")

	case ErrTypeWrite, ErrTypeRead:
		return strings.Join([]string{
			"Communication with the serial port failed.",
			"Troubleshooting:",
			"  • Check that the USB serial adapter is still connected",
			"  • Make sure no other program has the port open",
			"  • List available ports with: projctl ports",
		}, "\n")

	case ErrTypeMalformed:
		return strings.Join([]string{
			"The projector sent a reply that could not be understood.",
			"Troubleshooting:",
			"  • Verify the projector uses the P/F/OK reply format",
			"  • Check for line noise or a wrong baud rate",
		}, "\n")

	case ErrTypeInvalidArgument:
		return "Check the model and source names. List them with: projctl models, projctl source list"

	case ErrTypeInvalidCommand:
		return "The command is not supported. Valid commands: power-on, power-off, power-query, source-query, source-set"

	case ErrTypeSessionFailed:
		return "The session failed earlier and must be reopened. Reconnect and try again."

	default:
		return "An error occurred. Please check the error message for details."
	}
}
