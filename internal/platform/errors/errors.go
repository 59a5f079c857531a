package apperrors

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrNoActiveSession     = errors.New("no active capture session")
	ErrActiveSessionExists = errors.New("capture session already active")
	ErrClosed              = errors.New("capture is shut down")
)

// Capture failures surfaced to the user.
var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNoDevice         = errors.New("no capture device")
	ErrEncoderFailure   = errors.New("encoder failure")
)

const (
	MsgPermissionDenied = "Mic or Camera access denied."
	MsgNoDevice         = "No microphone or camera found."
	MsgEncoderFailure   = "Recording failed while encoding."
)

// Classify maps err onto the capture taxonomy. Errors outside it are
// reported as a permission failure.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNoDevice):
		return ErrNoDevice
	case errors.Is(err, ErrEncoderFailure):
		return ErrEncoderFailure
	default:
		return ErrPermissionDenied
	}
}

// Message returns the banner text for a capture failure.
func Message(err error) string {
	switch Classify(err) {
	case nil:
		return ""
	case ErrNoDevice:
		return MsgNoDevice
	case ErrEncoderFailure:
		return MsgEncoderFailure
	default:
		return MsgPermissionDenied
	}
}
