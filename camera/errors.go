package camera

import (
	"errors"
	"fmt"
)

// Kind classifies camera errors into the categories callers branch on.
type Kind int

const (
	// KindUnknown is an error we could not classify
	KindUnknown Kind = iota

	// KindNotFound means no such camera (stale descriptor or unplugged device)
	KindNotFound

	// KindAlreadyConnected means a connect was attempted while a handle is held
	KindAlreadyConnected

	// KindInvalidState means the operation is not valid for the current
	// session state, or a manual parameter is locked by its auto mode
	KindInvalidState

	// KindInvalidParameter means a value is outside its permitted range
	KindInvalidParameter

	// KindTimeout is a transient no-data outcome.  Non-fatal during
	// acquisition; fatal when it occurs during connect.
	KindTimeout

	// KindDeviceBusy means the camera is held by another process
	KindDeviceBusy

	// KindDeviceError is a fault that ends the current acquisition
	KindDeviceError

	// KindSdkUnavailable means the vendor library could not be loaded
	KindSdkUnavailable
)

var kindNames = map[Kind]string{
	KindUnknown:          "Unknown",
	KindNotFound:         "NotFound",
	KindAlreadyConnected: "AlreadyConnected",
	KindInvalidState:     "InvalidState",
	KindInvalidParameter: "InvalidParameter",
	KindTimeout:          "Timeout",
	KindDeviceBusy:       "DeviceBusy",
	KindDeviceError:      "DeviceError",
	KindSdkUnavailable:   "SdkUnavailable",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a classified camera error.  Code carries the raw vendor status
// when the error originated in the SDK, zero otherwise.
type Error struct {
	// Kind is the classification
	Kind Kind

	// Op is the logical operation that failed, e.g. "connect"
	Op string

	// Code is the vendor status code, if any
	Code uint32

	// Msg is a human readable elaboration
	Msg string
}

// Error satisfies the error interface
func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %s (vendor code 0x%08x) %s", e.Op, e.Kind, e.Code, e.Msg)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// Is lets errors.Is match on the Kind, so callers can compare against
// a bare &Error{Kind: K}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Errf builds an *Error with a formatted message.
func Errf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a camera error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, or KindUnknown if err is not a
// camera error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}
