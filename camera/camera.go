/*Package camera describes a standard set of interfaces and types for control
of industrial cameras through a vendor driver.

The Driver type contains the operations a vendor SDK binding must supply.
Session logic (state machine, acquisition loop) lives a layer above, in
package session, and speaks only to this interface.

*/
package camera

import "time"

// Transport is the physical link a camera is reachable over.
type Transport string

const (
	// TransportUSB is a USB3 Vision device
	TransportUSB Transport = "USB"

	// TransportGigE is a GigE Vision device
	TransportGigE Transport = "GigE"
)

// Descriptor is an enumeration result for a single camera.  Descriptors are
// immutable snapshots; a refresh replaces the whole list.
type Descriptor struct {
	// Index is the SDK's device index at enumeration time
	Index int `json:"index"`

	// Name is the human readable model name, e.g. MV-CE013-50G
	Name string `json:"name"`

	// Serial is the device serial number
	Serial string `json:"serial"`

	// Transport is how the device is attached
	Transport Transport `json:"transport"`
}

// Handle is an opaque reference to an open camera.  It is produced by
// Driver.Open and must not be used after Driver.Close returns.
type Handle interface {
	// ID returns a stable identifier for logging.  It carries no meaning
	// to the driver.
	ID() string
}

// Driver is the call-through surface of a vendor camera SDK.  Every method
// is a single attempt; no retries happen at this layer.  Errors returned
// are of type *Error with the vendor code preserved.
type Driver interface {
	// Enumerate lists the cameras the SDK can currently see
	Enumerate() ([]Descriptor, error)

	// Open connects to the camera at the given enumeration index and
	// returns a handle to it.  Fails with NotFound if the descriptor is
	// stale, or DeviceBusy if another process holds the camera.
	Open(index int) (Handle, error)

	// Close releases the handle.  The handle is invalid afterwards even
	// if an error is returned.
	Close(h Handle) error

	// StartGrabbing begins streaming frames into the SDK's internal buffer
	StartGrabbing(h Handle) error

	// StopGrabbing halts streaming
	StopGrabbing(h Handle) error

	// GrabFrame pulls one frame from the SDK buffer, waiting at most
	// timeout.  A quiet camera yields a Timeout error, which callers
	// should treat as an expected outcome rather than a fault.
	GrabFrame(h Handle, timeout time.Duration) (*Frame, error)

	// SoftwareTrigger commands the camera to expose one frame when the
	// trigger source is set to software
	SoftwareTrigger(h Handle) error

	// SetFloat sets a float feature, e.g. ExposureTime
	SetFloat(h Handle, feature string, value float64) error

	// GetFloat reads a float feature
	GetFloat(h Handle, feature string) (float64, error)

	// SetInt sets an integer feature, e.g. Width
	SetInt(h Handle, feature string, value int64) error

	// GetInt reads an integer feature
	GetInt(h Handle, feature string) (int64, error)

	// SetEnum sets an enumerated feature by entry value
	SetEnum(h Handle, feature string, value uint32) error

	// GetEnum reads an enumerated feature's current entry value
	GetEnum(h Handle, feature string) (uint32, error)

	// SetBool sets a boolean feature
	SetBool(h Handle, feature string, value bool) error

	// GetBool reads a boolean feature
	GetBool(h Handle, feature string) (bool, error)
}

// FeatureFiler is implemented by drivers which can persist the camera's
// feature set to an .ini file and restore it later.
type FeatureFiler interface {
	// FeatureSave writes the camera's current feature values to path
	FeatureSave(h Handle, path string) error

	// FeatureLoad applies feature values previously written by FeatureSave
	FeatureLoad(h Handle, path string) error
}
