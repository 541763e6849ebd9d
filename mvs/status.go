package mvs

import (
	"fmt"

	"github.com/satishgsonwane/weldcam/camera"
)

// Status is a status code returned by the MvCamCtrl SDK.  MV_OK is zero;
// everything else is an error.
type Status uint32

const (
	// OK means the call succeeded
	OK Status = 0x00000000

	// ErrHandle invalid or unknown handle
	ErrHandle Status = 0x80000000

	// ErrSupport feature not supported by the device
	ErrSupport Status = 0x80000001

	// ErrBufOver the frame buffer overflowed
	ErrBufOver Status = 0x80000002

	// ErrCallOrder function called out of sequence
	ErrCallOrder Status = 0x80000003

	// ErrParameter a parameter was out of range or malformed
	ErrParameter Status = 0x80000004

	// ErrResource a system resource could not be allocated
	ErrResource Status = 0x80000006

	// ErrNoData no frame arrived before the timeout
	ErrNoData Status = 0x80000007

	// ErrPrecondition device state does not permit the operation
	ErrPrecondition Status = 0x80000008

	// ErrVersion the installed SDK does not support this call
	ErrVersion Status = 0x80000009

	// ErrNoEnoughBuf the supplied buffer is too small for the frame
	ErrNoEnoughBuf Status = 0x8000000A

	// ErrAbnormalImage the frame arrived corrupt or incomplete
	ErrAbnormalImage Status = 0x8000000B

	// ErrUnknown catch-all for undocumented failures
	ErrUnknown Status = 0x800000FF

	// ErrGCGeneric generic GenICam error
	ErrGCGeneric Status = 0x80000100

	// ErrGCAccess GenICam node access denied
	ErrGCAccess Status = 0x80000106

	// ErrGCTimeout GenICam operation timed out
	ErrGCTimeout Status = 0x8000010B

	// ErrNetErr network communication failed
	ErrNetErr Status = 0x80000200

	// ErrAccessDenied another client holds the device
	ErrAccessDenied Status = 0x80000203

	// ErrBusy the device is busy and cannot service the request
	ErrBusy Status = 0x80000204
)

// statusNames maps status codes to the names the vendor documentation uses.
var statusNames = map[Status]string{
	OK:               "MV_OK",
	ErrHandle:        "MV_E_HANDLE",
	ErrSupport:       "MV_E_SUPPORT",
	ErrBufOver:       "MV_E_BUFOVER",
	ErrCallOrder:     "MV_E_CALLORDER",
	ErrParameter:     "MV_E_PARAMETER",
	ErrResource:      "MV_E_RESOURCE",
	ErrNoData:        "MV_E_NODATA",
	ErrPrecondition:  "MV_E_PRECONDITION",
	ErrVersion:       "MV_E_VERSION",
	ErrNoEnoughBuf:   "MV_E_NOENOUGH_BUF",
	ErrAbnormalImage: "MV_E_ABNORMAL_IMAGE",
	ErrUnknown:       "MV_E_UNKNOW",
	ErrGCGeneric:     "MV_E_GC_GENERIC",
	ErrGCAccess:      "MV_E_GC_ACCESS",
	ErrGCTimeout:     "MV_E_GC_TIMEOUT",
	ErrNetErr:        "MV_E_NETER",
	ErrAccessDenied:  "MV_E_ACCESS_DENIED",
	ErrBusy:          "MV_E_BUSY",
}

// statusKinds maps status codes to the error kind they surface as.  Codes
// absent from this map surface as device errors.
var statusKinds = map[Status]camera.Kind{
	ErrSupport:      camera.KindInvalidParameter,
	ErrCallOrder:    camera.KindInvalidState,
	ErrParameter:    camera.KindInvalidParameter,
	ErrNoData:       camera.KindTimeout,
	ErrPrecondition: camera.KindInvalidState,
	ErrVersion:      camera.KindSdkUnavailable,
	ErrGCTimeout:    camera.KindTimeout,
	ErrAccessDenied: camera.KindDeviceBusy,
	ErrBusy:         camera.KindDeviceBusy,
}

// Name returns the vendor name for the status code, or a hex rendering for
// codes the table does not know.
func (s Status) Name() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("0x%08X", uint32(s))
}

// Kind returns the error kind a status code maps to.
func (s Status) Kind() camera.Kind {
	if k, ok := statusKinds[s]; ok {
		return k
	}
	return camera.KindDeviceError
}

// Error returns nil when the status is MV_OK, otherwise a typed error
// carrying the vendor code, its name and the operation that produced it.
func Error(op string, s Status) error {
	if s == OK {
		return nil
	}
	return &camera.Error{
		Kind: s.Kind(),
		Op:   op,
		Code: uint32(s),
		Msg:  s.Name(),
	}
}
