//go:build cgo

/*Package mvs binds the Hikvision MvCamCtrl SDK ("MVS") to the camera.Driver
interface.

The binding is a thin call-through layer; it owns no policy.  Each method
makes exactly one SDK call and translates the vendor status code into a
typed error.  Connection management, retry, and the acquisition loop live in
package session.

The SDK ships with the vendor's MVS distribution and is expected under
/opt/MVS.  Hosts without it get a typed error from New rather than a load
failure at first use.  The Mock type in this package implements the same
interface with no hardware for bench use.
*/
package mvs

/*
#cgo CFLAGS: -I/opt/MVS/include
#cgo LDFLAGS: -L/opt/MVS/lib/64
#cgo LDFLAGS: -Wl,-rpath=/opt/MVS/lib/64
#cgo LDFLAGS: -lMvCameraControl
#include <stdlib.h>
#include <string.h>
#include "MvCameraControl.h"
*/
import "C"

import (
	"fmt"
	"os"
	"time"
	"unsafe"

	"github.com/satishgsonwane/weldcam/camera"
)

// sdkLibPath is where the vendor installer places the shared library.
const sdkLibPath = "/opt/MVS/lib/64/libMvCameraControl.so"

// SDK is the real MvCamCtrl binding.  It is stateless apart from the open
// handles it hands out; one SDK value can serve any number of cameras.
type SDK struct{}

var _ camera.Driver = &SDK{}
var _ camera.FeatureFiler = &SDK{}

// New returns the binding, or a typed SdkUnavailable error when the vendor
// library is not installed on this host.
func New() (*SDK, error) {
	if _, err := os.Stat(sdkLibPath); err != nil {
		return nil, camera.Errf(camera.KindSdkUnavailable, "mvs.New",
			"MvCamCtrl SDK not found at %s", sdkLibPath)
	}
	return &SDK{}, nil
}

// Version returns the SDK version as the vendor formats it.
func (s *SDK) Version() string {
	v := uint32(C.MV_CC_GetSDKVersion())
	return fmt.Sprintf("0x%08x", v)
}

// handle wraps the SDK's void* camera handle.
type handle struct {
	ptr unsafe.Pointer
	id  string
}

func (h *handle) ID() string { return h.id }

// asHandle unwraps a camera.Handle produced by this driver.
func asHandle(op string, h camera.Handle) (*handle, error) {
	hh, ok := h.(*handle)
	if !ok || hh.ptr == nil {
		return nil, camera.Errf(camera.KindInvalidState, op, "handle is not open")
	}
	return hh, nil
}

// Enumerate lists GigE and USB3 cameras the SDK can see.
func (s *SDK) Enumerate() ([]camera.Descriptor, error) {
	var list C.MV_CC_DEVICE_INFO_LIST
	ret := C.MV_CC_EnumDevices(C.MV_GIGE_DEVICE|C.MV_USB_DEVICE,
		(*C.MV_CC_DEVICE_INFO_LIST)(unsafe.Pointer(&list)))
	if err := Error("mvs.Enumerate", Status(ret)); err != nil {
		return nil, err
	}

	out := make([]camera.Descriptor, 0, int(list.nDeviceNum))
	for i := 0; i < int(list.nDeviceNum); i++ {
		info := list.pDeviceInfo[i]
		d := camera.Descriptor{Index: i}
		switch info.nTLayerType {
		case C.MV_GIGE_DEVICE:
			gige := (*C.MV_GIGE_DEVICE_INFO)(unsafe.Pointer(&info.SpecialInfo))
			d.Name = C.GoString((*C.char)(unsafe.Pointer(&gige.chModelName)))
			d.Serial = C.GoString((*C.char)(unsafe.Pointer(&gige.chSerialNumber)))
			d.Transport = camera.TransportGigE
		case C.MV_USB_DEVICE:
			usb := (*C.MV_USB3_DEVICE_INFO)(unsafe.Pointer(&info.SpecialInfo))
			d.Name = C.GoString((*C.char)(unsafe.Pointer(&usb.chModelName)))
			d.Serial = C.GoString((*C.char)(unsafe.Pointer(&usb.chSerialNumber)))
			d.Transport = camera.TransportUSB
		default:
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// Open creates a handle for the camera at the given enumeration index and
// opens the device with exclusive access.
func (s *SDK) Open(index int) (camera.Handle, error) {
	var list C.MV_CC_DEVICE_INFO_LIST
	ret := C.MV_CC_EnumDevices(C.MV_GIGE_DEVICE|C.MV_USB_DEVICE,
		(*C.MV_CC_DEVICE_INFO_LIST)(unsafe.Pointer(&list)))
	if err := Error("mvs.Open", Status(ret)); err != nil {
		return nil, err
	}
	if index < 0 || index >= int(list.nDeviceNum) {
		return nil, camera.Errf(camera.KindNotFound, "mvs.Open",
			"device index %d out of range, %d cameras visible", index, int(list.nDeviceNum))
	}

	h := &handle{id: fmt.Sprintf("mvs-%d", index)}
	ret = C.MV_CC_CreateHandle(&h.ptr, list.pDeviceInfo[index])
	if err := Error("mvs.Open", Status(ret)); err != nil {
		return nil, err
	}

	ret = C.MV_CC_OpenDevice(h.ptr, C.uint(C.MV_ACCESS_Exclusive), C.ushort(0))
	if err := Error("mvs.Open", Status(ret)); err != nil {
		C.MV_CC_DestroyHandle(h.ptr)
		return nil, err
	}
	return h, nil
}

// Close closes the device and destroys the handle.  The handle is dead on
// return regardless of error.
func (s *SDK) Close(ch camera.Handle) error {
	h, err := asHandle("mvs.Close", ch)
	if err != nil {
		return err
	}
	ret := C.MV_CC_CloseDevice(h.ptr)
	dret := C.MV_CC_DestroyHandle(h.ptr)
	h.ptr = nil
	if err := Error("mvs.Close", Status(ret)); err != nil {
		return err
	}
	return Error("mvs.Close", Status(dret))
}

// StartGrabbing begins streaming into the SDK's ring buffer.
func (s *SDK) StartGrabbing(ch camera.Handle) error {
	h, err := asHandle("mvs.StartGrabbing", ch)
	if err != nil {
		return err
	}
	return Error("mvs.StartGrabbing", Status(C.MV_CC_StartGrabbing(h.ptr)))
}

// StopGrabbing halts streaming.
func (s *SDK) StopGrabbing(ch camera.Handle) error {
	h, err := asHandle("mvs.StopGrabbing", ch)
	if err != nil {
		return err
	}
	return Error("mvs.StopGrabbing", Status(C.MV_CC_StopGrabbing(h.ptr)))
}

// GrabFrame pulls one frame from the ring buffer, waiting at most timeout.
// The pixel data is copied out of the C buffer so the frame owns its memory.
func (s *SDK) GrabFrame(ch camera.Handle, timeout time.Duration) (*camera.Frame, error) {
	h, err := asHandle("mvs.GrabFrame", ch)
	if err != nil {
		return nil, err
	}

	var payload C.MVCC_INTVALUE
	cname := C.CString(camera.FeatPayloadSize)
	ret := C.MV_CC_GetIntValue(h.ptr, cname, &payload)
	C.free(unsafe.Pointer(cname))
	if err := Error("mvs.GrabFrame", Status(ret)); err != nil {
		return nil, err
	}

	bufSize := int(payload.nCurValue)
	buf := (*C.uchar)(C.malloc(C.size_t(bufSize)))
	defer C.free(unsafe.Pointer(buf))

	var info C.MV_FRAME_OUT_INFO_EX
	ret = C.MV_CC_GetOneFrameTimeout(h.ptr, buf, C.uint(bufSize),
		(*C.MV_FRAME_OUT_INFO_EX)(unsafe.Pointer(&info)),
		C.uint(timeout.Milliseconds()))
	if err := Error("mvs.GrabFrame", Status(ret)); err != nil {
		return nil, err
	}

	return &camera.Frame{
		Data:      C.GoBytes(unsafe.Pointer(buf), C.int(info.nFrameLen)),
		Width:     int(info.nWidth),
		Height:    int(info.nHeight),
		Format:    camera.PixelFormat(info.enPixelType),
		Timestamp: time.Now(),
		Seq:       uint64(info.nFrameNum),
	}, nil
}

// SoftwareTrigger commands one exposure when TriggerSource is Software.
func (s *SDK) SoftwareTrigger(ch camera.Handle) error {
	h, err := asHandle("mvs.SoftwareTrigger", ch)
	if err != nil {
		return err
	}
	cname := C.CString(camera.FeatTriggerSw)
	defer C.free(unsafe.Pointer(cname))
	return Error("mvs.SoftwareTrigger", Status(C.MV_CC_SetCommandValue(h.ptr, cname)))
}

// SetFloat sets a float feature by its GenICam name.
func (s *SDK) SetFloat(ch camera.Handle, feature string, value float64) error {
	h, err := asHandle("mvs.SetFloat", ch)
	if err != nil {
		return err
	}
	cname := C.CString(feature)
	defer C.free(unsafe.Pointer(cname))
	return Error("mvs.SetFloat", Status(C.MV_CC_SetFloatValue(h.ptr, cname, C.float(value))))
}

// GetFloat reads a float feature.
func (s *SDK) GetFloat(ch camera.Handle, feature string) (float64, error) {
	h, err := asHandle("mvs.GetFloat", ch)
	if err != nil {
		return 0, err
	}
	cname := C.CString(feature)
	defer C.free(unsafe.Pointer(cname))
	var out C.MVCC_FLOATVALUE
	ret := C.MV_CC_GetFloatValue(h.ptr, cname, &out)
	return float64(out.fCurValue), Error("mvs.GetFloat", Status(ret))
}

// SetInt sets an integer feature.
func (s *SDK) SetInt(ch camera.Handle, feature string, value int64) error {
	h, err := asHandle("mvs.SetInt", ch)
	if err != nil {
		return err
	}
	cname := C.CString(feature)
	defer C.free(unsafe.Pointer(cname))
	return Error("mvs.SetInt", Status(C.MV_CC_SetIntValue(h.ptr, cname, C.uint(value))))
}

// GetInt reads an integer feature.
func (s *SDK) GetInt(ch camera.Handle, feature string) (int64, error) {
	h, err := asHandle("mvs.GetInt", ch)
	if err != nil {
		return 0, err
	}
	cname := C.CString(feature)
	defer C.free(unsafe.Pointer(cname))
	var out C.MVCC_INTVALUE
	ret := C.MV_CC_GetIntValue(h.ptr, cname, &out)
	return int64(out.nCurValue), Error("mvs.GetInt", Status(ret))
}

// SetEnum sets an enumerated feature by entry value.
func (s *SDK) SetEnum(ch camera.Handle, feature string, value uint32) error {
	h, err := asHandle("mvs.SetEnum", ch)
	if err != nil {
		return err
	}
	cname := C.CString(feature)
	defer C.free(unsafe.Pointer(cname))
	return Error("mvs.SetEnum", Status(C.MV_CC_SetEnumValue(h.ptr, cname, C.uint(value))))
}

// GetEnum reads an enumerated feature's current entry value.
func (s *SDK) GetEnum(ch camera.Handle, feature string) (uint32, error) {
	h, err := asHandle("mvs.GetEnum", ch)
	if err != nil {
		return 0, err
	}
	cname := C.CString(feature)
	defer C.free(unsafe.Pointer(cname))
	var out C.MVCC_ENUMVALUE
	ret := C.MV_CC_GetEnumValue(h.ptr, cname, &out)
	return uint32(out.nCurValue), Error("mvs.GetEnum", Status(ret))
}

// SetBool sets a boolean feature.
func (s *SDK) SetBool(ch camera.Handle, feature string, value bool) error {
	h, err := asHandle("mvs.SetBool", ch)
	if err != nil {
		return err
	}
	cname := C.CString(feature)
	defer C.free(unsafe.Pointer(cname))
	return Error("mvs.SetBool", Status(C.MV_CC_SetBoolValue(h.ptr, cname, C.bool(value))))
}

// GetBool reads a boolean feature.
func (s *SDK) GetBool(ch camera.Handle, feature string) (bool, error) {
	h, err := asHandle("mvs.GetBool", ch)
	if err != nil {
		return false, err
	}
	cname := C.CString(feature)
	defer C.free(unsafe.Pointer(cname))
	var out C.bool
	ret := C.MV_CC_GetBoolValue(h.ptr, cname, &out)
	return bool(out), Error("mvs.GetBool", Status(ret))
}

// FeatureSave persists the camera's feature values to an ini file.
func (s *SDK) FeatureSave(ch camera.Handle, path string) error {
	h, err := asHandle("mvs.FeatureSave", ch)
	if err != nil {
		return err
	}
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	return Error("mvs.FeatureSave", Status(C.MV_CC_FeatureSave(h.ptr, cpath)))
}

// FeatureLoad applies feature values previously written by FeatureSave.
func (s *SDK) FeatureLoad(ch camera.Handle, path string) error {
	h, err := asHandle("mvs.FeatureLoad", ch)
	if err != nil {
		return err
	}
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	return Error("mvs.FeatureLoad", Status(C.MV_CC_FeatureLoad(h.ptr, cpath)))
}
