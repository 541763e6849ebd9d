package mvs

import (
	"errors"
	"testing"

	"github.com/satishgsonwane/weldcam/camera"
)

func TestErrorNilOnOK(t *testing.T) {
	if err := Error("op", OK); err != nil {
		t.Errorf("MV_OK should yield nil, got %v", err)
	}
}

func TestStatusKinds(t *testing.T) {
	cases := []struct {
		s    Status
		kind camera.Kind
	}{
		{ErrNoData, camera.KindTimeout},
		{ErrGCTimeout, camera.KindTimeout},
		{ErrParameter, camera.KindInvalidParameter},
		{ErrSupport, camera.KindInvalidParameter},
		{ErrCallOrder, camera.KindInvalidState},
		{ErrPrecondition, camera.KindInvalidState},
		{ErrAccessDenied, camera.KindDeviceBusy},
		{ErrBusy, camera.KindDeviceBusy},
		{ErrVersion, camera.KindSdkUnavailable},
		{ErrHandle, camera.KindDeviceError},
		{ErrBufOver, camera.KindDeviceError},
		{Status(0x80001234), camera.KindDeviceError}, // unknown code
	}
	for _, tc := range cases {
		if got := tc.s.Kind(); got != tc.kind {
			t.Errorf("%s: kind = %v, want %v", tc.s.Name(), got, tc.kind)
		}
	}
}

func TestErrorCarriesVendorCode(t *testing.T) {
	err := Error("mvs.GrabFrame", ErrNoData)
	var ce *camera.Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *camera.Error, got %T", err)
	}
	if ce.Code != uint32(ErrNoData) {
		t.Errorf("code = 0x%08X, want 0x%08X", ce.Code, uint32(ErrNoData))
	}
	if ce.Op != "mvs.GrabFrame" {
		t.Errorf("op = %q", ce.Op)
	}
	if !camera.IsKind(err, camera.KindTimeout) {
		t.Error("MV_E_NODATA should match KindTimeout")
	}
}

func TestStatusName(t *testing.T) {
	if ErrNoData.Name() != "MV_E_NODATA" {
		t.Errorf("got %q", ErrNoData.Name())
	}
	if Status(0xDEADBEEF).Name() != "0xDEADBEEF" {
		t.Errorf("got %q", Status(0xDEADBEEF).Name())
	}
}
