//go:build !cgo

package mvs

import (
	"time"

	"github.com/satishgsonwane/weldcam/camera"
)

// SDK is the real MvCamCtrl binding.  Without cgo the vendor library
// cannot be linked, so New always fails with a typed SdkUnavailable
// error and no SDK value is ever handed out; the methods below exist
// only to satisfy camera.Driver and are unreachable.
type SDK struct{}

var _ camera.Driver = &SDK{}
var _ camera.FeatureFiler = &SDK{}

// New returns the binding, or a typed SdkUnavailable error when the vendor
// library is not installed on this host.
func New() (*SDK, error) {
	return nil, camera.Errf(camera.KindSdkUnavailable, "mvs.New",
		"MvCamCtrl SDK requires cgo; built with CGO_ENABLED=0")
}

func errUnavailable(op string) error {
	return camera.Errf(camera.KindSdkUnavailable, op,
		"MvCamCtrl SDK requires cgo; built with CGO_ENABLED=0")
}

// Version returns the SDK version as the vendor formats it.
func (s *SDK) Version() string { return "unavailable (built without cgo)" }

func (s *SDK) Enumerate() ([]camera.Descriptor, error) {
	return nil, errUnavailable("mvs.Enumerate")
}

func (s *SDK) Open(index int) (camera.Handle, error) {
	return nil, errUnavailable("mvs.Open")
}

func (s *SDK) Close(ch camera.Handle) error {
	return errUnavailable("mvs.Close")
}

func (s *SDK) StartGrabbing(ch camera.Handle) error {
	return errUnavailable("mvs.StartGrabbing")
}

func (s *SDK) StopGrabbing(ch camera.Handle) error {
	return errUnavailable("mvs.StopGrabbing")
}

func (s *SDK) GrabFrame(ch camera.Handle, timeout time.Duration) (*camera.Frame, error) {
	return nil, errUnavailable("mvs.GrabFrame")
}

func (s *SDK) SoftwareTrigger(ch camera.Handle) error {
	return errUnavailable("mvs.SoftwareTrigger")
}

func (s *SDK) SetFloat(ch camera.Handle, feature string, value float64) error {
	return errUnavailable("mvs.SetFloat")
}

func (s *SDK) GetFloat(ch camera.Handle, feature string) (float64, error) {
	return 0, errUnavailable("mvs.GetFloat")
}

func (s *SDK) SetInt(ch camera.Handle, feature string, value int64) error {
	return errUnavailable("mvs.SetInt")
}

func (s *SDK) GetInt(ch camera.Handle, feature string) (int64, error) {
	return 0, errUnavailable("mvs.GetInt")
}

func (s *SDK) SetEnum(ch camera.Handle, feature string, value uint32) error {
	return errUnavailable("mvs.SetEnum")
}

func (s *SDK) GetEnum(ch camera.Handle, feature string) (uint32, error) {
	return 0, errUnavailable("mvs.GetEnum")
}

func (s *SDK) SetBool(ch camera.Handle, feature string, value bool) error {
	return errUnavailable("mvs.SetBool")
}

func (s *SDK) GetBool(ch camera.Handle, feature string) (bool, error) {
	return false, errUnavailable("mvs.GetBool")
}

func (s *SDK) FeatureSave(ch camera.Handle, path string) error {
	return errUnavailable("mvs.FeatureSave")
}

func (s *SDK) FeatureLoad(ch camera.Handle, path string) error {
	return errUnavailable("mvs.FeatureLoad")
}
