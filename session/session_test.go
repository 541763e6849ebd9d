package session_test

import (
	"sync"
	"testing"
	"time"

	"github.com/satishgsonwane/weldcam/camera"
	"github.com/satishgsonwane/weldcam/session"
)

// fake is an in-memory camera.Driver with programmable failures, so the
// state machine can be pushed through every edge without hardware.
type fake struct {
	mu sync.Mutex

	openErr  error
	startErr error
	stopErr  error
	closeErr error

	// failFeature makes any Set on that feature return featureErr
	failFeature string
	featureErr  error

	// grab produces the n-th grab result (n counts from 1)
	grab func(n int) (*camera.Frame, error)

	grabs    int
	opened   bool
	grabbing bool
	closes   int
	triggers int

	floats map[string]float64
	ints   map[string]int64
	enums  map[string]uint32
	bools  map[string]bool
}

type fakeHandle struct{}

func (fakeHandle) ID() string { return "fake" }

func newFake() *fake {
	return &fake{
		grab: func(n int) (*camera.Frame, error) {
			return &camera.Frame{
				Data: []byte{0}, Width: 1, Height: 1,
				Format: camera.Mono8, Seq: uint64(n), Timestamp: time.Now(),
			}, nil
		},
		floats: map[string]float64{},
		ints:   map[string]int64{},
		enums:  map[string]uint32{},
		bools:  map[string]bool{},
	}
}

func (f *fake) Enumerate() ([]camera.Descriptor, error) {
	return []camera.Descriptor{{Index: 0, Name: "fake", Serial: "F0", Transport: camera.TransportUSB}}, nil
}

func (f *fake) Open(index int) (camera.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened = true
	return fakeHandle{}, nil
}

func (f *fake) Close(h camera.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	f.opened = false
	return f.closeErr
}

func (f *fake) StartGrabbing(h camera.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.grabbing = true
	return nil
}

func (f *fake) StopGrabbing(h camera.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopErr != nil {
		return f.stopErr
	}
	f.grabbing = false
	return nil
}

func (f *fake) GrabFrame(h camera.Handle, timeout time.Duration) (*camera.Frame, error) {
	f.mu.Lock()
	f.grabs++
	n := f.grabs
	g := f.grab
	f.mu.Unlock()
	return g(n)
}

func (f *fake) SoftwareTrigger(h camera.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers++
	return nil
}

func (f *fake) setAllowed(feature string) error {
	if feature == f.failFeature {
		return f.featureErr
	}
	return nil
}

func (f *fake) SetFloat(h camera.Handle, feature string, v float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.setAllowed(feature); err != nil {
		return err
	}
	f.floats[feature] = v
	return nil
}

func (f *fake) GetFloat(h camera.Handle, feature string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.floats[feature], nil
}

func (f *fake) SetInt(h camera.Handle, feature string, v int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.setAllowed(feature); err != nil {
		return err
	}
	f.ints[feature] = v
	return nil
}

func (f *fake) GetInt(h camera.Handle, feature string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ints[feature], nil
}

func (f *fake) SetEnum(h camera.Handle, feature string, v uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.setAllowed(feature); err != nil {
		return err
	}
	f.enums[feature] = v
	return nil
}

func (f *fake) GetEnum(h camera.Handle, feature string) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enums[feature], nil
}

func (f *fake) SetBool(h camera.Handle, feature string, v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.setAllowed(feature); err != nil {
		return err
	}
	f.bools[feature] = v
	return nil
}

func (f *fake) GetBool(h camera.Handle, feature string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bools[feature], nil
}

func (f *fake) float(feature string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.floats[feature]
}

func (f *fake) enum(feature string) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enums[feature]
}

func connected(t *testing.T) (*session.Session, *fake) {
	t.Helper()
	f := newFake()
	s := session.New(f)
	if err := s.Connect(0); err != nil {
		t.Fatal(err)
	}
	return s, f
}

func TestInitialStateIsDisconnected(t *testing.T) {
	s := session.New(newFake())
	if s.State() != session.Disconnected {
		t.Errorf("new session is %s", s.State())
	}
}

func TestConnectPushesCachedParameters(t *testing.T) {
	f := newFake()
	s := session.New(f)
	if err := s.SetExposure(5000); err != nil {
		t.Fatal(err)
	}
	if err := s.Connect(0); err != nil {
		t.Fatal(err)
	}
	if s.State() != session.Connected {
		t.Fatalf("state is %s", s.State())
	}
	if got := f.float(camera.FeatExposureTime); got != 5000 {
		t.Errorf("exposure on device = %v, want 5000", got)
	}
	if got := f.float(camera.FeatFrameRate); got != session.DefaultFrameRate {
		t.Errorf("frame rate on device = %v", got)
	}
	if got := f.enum(camera.FeatTriggerMode); got != camera.TriggerModeOff {
		t.Errorf("trigger mode on device = %d", got)
	}
}

func TestConnectWhileConnected(t *testing.T) {
	s, _ := connected(t)
	err := s.Connect(0)
	if !camera.IsKind(err, camera.KindAlreadyConnected) {
		t.Errorf("expected AlreadyConnected, got %v", err)
	}
}

func TestConnectOpenFailureStaysDisconnected(t *testing.T) {
	f := newFake()
	f.openErr = camera.Errf(camera.KindDeviceBusy, "fake", "held elsewhere")
	s := session.New(f)
	err := s.Connect(0)
	if !camera.IsKind(err, camera.KindDeviceBusy) {
		t.Errorf("open error not propagated: %v", err)
	}
	if s.State() != session.Disconnected {
		t.Errorf("state is %s after failed open", s.State())
	}
}

func TestConnectApplyFailureClosesHandle(t *testing.T) {
	f := newFake()
	f.failFeature = camera.FeatExposureTime
	f.featureErr = camera.Errf(camera.KindDeviceError, "fake", "node write failed")
	s := session.New(f)
	err := s.Connect(0)
	if !camera.IsKind(err, camera.KindDeviceError) {
		t.Errorf("apply error not propagated: %v", err)
	}
	if s.State() != session.Disconnected {
		t.Errorf("state is %s", s.State())
	}
	if f.closes != 1 {
		t.Errorf("handle closed %d times, want 1", f.closes)
	}
}

func TestDisconnectReleasesHandle(t *testing.T) {
	s, f := connected(t)
	if err := s.Disconnect(); err != nil {
		t.Fatal(err)
	}
	if s.State() != session.Disconnected {
		t.Errorf("state is %s", s.State())
	}
	if f.closes != 1 {
		t.Errorf("handle closed %d times, want 1", f.closes)
	}
}

func TestDisconnectWhileDisconnected(t *testing.T) {
	s := session.New(newFake())
	if err := s.Disconnect(); !camera.IsKind(err, camera.KindInvalidState) {
		t.Errorf("expected InvalidState, got %v", err)
	}
}

func TestStartAcquisitionRequiresConnected(t *testing.T) {
	s := session.New(newFake())
	if err := s.StartAcquisition(); !camera.IsKind(err, camera.KindInvalidState) {
		t.Errorf("expected InvalidState, got %v", err)
	}
}

func TestStopAcquisitionRequiresAcquiring(t *testing.T) {
	s, _ := connected(t)
	if err := s.StopAcquisition(); !camera.IsKind(err, camera.KindInvalidState) {
		t.Errorf("expected InvalidState, got %v", err)
	}
}

func TestStartGrabbingFailureStaysConnected(t *testing.T) {
	s, f := connected(t)
	f.startErr = camera.Errf(camera.KindDeviceError, "fake", "start failed")
	if err := s.StartAcquisition(); !camera.IsKind(err, camera.KindDeviceError) {
		t.Errorf("start error not propagated: %v", err)
	}
	if s.State() != session.Connected {
		t.Errorf("state is %s", s.State())
	}
}

func TestStopFailureStaysAcquiring(t *testing.T) {
	s, f := connected(t)
	if err := s.StartAcquisition(); err != nil {
		t.Fatal(err)
	}
	f.mu.Lock()
	f.stopErr = camera.Errf(camera.KindDeviceError, "fake", "stop failed")
	f.mu.Unlock()
	if err := s.StopAcquisition(); !camera.IsKind(err, camera.KindDeviceError) {
		t.Errorf("stop error not propagated: %v", err)
	}
	if s.State() != session.Acquiring {
		t.Errorf("state is %s after failed stop, want Acquiring", s.State())
	}

	// disconnect must also refuse while the device cannot stop
	if err := s.Disconnect(); !camera.IsKind(err, camera.KindDeviceError) {
		t.Errorf("disconnect should abort on failed stop, got %v", err)
	}
	if s.State() != session.Acquiring {
		t.Errorf("state is %s after aborted disconnect", s.State())
	}

	f.mu.Lock()
	f.stopErr = nil
	f.mu.Unlock()
	if err := s.Disconnect(); err != nil {
		t.Fatal(err)
	}
	if s.State() != session.Disconnected {
		t.Errorf("state is %s", s.State())
	}
}

func TestSnapReturnsFrameAndStaysConnected(t *testing.T) {
	s, f := connected(t)
	frame, err := s.Snap()
	if err != nil {
		t.Fatal(err)
	}
	if frame == nil || frame.Width != 1 {
		t.Errorf("unexpected frame %+v", frame)
	}
	if s.State() != session.Connected {
		t.Errorf("state is %s after snap", s.State())
	}
	f.mu.Lock()
	grabbing := f.grabbing
	f.mu.Unlock()
	if grabbing {
		t.Error("device left grabbing after snap")
	}
}

func TestSnapRequiresConnected(t *testing.T) {
	s := session.New(newFake())
	if _, err := s.Snap(); !camera.IsKind(err, camera.KindInvalidState) {
		t.Errorf("expected InvalidState, got %v", err)
	}
}

func TestConnectEmitsStateEvent(t *testing.T) {
	s, _ := connected(t)
	select {
	case ev := <-s.Events():
		if ev.Kind != session.EventState || ev.State != session.Connected {
			t.Errorf("unexpected event %+v", ev)
		}
	default:
		t.Error("no event after connect")
	}
}
