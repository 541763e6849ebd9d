package mvs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/satishgsonwane/weldcam/camera"
	"github.com/satishgsonwane/weldcam/util"
)

// Mock simulates one MVS camera with no hardware.  It implements the same
// interface as SDK: exclusive open, free-run or triggered grabbing, and a
// feature store seeded with factory defaults.  Frames are a moving gradient
// so a stream viewer shows motion.
type Mock struct {
	sync.Mutex

	// Devices is the enumeration result; defaults to a single USB camera
	Devices []camera.Descriptor

	open     bool
	grabbing bool
	seq      uint64
	triggers chan struct{}

	floats map[string]float64
	ints   map[string]int64
	enums  map[string]uint32
	bools  map[string]bool
}

var _ camera.Driver = &Mock{}
var _ camera.FeatureFiler = &Mock{}

// NewMock returns a simulated driver with one camera attached.
func NewMock() *Mock {
	return &Mock{
		Devices: []camera.Descriptor{
			{Index: 0, Name: "MV-CE013-50GM", Serial: "MOCK000001", Transport: camera.TransportUSB},
		},
		triggers: make(chan struct{}, 8),
		floats: map[string]float64{
			camera.FeatExposureTime: 10000,
			camera.FeatGain:         0,
			camera.FeatFrameRate:    20,
		},
		ints: map[string]int64{
			camera.FeatWidth:  640,
			camera.FeatHeight: 480,
		},
		enums: map[string]uint32{
			camera.FeatExposureAuto:  camera.AutoOff,
			camera.FeatGainAuto:      camera.AutoOff,
			camera.FeatPixelFormat:   uint32(camera.Mono8),
			camera.FeatTriggerMode:   camera.TriggerModeOff,
			camera.FeatTriggerSource: camera.TriggerSourceSoftware,
		},
		bools: map[string]bool{
			camera.FeatFrameRateEnbl: true,
		},
	}
}

type mockHandle struct{ serial string }

func (h *mockHandle) ID() string { return h.serial }

func (m *Mock) Enumerate() ([]camera.Descriptor, error) {
	m.Lock()
	defer m.Unlock()
	out := make([]camera.Descriptor, len(m.Devices))
	copy(out, m.Devices)
	return out, nil
}

func (m *Mock) Open(index int) (camera.Handle, error) {
	m.Lock()
	defer m.Unlock()
	if index < 0 || index >= len(m.Devices) {
		return nil, camera.Errf(camera.KindNotFound, "mvs.Open",
			"device index %d out of range, %d cameras visible", index, len(m.Devices))
	}
	if m.open {
		return nil, &camera.Error{
			Kind: camera.KindDeviceBusy,
			Op:   "mvs.Open",
			Code: uint32(ErrAccessDenied),
			Msg:  ErrAccessDenied.Name(),
		}
	}
	m.open = true
	return &mockHandle{serial: m.Devices[index].Serial}, nil
}

func (m *Mock) Close(h camera.Handle) error {
	m.Lock()
	defer m.Unlock()
	if !m.open {
		return camera.Errf(camera.KindInvalidState, "mvs.Close", "handle is not open")
	}
	m.open = false
	m.grabbing = false
	return nil
}

func (m *Mock) StartGrabbing(h camera.Handle) error {
	m.Lock()
	defer m.Unlock()
	if !m.open {
		return camera.Errf(camera.KindInvalidState, "mvs.StartGrabbing", "handle is not open")
	}
	m.grabbing = true
	return nil
}

func (m *Mock) StopGrabbing(h camera.Handle) error {
	m.Lock()
	defer m.Unlock()
	if !m.open {
		return camera.Errf(camera.KindInvalidState, "mvs.StopGrabbing", "handle is not open")
	}
	m.grabbing = false
	return nil
}

// GrabFrame synthesizes a frame.  In free-run it paces itself to the
// configured frame rate; in triggered mode it waits for a pending trigger
// and times out the way the real SDK does when no exposure happens.
func (m *Mock) GrabFrame(h camera.Handle, timeout time.Duration) (*camera.Frame, error) {
	m.Lock()
	if !m.grabbing {
		m.Unlock()
		return nil, camera.Errf(camera.KindInvalidState, "mvs.GrabFrame", "not grabbing")
	}
	triggered := m.enums[camera.FeatTriggerMode] == camera.TriggerModeOn
	fps := m.floats[camera.FeatFrameRate]
	m.Unlock()

	if triggered {
		select {
		case <-m.triggers:
		case <-time.After(timeout):
			return nil, &camera.Error{
				Kind: camera.KindTimeout,
				Op:   "mvs.GrabFrame",
				Code: uint32(ErrNoData),
				Msg:  ErrNoData.Name(),
			}
		}
	} else {
		interval := time.Second / 20
		if fps > 0 {
			interval = time.Duration(float64(time.Second) / fps)
		}
		if interval > timeout {
			return nil, &camera.Error{
				Kind: camera.KindTimeout,
				Op:   "mvs.GrabFrame",
				Code: uint32(ErrNoData),
				Msg:  ErrNoData.Name(),
			}
		}
		time.Sleep(interval)
	}

	m.Lock()
	defer m.Unlock()
	m.seq++
	w := int(m.ints[camera.FeatWidth])
	hgt := int(m.ints[camera.FeatHeight])
	format := camera.PixelFormat(m.enums[camera.FeatPixelFormat])
	data := make([]byte, w*hgt*format.BytesPerPixel())
	for i := range data {
		data[i] = byte(i + int(m.seq))
	}
	return &camera.Frame{
		Data:      data,
		Width:     w,
		Height:    hgt,
		Format:    format,
		Timestamp: time.Now(),
		Seq:       m.seq,
	}, nil
}

func (m *Mock) SoftwareTrigger(h camera.Handle) error {
	m.Lock()
	armed := m.open && m.enums[camera.FeatTriggerMode] == camera.TriggerModeOn &&
		m.enums[camera.FeatTriggerSource] == camera.TriggerSourceSoftware
	m.Unlock()
	if !armed {
		return camera.Errf(camera.KindInvalidState, "mvs.SoftwareTrigger",
			"trigger source is not software")
	}
	select {
	case m.triggers <- struct{}{}:
	default:
	}
	return nil
}

// unknownFeature mirrors the real SDK's response to a bad node name.
func unknownFeature(op, feature string) error {
	return &camera.Error{
		Kind: camera.KindInvalidParameter,
		Op:   op,
		Code: uint32(ErrParameter),
		Msg:  fmt.Sprintf("%s: no such feature %q", ErrParameter.Name(), feature),
	}
}

func (m *Mock) SetFloat(h camera.Handle, feature string, value float64) error {
	m.Lock()
	defer m.Unlock()
	if _, ok := m.floats[feature]; !ok {
		return unknownFeature("mvs.SetFloat", feature)
	}
	// real cameras coerce float features to the sensor's supported range
	switch feature {
	case camera.FeatExposureTime:
		value = util.Clamp(value, camera.ExposureMin, camera.ExposureMax)
	case camera.FeatGain:
		value = util.Clamp(value, camera.GainMin, camera.GainMax)
	case camera.FeatFrameRate:
		value = util.Clamp(value, camera.FrameRateMin, camera.FrameRateMax)
	}
	m.floats[feature] = value
	return nil
}

func (m *Mock) GetFloat(h camera.Handle, feature string) (float64, error) {
	m.Lock()
	defer m.Unlock()
	v, ok := m.floats[feature]
	if !ok {
		return 0, unknownFeature("mvs.GetFloat", feature)
	}
	return v, nil
}

func (m *Mock) SetInt(h camera.Handle, feature string, value int64) error {
	m.Lock()
	defer m.Unlock()
	if _, ok := m.ints[feature]; !ok {
		return unknownFeature("mvs.SetInt", feature)
	}
	m.ints[feature] = value
	return nil
}

func (m *Mock) GetInt(h camera.Handle, feature string) (int64, error) {
	m.Lock()
	defer m.Unlock()
	if feature == camera.FeatPayloadSize {
		format := camera.PixelFormat(m.enums[camera.FeatPixelFormat])
		return m.ints[camera.FeatWidth] * m.ints[camera.FeatHeight] * int64(format.BytesPerPixel()), nil
	}
	v, ok := m.ints[feature]
	if !ok {
		return 0, unknownFeature("mvs.GetInt", feature)
	}
	return v, nil
}

func (m *Mock) SetEnum(h camera.Handle, feature string, value uint32) error {
	m.Lock()
	defer m.Unlock()
	if _, ok := m.enums[feature]; !ok {
		return unknownFeature("mvs.SetEnum", feature)
	}
	m.enums[feature] = value
	return nil
}

func (m *Mock) GetEnum(h camera.Handle, feature string) (uint32, error) {
	m.Lock()
	defer m.Unlock()
	v, ok := m.enums[feature]
	if !ok {
		return 0, unknownFeature("mvs.GetEnum", feature)
	}
	return v, nil
}

func (m *Mock) SetBool(h camera.Handle, feature string, value bool) error {
	m.Lock()
	defer m.Unlock()
	if _, ok := m.bools[feature]; !ok {
		return unknownFeature("mvs.SetBool", feature)
	}
	m.bools[feature] = value
	return nil
}

func (m *Mock) GetBool(h camera.Handle, feature string) (bool, error) {
	m.Lock()
	defer m.Unlock()
	v, ok := m.bools[feature]
	if !ok {
		return false, unknownFeature("mvs.GetBool", feature)
	}
	return v, nil
}

// FeatureSave writes the feature store as key=value lines, one per feature,
// the way the real SDK's ini export reads back.
func (m *Mock) FeatureSave(h camera.Handle, path string) error {
	m.Lock()
	defer m.Unlock()
	var b strings.Builder
	for k, v := range m.floats {
		fmt.Fprintf(&b, "%s=%g\n", k, v)
	}
	for k, v := range m.ints {
		fmt.Fprintf(&b, "%s=%d\n", k, v)
	}
	for k, v := range m.enums {
		fmt.Fprintf(&b, "%s=%d\n", k, v)
	}
	for k, v := range m.bools {
		fmt.Fprintf(&b, "%s=%t\n", k, v)
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// FeatureLoad applies key=value lines written by FeatureSave.  Keys the
// store does not know are skipped, matching the real SDK's tolerance for
// stale ini entries.
func (m *Mock) FeatureLoad(h camera.Handle, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return camera.Errf(camera.KindInvalidParameter, "mvs.FeatureLoad",
			"cannot read %s: %v", path, err)
	}
	m.Lock()
	defer m.Unlock()
	for _, line := range strings.Split(string(data), "\n") {
		k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		if _, here := m.floats[k]; here {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				m.floats[k] = f
			}
		} else if _, here := m.ints[k]; here {
			if i, err := strconv.ParseInt(v, 10, 64); err == nil {
				m.ints[k] = i
			}
		} else if _, here := m.enums[k]; here {
			if e, err := strconv.ParseUint(v, 10, 32); err == nil {
				m.enums[k] = uint32(e)
			}
		} else if _, here := m.bools[k]; here {
			if t, err := strconv.ParseBool(v); err == nil {
				m.bools[k] = t
			}
		}
	}
	return nil
}
