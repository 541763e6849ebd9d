package camera

// Parameter range limits enforced before any value reaches the SDK.
// Values come from the cameras this wrapper targets; the SDK itself may
// clamp further per model.
const (
	// ExposureMin is the shortest exposure time in microseconds
	ExposureMin = 1.0

	// ExposureMax is the longest exposure time in microseconds
	ExposureMax = 1000000.0

	// GainMin is the lowest analog gain in dB
	GainMin = 0.0

	// GainMax is the highest analog gain in dB
	GainMax = 24.0

	// FrameRateMin is the slowest frame rate in fps
	FrameRateMin = 0.1

	// FrameRateMax is the fastest frame rate in fps
	FrameRateMax = 1000.0

	// DimensionMin is the smallest width or height in pixels
	DimensionMin = 1

	// DimensionMax is the largest width or height in pixels
	DimensionMax = 4096
)

// TriggerMode selects how frames are initiated.
type TriggerMode string

const (
	// TriggerOff free-runs the sensor at the configured frame rate
	TriggerOff TriggerMode = "Off"

	// TriggerSoftware exposes one frame per software trigger command
	TriggerSoftware TriggerMode = "Software"

	// TriggerHardware exposes one frame per pulse on the camera's
	// trigger input line
	TriggerHardware TriggerMode = "Hardware"
)

// ParseTriggerMode converts a mode name into a TriggerMode.
func ParseTriggerMode(s string) (TriggerMode, error) {
	switch TriggerMode(s) {
	case TriggerOff, TriggerSoftware, TriggerHardware:
		return TriggerMode(s), nil
	}
	return "", Errf(KindInvalidParameter, "parse-trigger-mode", "unknown trigger mode %q", s)
}

// ParameterSet is a snapshot of the acquisition parameters of a session.
// When an auto flag is set the corresponding manual value is SDK controlled
// and reads report the live value, not the last user entry.
type ParameterSet struct {
	// ExposureUs is the exposure time in microseconds
	ExposureUs float64 `json:"exposureUs"`

	// GainDb is the analog gain in dB
	GainDb float64 `json:"gainDb"`

	// FrameRate is the acquisition frame rate in fps
	FrameRate float64 `json:"frameRate"`

	// Format is the pixel format of produced frames
	Format PixelFormat `json:"pixelFormat"`

	// Resolution is the frame size
	Resolution Resolution `json:"resolution"`

	// AutoExposure locks ExposureUs under SDK control
	AutoExposure bool `json:"autoExposure"`

	// AutoGain locks GainDb under SDK control
	AutoGain bool `json:"autoGain"`

	// Trigger is the trigger mode
	Trigger TriggerMode `json:"triggerMode"`
}

// ValidateExposure bounds-checks an exposure time in microseconds.
func ValidateExposure(us float64) error {
	if us < ExposureMin || us > ExposureMax {
		return Errf(KindInvalidParameter, "set-exposure",
			"exposure %g us outside [%g, %g]", us, float64(ExposureMin), float64(ExposureMax))
	}
	return nil
}

// ValidateGain bounds-checks a gain in dB.
func ValidateGain(db float64) error {
	if db < GainMin || db > GainMax {
		return Errf(KindInvalidParameter, "set-gain",
			"gain %g dB outside [%g, %g]", db, float64(GainMin), float64(GainMax))
	}
	return nil
}

// ValidateFrameRate bounds-checks a frame rate in fps.
func ValidateFrameRate(fps float64) error {
	if fps < FrameRateMin || fps > FrameRateMax {
		return Errf(KindInvalidParameter, "set-frame-rate",
			"frame rate %g fps outside [%g, %g]", fps, float64(FrameRateMin), float64(FrameRateMax))
	}
	return nil
}

// ValidateResolution bounds-checks a frame size.
func ValidateResolution(r Resolution) error {
	if r.Width < DimensionMin || r.Width > DimensionMax ||
		r.Height < DimensionMin || r.Height > DimensionMax {
		return Errf(KindInvalidParameter, "set-resolution",
			"resolution %s outside [%d, %d] per axis", r, DimensionMin, DimensionMax)
	}
	return nil
}
