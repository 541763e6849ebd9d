package camera

// GenICam feature names shared by the Driver surface.  These are the SFNC
// standard spellings Hikvision cameras use; the session layer addresses the
// device through them and the mvs binding passes them to the SDK verbatim.
const (
	FeatExposureTime  = "ExposureTime"
	FeatExposureAuto  = "ExposureAuto"
	FeatGain          = "Gain"
	FeatGainAuto      = "GainAuto"
	FeatFrameRate     = "AcquisitionFrameRate"
	FeatFrameRateEnbl = "AcquisitionFrameRateEnable"
	FeatPixelFormat   = "PixelFormat"
	FeatWidth         = "Width"
	FeatHeight        = "Height"
	FeatTriggerMode   = "TriggerMode"
	FeatTriggerSource = "TriggerSource"
	FeatTriggerSw     = "TriggerSoftware"
	FeatPayloadSize   = "PayloadSize"
)

// Enum values for ExposureAuto and GainAuto.  Continuous keeps the device
// adjusting every frame; Off returns control to the stored parameters.
const (
	AutoOff        uint32 = 0
	AutoOnce       uint32 = 1
	AutoContinuous uint32 = 2
)

// Enum values for TriggerMode and TriggerSource.
const (
	TriggerModeOff uint32 = 0
	TriggerModeOn  uint32 = 1

	TriggerSourceSoftware uint32 = 0
	TriggerSourceLine1    uint32 = 1
	TriggerSourceLine2    uint32 = 2
	TriggerSourceLine3    uint32 = 3
)

// TriggerEnums returns the TriggerMode and TriggerSource enum values a
// trigger mode maps onto.  Hardware triggering listens on Line1.
func TriggerEnums(m TriggerMode) (mode, source uint32, err error) {
	switch m {
	case TriggerOff:
		return TriggerModeOff, TriggerSourceSoftware, nil
	case TriggerSoftware:
		return TriggerModeOn, TriggerSourceSoftware, nil
	case TriggerHardware:
		return TriggerModeOn, TriggerSourceLine1, nil
	}
	return 0, 0, Errf(KindInvalidParameter, "camera.TriggerEnums",
		"unknown trigger mode %q", string(m))
}
