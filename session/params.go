package session

import (
	"github.com/satishgsonwane/weldcam/camera"
)

// Params returns a snapshot of the cached parameter set.  The cache is the
// source of truth while Disconnected and is kept synchronized with the
// device while a handle is open.
func (s *Session) Params() camera.ParameterSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// connectedLocked reports whether a device handle is open; callers hold mu.
func (s *Session) connectedLocked() bool {
	return s.state != Disconnected
}

// applyLocked pushes the whole cached parameter set to a freshly opened
// device.  Geometry and format go first since they gate payload size, then
// triggering, then the auto modes, then the manual values the autos do not
// own.
func (s *Session) applyLocked(h camera.Handle) error {
	p := s.params
	if err := s.drv.SetInt(h, camera.FeatWidth, int64(p.Resolution.Width)); err != nil {
		return err
	}
	if err := s.drv.SetInt(h, camera.FeatHeight, int64(p.Resolution.Height)); err != nil {
		return err
	}
	if err := s.drv.SetEnum(h, camera.FeatPixelFormat, uint32(p.Format)); err != nil {
		return err
	}
	if err := s.drv.SetBool(h, camera.FeatFrameRateEnbl, true); err != nil {
		return err
	}
	if err := s.drv.SetFloat(h, camera.FeatFrameRate, p.FrameRate); err != nil {
		return err
	}
	mode, src, err := camera.TriggerEnums(p.Trigger)
	if err != nil {
		return err
	}
	if err := s.drv.SetEnum(h, camera.FeatTriggerMode, mode); err != nil {
		return err
	}
	if err := s.drv.SetEnum(h, camera.FeatTriggerSource, src); err != nil {
		return err
	}
	if err := s.drv.SetEnum(h, camera.FeatExposureAuto, autoEnum(p.AutoExposure)); err != nil {
		return err
	}
	if err := s.drv.SetEnum(h, camera.FeatGainAuto, autoEnum(p.AutoGain)); err != nil {
		return err
	}
	if !p.AutoExposure {
		if err := s.drv.SetFloat(h, camera.FeatExposureTime, p.ExposureUs); err != nil {
			return err
		}
	}
	if !p.AutoGain {
		if err := s.drv.SetFloat(h, camera.FeatGain, p.GainDb); err != nil {
			return err
		}
	}
	return nil
}

func autoEnum(on bool) uint32 {
	if on {
		return camera.AutoContinuous
	}
	return camera.AutoOff
}

// SetExposure sets the exposure time in microseconds.  Rejected while auto
// exposure owns the value.
func (s *Session) SetExposure(us float64) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := camera.ValidateExposure(us); err != nil {
		return err
	}
	if s.params.AutoExposure {
		return camera.Errf(camera.KindInvalidState, "session.SetExposure",
			"exposure is under automatic control")
	}
	if s.connectedLocked() {
		if err := s.drv.SetFloat(s.h, camera.FeatExposureTime, us); err != nil {
			return err
		}
	}
	s.params.ExposureUs = us
	return nil
}

// GetExposure reads the exposure time in microseconds.  When auto exposure
// is active the device value moves on its own, so connected reads always go
// to the device.
func (s *Session) GetExposure() (float64, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connectedLocked() {
		return s.params.ExposureUs, nil
	}
	v, err := s.drv.GetFloat(s.h, camera.FeatExposureTime)
	if err != nil {
		return 0, err
	}
	s.params.ExposureUs = v
	return v, nil
}

// SetGain sets the analog gain in decibels.  Rejected while auto gain owns
// the value.
func (s *Session) SetGain(db float64) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := camera.ValidateGain(db); err != nil {
		return err
	}
	if s.params.AutoGain {
		return camera.Errf(camera.KindInvalidState, "session.SetGain",
			"gain is under automatic control")
	}
	if s.connectedLocked() {
		if err := s.drv.SetFloat(s.h, camera.FeatGain, db); err != nil {
			return err
		}
	}
	s.params.GainDb = db
	return nil
}

// GetGain reads the analog gain in decibels.
func (s *Session) GetGain() (float64, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connectedLocked() {
		return s.params.GainDb, nil
	}
	v, err := s.drv.GetFloat(s.h, camera.FeatGain)
	if err != nil {
		return 0, err
	}
	s.params.GainDb = v
	return v, nil
}

// SetFrameRate sets the target frame rate in frames per second.  The device
// takes the new rate immediately; the loop pacer picks it up at the next
// StartAcquisition.
func (s *Session) SetFrameRate(fps float64) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := camera.ValidateFrameRate(fps); err != nil {
		return err
	}
	if s.connectedLocked() {
		if err := s.drv.SetFloat(s.h, camera.FeatFrameRate, fps); err != nil {
			return err
		}
	}
	s.params.FrameRate = fps
	return nil
}

// GetFrameRate reads the target frame rate.
func (s *Session) GetFrameRate() (float64, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connectedLocked() {
		return s.params.FrameRate, nil
	}
	v, err := s.drv.GetFloat(s.h, camera.FeatFrameRate)
	if err != nil {
		return 0, err
	}
	s.params.FrameRate = v
	return v, nil
}

// SetPixelFormat selects the wire pixel format.  The payload geometry
// changes with it, so the format is frozen while Acquiring.
func (s *Session) SetPixelFormat(pf camera.PixelFormat) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	known := false
	for _, f := range camera.PixelFormats {
		if f == pf {
			known = true
			break
		}
	}
	if !known {
		return camera.Errf(camera.KindInvalidParameter, "session.SetPixelFormat",
			"unsupported pixel format 0x%08X", uint32(pf))
	}
	if s.state == Acquiring {
		return camera.Errf(camera.KindInvalidState, "session.SetPixelFormat",
			"cannot change pixel format while acquiring")
	}
	if s.connectedLocked() {
		if err := s.drv.SetEnum(s.h, camera.FeatPixelFormat, uint32(pf)); err != nil {
			return err
		}
	}
	s.params.Format = pf
	return nil
}

// GetPixelFormat reads the wire pixel format.
func (s *Session) GetPixelFormat() (camera.PixelFormat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Format, nil
}

// SetResolution sets the sensor readout region.  Frozen while Acquiring for
// the same reason as the pixel format.
func (s *Session) SetResolution(r camera.Resolution) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := camera.ValidateResolution(r); err != nil {
		return err
	}
	if s.state == Acquiring {
		return camera.Errf(camera.KindInvalidState, "session.SetResolution",
			"cannot change resolution while acquiring")
	}
	if s.connectedLocked() {
		if err := s.drv.SetInt(s.h, camera.FeatWidth, int64(r.Width)); err != nil {
			return err
		}
		if err := s.drv.SetInt(s.h, camera.FeatHeight, int64(r.Height)); err != nil {
			return err
		}
	}
	s.params.Resolution = r
	return nil
}

// GetResolution reads the sensor readout region.
func (s *Session) GetResolution() (camera.Resolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Resolution, nil
}

// SetAutoExposure hands exposure control to the device (continuous mode) or
// takes it back.  Coming out of auto, the last manual exposure is pushed
// back to the device, discarding whatever the algorithm converged on.
func (s *Session) SetAutoExposure(on bool) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connectedLocked() {
		if err := s.drv.SetEnum(s.h, camera.FeatExposureAuto, autoEnum(on)); err != nil {
			return err
		}
		if !on {
			if err := s.drv.SetFloat(s.h, camera.FeatExposureTime, s.params.ExposureUs); err != nil {
				return err
			}
		}
	}
	s.params.AutoExposure = on
	return nil
}

// SetAutoGain hands gain control to the device or takes it back, restoring
// the last manual gain.
func (s *Session) SetAutoGain(on bool) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connectedLocked() {
		if err := s.drv.SetEnum(s.h, camera.FeatGainAuto, autoEnum(on)); err != nil {
			return err
		}
		if !on {
			if err := s.drv.SetFloat(s.h, camera.FeatGain, s.params.GainDb); err != nil {
				return err
			}
		}
	}
	s.params.AutoGain = on
	return nil
}

// SetTrigger selects the trigger mode.  Changing how exposures start while
// the loop is grabbing would race it, so the mode is frozen while Acquiring.
func (s *Session) SetTrigger(m camera.TriggerMode) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	mode, src, err := camera.TriggerEnums(m)
	if err != nil {
		return err
	}
	if s.state == Acquiring {
		return camera.Errf(camera.KindInvalidState, "session.SetTrigger",
			"cannot change trigger mode while acquiring")
	}
	if s.connectedLocked() {
		if err := s.drv.SetEnum(s.h, camera.FeatTriggerMode, mode); err != nil {
			return err
		}
		if err := s.drv.SetEnum(s.h, camera.FeatTriggerSource, src); err != nil {
			return err
		}
	}
	s.params.Trigger = m
	return nil
}

// GetTrigger reads the trigger mode.
func (s *Session) GetTrigger() (camera.TriggerMode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Trigger, nil
}

// Trigger fires one software trigger.  Valid only when the trigger mode is
// Software and a handle is open; the exposure lands in the acquisition
// loop's next grab.
func (s *Session) Trigger() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connectedLocked() {
		return camera.Errf(camera.KindInvalidState, "session.Trigger", "not connected")
	}
	if s.params.Trigger != camera.TriggerSoftware {
		return camera.Errf(camera.KindInvalidState, "session.Trigger",
			"trigger mode is %s, not Software", string(s.params.Trigger))
	}
	return s.drv.SoftwareTrigger(s.h)
}

// SaveFeatures persists the device's feature set to an ini file.  Requires
// a driver that can do it and an open handle.
func (s *Session) SaveFeatures(path string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	ff, ok := s.drv.(camera.FeatureFiler)
	if !ok {
		return camera.Errf(camera.KindInvalidParameter, "session.SaveFeatures",
			"driver cannot persist features")
	}
	if !s.connectedLocked() {
		return camera.Errf(camera.KindInvalidState, "session.SaveFeatures", "not connected")
	}
	return ff.FeatureSave(s.h, path)
}

// LoadFeatures applies a persisted feature set to the device and refreshes
// the cache from it.  Valid only when Connected; a running loop would see
// the geometry change under it.
func (s *Session) LoadFeatures(path string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	ff, ok := s.drv.(camera.FeatureFiler)
	if !ok {
		return camera.Errf(camera.KindInvalidParameter, "session.LoadFeatures",
			"driver cannot persist features")
	}
	if s.state != Connected {
		return camera.Errf(camera.KindInvalidState, "session.LoadFeatures",
			"cannot load features while %s", string(s.state))
	}
	if err := ff.FeatureLoad(s.h, path); err != nil {
		return err
	}
	return s.refreshLocked()
}

// refreshLocked re-reads the cached parameters from the device.
func (s *Session) refreshLocked() error {
	h := s.h
	exp, err := s.drv.GetFloat(h, camera.FeatExposureTime)
	if err != nil {
		return err
	}
	gain, err := s.drv.GetFloat(h, camera.FeatGain)
	if err != nil {
		return err
	}
	fps, err := s.drv.GetFloat(h, camera.FeatFrameRate)
	if err != nil {
		return err
	}
	w, err := s.drv.GetInt(h, camera.FeatWidth)
	if err != nil {
		return err
	}
	ht, err := s.drv.GetInt(h, camera.FeatHeight)
	if err != nil {
		return err
	}
	pf, err := s.drv.GetEnum(h, camera.FeatPixelFormat)
	if err != nil {
		return err
	}
	ea, err := s.drv.GetEnum(h, camera.FeatExposureAuto)
	if err != nil {
		return err
	}
	ga, err := s.drv.GetEnum(h, camera.FeatGainAuto)
	if err != nil {
		return err
	}
	tm, err := s.drv.GetEnum(h, camera.FeatTriggerMode)
	if err != nil {
		return err
	}
	ts, err := s.drv.GetEnum(h, camera.FeatTriggerSource)
	if err != nil {
		return err
	}

	s.params.ExposureUs = exp
	s.params.GainDb = gain
	s.params.FrameRate = fps
	s.params.Resolution = camera.Resolution{Width: int(w), Height: int(ht)}
	s.params.Format = camera.PixelFormat(pf)
	s.params.AutoExposure = ea != camera.AutoOff
	s.params.AutoGain = ga != camera.AutoOff
	switch {
	case tm == camera.TriggerModeOff:
		s.params.Trigger = camera.TriggerOff
	case ts == camera.TriggerSourceSoftware:
		s.params.Trigger = camera.TriggerSoftware
	default:
		s.params.Trigger = camera.TriggerHardware
	}
	return nil
}
