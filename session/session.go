/*Package session owns the lifecycle of one camera: a three-state machine
(Disconnected, Connected, Acquiring) layered on a camera.Driver.

All public operations are serialized; the acquisition loop is the only
concurrent actor, and it talks to the session through a generation counter
so a loop from a previous acquisition can never mutate current state.
Frames flow out through a single-slot mailbox, so a slow consumer drops
frames instead of growing a queue.
*/
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/satishgsonwane/weldcam/camera"
	"github.com/satishgsonwane/weldcam/mailbox"
)

// State is the connection state of a session.
type State string

const (
	// Disconnected means no device handle is held
	Disconnected State = "Disconnected"

	// Connected means a handle is open and parameters are synchronized
	Connected State = "Connected"

	// Acquiring means the grab loop is running and frames are flowing
	Acquiring State = "Acquiring"
)

// EventKind discriminates session events.
type EventKind string

const (
	// EventState reports an ordinary state transition
	EventState EventKind = "state"

	// EventFatal reports a device fault that demoted the session from
	// Acquiring to Connected.  It is sent exactly once per fault.
	EventFatal EventKind = "fatal"
)

// Event is a session notification.  Events are best effort; when the
// channel is full the event is dropped rather than blocking the session.
type Event struct {
	Kind  EventKind `json:"kind"`
	State State     `json:"state"`
	Err   error     `json:"-"`
	Time  time.Time `json:"time"`
}

// DefaultGrabTimeout bounds a single frame grab.
const DefaultGrabTimeout = time.Second

// DefaultFrameRate paces the acquisition loop when the configured rate is
// unusable.
const DefaultFrameRate = 20.0

// Session drives one camera through a vendor driver.
//
// opMu serializes the public operations end to end.  mu guards the fields
// the acquisition loop shares with those operations; it is never held
// across a frame grab.
type Session struct {
	opMu sync.Mutex
	mu   sync.Mutex

	drv    camera.Driver
	h      camera.Handle
	state  State
	params camera.ParameterSet

	// gen identifies the current acquisition run; a loop carrying a stale
	// generation is ignored when it reports a fault
	gen    uint64
	cancel func()
	wg     sync.WaitGroup

	box         *mailbox.Box
	events      chan Event
	grabTimeout time.Duration
}

// New returns a disconnected session over the given driver, with factory
// default parameters cached.
func New(drv camera.Driver) *Session {
	return &Session{
		drv:   drv,
		state: Disconnected,
		params: camera.ParameterSet{
			ExposureUs: 10000,
			GainDb:     0,
			FrameRate:  DefaultFrameRate,
			Format:     camera.Mono8,
			Resolution: camera.Resolution{Width: 640, Height: 480},
			Trigger:    camera.TriggerOff,
		},
		box:         mailbox.New(),
		events:      make(chan Event, 16),
		grabTimeout: DefaultGrabTimeout,
	}
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Events returns the notification channel.  The session never closes it.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Frames returns the mailbox the acquisition loop publishes into.
func (s *Session) Frames() *mailbox.Box {
	return s.box
}

// emit sends an event without blocking; callers hold mu.
func (s *Session) emit(ev Event) {
	ev.Time = time.Now()
	select {
	case s.events <- ev:
	default:
	}
}

// Devices lists the cameras the driver can currently see.  Valid in any
// state; enumeration does not touch the open handle.
func (s *Session) Devices() ([]camera.Descriptor, error) {
	return s.drv.Enumerate()
}

// Connect opens the camera at the given enumeration index and pushes the
// cached parameter set to it.  Valid only when Disconnected.
func (s *Session) Connect(index int) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Disconnected {
		return camera.Errf(camera.KindAlreadyConnected, "session.Connect",
			"already %s", string(s.state))
	}
	h, err := s.drv.Open(index)
	if err != nil {
		return err
	}
	if err := s.applyLocked(h); err != nil {
		s.drv.Close(h)
		return err
	}
	s.h = h
	s.state = Connected
	s.emit(Event{Kind: EventState, State: Connected})
	return nil
}

// Disconnect stops acquisition if running and releases the device handle.
// A failed stop aborts the disconnect and the session stays Acquiring.
func (s *Session) Disconnect() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	switch s.state {
	case Disconnected:
		s.mu.Unlock()
		return camera.Errf(camera.KindInvalidState, "session.Disconnect",
			"not connected")
	case Acquiring:
		if err := s.stopLocked(); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.drv.Close(s.h)
	s.h = nil
	s.state = Disconnected
	s.emit(Event{Kind: EventState, State: Disconnected})
	return err
}

// StartAcquisition begins free-running (or triggered) frame delivery into
// the mailbox.  Valid only when Connected.
func (s *Session) StartAcquisition() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Connected {
		return camera.Errf(camera.KindInvalidState, "session.StartAcquisition",
			"cannot start acquisition while %s", string(s.state))
	}
	if err := s.drv.StartGrabbing(s.h); err != nil {
		return err
	}

	s.gen++
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.state = Acquiring
	s.wg.Add(1)
	go s.acquire(ctx, s.gen, s.h, s.params.FrameRate)
	s.emit(Event{Kind: EventState, State: Acquiring})
	return nil
}

// StopAcquisition halts the grab loop and returns the session to Connected.
// The device is told to stop first; if that fails the session remains
// Acquiring and nothing else changes.
func (s *Session) StopAcquisition() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.state != Acquiring {
		s.mu.Unlock()
		return camera.Errf(camera.KindInvalidState, "session.StopAcquisition",
			"not acquiring")
	}
	if err := s.stopLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.emit(Event{Kind: EventState, State: Connected})
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

// stopLocked stops the device and retires the running loop.  Callers hold
// mu and must wg.Wait after releasing it.
func (s *Session) stopLocked() error {
	if err := s.drv.StopGrabbing(s.h); err != nil {
		return err
	}
	s.cancel()
	s.cancel = nil
	s.gen++
	s.state = Connected
	return nil
}

// demote handles a device fault reported by the acquisition loop.  The
// generation guard makes it a no-op when the loop lost a race with a stop
// or disconnect, so a fault demotes the session at most once.
func (s *Session) demote(gen uint64, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.state != Acquiring {
		return
	}
	log.Printf("session: device fault during acquisition, demoting to Connected: %v", cause)
	s.drv.StopGrabbing(s.h)
	s.cancel()
	s.cancel = nil
	s.gen++
	s.state = Connected
	s.emit(Event{Kind: EventFatal, State: Connected, Err: cause})
}

// Snap takes a single frame while Connected, without entering Acquiring.
// The device grabs for one frame and is stopped again before return.
func (s *Session) Snap() (*camera.Frame, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Connected {
		return nil, camera.Errf(camera.KindInvalidState, "session.Snap",
			"cannot snap while %s", string(s.state))
	}
	if err := s.drv.StartGrabbing(s.h); err != nil {
		return nil, err
	}
	if s.params.Trigger == camera.TriggerSoftware {
		if err := s.drv.SoftwareTrigger(s.h); err != nil {
			s.drv.StopGrabbing(s.h)
			return nil, err
		}
	}
	f, err := s.drv.GrabFrame(s.h, s.grabTimeout)
	s.drv.StopGrabbing(s.h)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Close tears the session down: disconnects if a handle is held and closes
// the mailbox so stream consumers unblock.  The events channel stays open.
func (s *Session) Close() error {
	err := s.Disconnect()
	if camera.IsKind(err, camera.KindInvalidState) {
		err = nil
	}
	s.box.Close()
	return err
}
