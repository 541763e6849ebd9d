package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/satishgsonwane/weldcam/camera"
	"github.com/satishgsonwane/weldcam/generichttp"
	camerahttp "github.com/satishgsonwane/weldcam/generichttp/camera"
	"github.com/satishgsonwane/weldcam/imgrec"
	"github.com/satishgsonwane/weldcam/mvs"
	"github.com/satishgsonwane/weldcam/server/middleware/locker"
	"github.com/satishgsonwane/weldcam/session"
)

// RecorderSetup configures the on-disk frame recorder.
type RecorderSetup struct {
	// Root is the folder recorded frames are written under; empty disables
	// recording regardless of Enabled
	Root string `yaml:"Root"`

	// Prefix is prepended to recorded filenames
	Prefix string `yaml:"Prefix"`

	// Enabled starts the server with recording turned on
	Enabled bool `yaml:"Enabled"`
}

// Config holds the initialization parameters for the server.  It is
// populated from the yaml config file over the compiled-in defaults.
type Config struct {
	// Addr is the address to listen at
	Addr string `yaml:"Addr"`

	// Endpoint is the URL stem the camera routes are served under,
	// ex. Endpoint="/weldcam/cam1" produces routes of /weldcam/cam1/image, etc.
	Endpoint string `yaml:"Endpoint"`

	// Mock replaces the vendor SDK with a simulated camera
	Mock bool `yaml:"Mock"`

	// Camera is the enumeration index to connect to on startup
	Camera int `yaml:"Camera"`

	// ConnectOnStart connects to the camera during startup, with a short
	// retry window for devices still booting
	ConnectOnStart bool `yaml:"ConnectOnStart"`

	// Recorder configures frame recording to disk
	Recorder RecorderSetup `yaml:"Recorder"`
}

// buildDriver returns the simulated camera when mocking, otherwise the
// vendor SDK binding.  Startup fails here when the SDK library is absent.
func buildDriver(c Config) (camera.Driver, error) {
	if c.Mock {
		return mvs.NewMock(), nil
	}
	return mvs.New()
}

// connectWithRetry tries the initial connect a few times with exponential
// backoff, for cameras still enumerating at boot.
func connectWithRetry(s *session.Session, index int) error {
	op := func() error {
		err := s.Connect(index)
		if err == nil {
			return nil
		}
		if camera.IsKind(err, camera.KindNotFound) || camera.IsKind(err, camera.KindDeviceBusy) {
			return err
		}
		return backoff.Permanent(err)
	}
	return backoff.Retry(op, &backoff.ExponentialBackOff{
		InitialInterval:     250 * time.Millisecond,
		RandomizationFactor: 0.,
		Multiplier:          2.,
		MaxInterval:         2 * time.Second,
		MaxElapsedTime:      10 * time.Second,
		Clock:               backoff.SystemClock})
}

// BuildMux assembles the root router: request logging, the lock
// middleware, and the camera routes mounted under the configured stem.
func BuildMux(c Config, s *session.Session) chi.Router {
	rec := &imgrec.Recorder{
		Root:    c.Recorder.Root,
		Prefix:  c.Recorder.Prefix,
		Enabled: c.Recorder.Enabled,
	}
	httper := camerahttp.NewHTTPCamera(s, rec)
	recWrap := imgrec.NewHTTPWrapper(rec)
	recWrap.Inject(httper)

	lock := locker.New()
	locker.Inject(httper, lock)

	// chi's Mount wants the bare stem and appends the wildcard itself;
	// the sanitized /stem/* form is only for display
	stem := generichttp.SubMuxSanitize(c.Endpoint)
	mount := strings.TrimSuffix(stem, "/*")
	supergraph := map[string][]string{stem: httper.RT().Endpoints()}

	root := chi.NewRouter()
	root.Use(middleware.Logger)

	r := chi.NewRouter()
	r.Use(lock.Check)
	httper.RT().Bind(r)
	root.Mount(mount, r)

	root.Get("/endpoints", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		err := json.NewEncoder(w).Encode(supergraph)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return root
}

// logEvents mirrors session state changes and faults into the server log.
func logEvents(s *session.Session) {
	for ev := range s.Events() {
		switch ev.Kind {
		case session.EventFatal:
			log.Printf("camera fault, acquisition stopped: %v", ev.Err)
		default:
			log.Printf("camera state: %s", ev.State)
		}
	}
}
