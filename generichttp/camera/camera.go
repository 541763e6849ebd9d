// Package camera exposes a camera session over HTTP.
package camera

import (
	"bytes"
	"context"
	"encoding/json"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"time"

	"github.com/astrogo/fitsio"
	"github.com/gorilla/websocket"
	"github.com/satishgsonwane/weldcam/camera"
	"github.com/satishgsonwane/weldcam/generichttp"
	"github.com/satishgsonwane/weldcam/imgrec"
	"github.com/satishgsonwane/weldcam/server"
	"github.com/satishgsonwane/weldcam/session"
	"github.com/satishgsonwane/weldcam/util"
	"goji.io/pat"
)

// frameWait bounds how long GET /image waits on the mailbox while the
// loop is running.  Long enough for a triggered camera at a slow rate.
const frameWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HTTPCamera wraps a session in an HTTP route table.
type HTTPCamera struct {
	sess *session.Session

	rec *imgrec.Recorder

	route server.RouteTable
}

// NewHTTPCamera binds a session and an optional recorder into an HTTP
// wrapper.  rec may be nil.
func NewHTTPCamera(s *session.Session, rec *imgrec.Recorder) HTTPCamera {
	h := HTTPCamera{sess: s, rec: rec}
	rt := server.RouteTable{}

	rt[pat.Get("/devices")] = h.Devices
	rt[pat.Post("/connect")] = generichttp.SetInt(s.Connect)
	rt[pat.Post("/disconnect")] = generichttp.Do(s.Disconnect)
	rt[pat.Get("/state")] = generichttp.GetString(func() (string, error) {
		return string(s.State()), nil
	})

	rt[pat.Post("/acquisition/start")] = generichttp.Do(s.StartAcquisition)
	rt[pat.Post("/acquisition/stop")] = generichttp.Do(s.StopAcquisition)

	rt[pat.Get("/exposure-time")] = generichttp.GetFloat(s.GetExposure)
	rt[pat.Post("/exposure-time")] = generichttp.SetFloat(s.SetExposure)
	rt[pat.Get("/gain")] = generichttp.GetFloat(s.GetGain)
	rt[pat.Post("/gain")] = generichttp.SetFloat(s.SetGain)
	rt[pat.Get("/frame-rate")] = generichttp.GetFloat(s.GetFrameRate)
	rt[pat.Post("/frame-rate")] = generichttp.SetFloat(s.SetFrameRate)

	rt[pat.Get("/auto-exposure")] = generichttp.GetBool(func() (bool, error) {
		return s.Params().AutoExposure, nil
	})
	rt[pat.Post("/auto-exposure")] = generichttp.SetBool(s.SetAutoExposure)
	rt[pat.Get("/auto-gain")] = generichttp.GetBool(func() (bool, error) {
		return s.Params().AutoGain, nil
	})
	rt[pat.Post("/auto-gain")] = generichttp.SetBool(s.SetAutoGain)

	rt[pat.Get("/pixel-format")] = generichttp.GetString(func() (string, error) {
		pf, err := s.GetPixelFormat()
		return pf.String(), err
	})
	rt[pat.Post("/pixel-format")] = generichttp.SetString(func(str string) error {
		pf, err := camera.ParsePixelFormat(str)
		if err != nil {
			return err
		}
		return s.SetPixelFormat(pf)
	})

	rt[pat.Get("/resolution")] = h.GetResolution
	rt[pat.Post("/resolution")] = h.SetResolution

	rt[pat.Get("/trigger-mode")] = generichttp.GetString(func() (string, error) {
		m, err := s.GetTrigger()
		return string(m), err
	})
	rt[pat.Post("/trigger-mode")] = generichttp.SetString(func(str string) error {
		m, err := camera.ParseTriggerMode(str)
		if err != nil {
			return err
		}
		return s.SetTrigger(m)
	})
	rt[pat.Post("/trigger")] = generichttp.Do(s.Trigger)

	rt[pat.Get("/params")] = h.GetParams
	rt[pat.Post("/features/save")] = generichttp.SetString(s.SaveFeatures)
	rt[pat.Post("/features/load")] = generichttp.SetString(s.LoadFeatures)

	rt[pat.Get("/image")] = h.GetFrame
	rt[pat.Get("/stream")] = h.Stream

	h.route = rt
	return h
}

// RT satisfies server.HTTPer
func (h HTTPCamera) RT() server.RouteTable {
	return h.route
}

// Devices re-enumerates the attached cameras and returns the list as JSON
func (h HTTPCamera) Devices(w http.ResponseWriter, r *http.Request) {
	devs, err := h.sess.Devices()
	if err != nil {
		generichttp.Error(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(devs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GetParams returns the full parameter snapshot as JSON
func (h HTTPCamera) GetParams(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(h.sess.Params())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GetResolution returns the frame size as JSON
func (h HTTPCamera) GetResolution(w http.ResponseWriter, r *http.Request) {
	res, err := h.sess.GetResolution()
	if err != nil {
		generichttp.Error(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(res)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// SetResolution updates the frame size from a JSON body
func (h HTTPCamera) SetResolution(w http.ResponseWriter, r *http.Request) {
	res := camera.Resolution{}
	err := json.NewDecoder(r.Body).Decode(&res)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err = h.sess.SetResolution(res)
	if err != nil {
		generichttp.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// frame fetches one frame appropriately for the current state: from the
// mailbox while the loop runs, via a one-shot grab otherwise.
func (h HTTPCamera) frame(r *http.Request) (*camera.Frame, error) {
	if h.sess.State() != session.Acquiring {
		return h.sess.Snap()
	}
	ctx, cancel := context.WithTimeout(r.Context(), frameWait)
	defer cancel()
	f, err := h.sess.Frames().Next(ctx)
	if err != nil {
		return nil, camera.Errf(camera.KindTimeout, "get-frame", "no frame within %s", frameWait)
	}
	if f == nil {
		return nil, camera.Errf(camera.KindInvalidState, "get-frame", "session closed")
	}
	return f, nil
}

// tee returns the response writer, wrapped with the recorder when one is
// enabled.  done must be called after a complete image is written.
func (h HTTPCamera) tee(w io.Writer, ext string) (w2 io.Writer, done func()) {
	rec := h.rec
	if rec == nil || !rec.Enabled || rec.Root == "" {
		return w, func() {}
	}
	rec.Ext = ext
	return io.MultiWriter(w, rec), rec.Incr
}

// GetFrame returns one frame on a GET request.  The image format may be
// given in the fmt query parameter as png, jpg, or fits; default jpg.
// The exposure time may be given in the exposureTime query parameter in
// any time-looking format, such as "25ms" or "10us"; bare numbers read as
// microseconds.  When the recorder is enabled the encoded image is also
// written to disk.
func (h HTTPCamera) GetFrame(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	texp := q.Get("exposureTime")
	if texp != "" {
		if util.AllElementsNumbers(texp) {
			texp = texp + "us"
		}
		d, err := time.ParseDuration(texp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		err = h.sess.SetExposure(float64(d) / float64(time.Microsecond))
		if err != nil {
			generichttp.Error(w, err)
			return
		}
	}
	f, err := h.frame(r)
	if err != nil {
		generichttp.Error(w, err)
		return
	}

	format := q.Get("fmt")
	if format == "" {
		format = "jpg"
	}
	switch format {
	case "jpg":
		im, err := f.ToImage()
		if err != nil {
			generichttp.Error(w, err)
			return
		}
		w2, done := h.tee(w, "jpg")
		defer done()
		w.Header().Set("Content-Type", "image/jpeg")
		w.WriteHeader(http.StatusOK)
		jpeg.Encode(w2, im, nil)
	case "png":
		im, err := f.ToImage()
		if err != nil {
			generichttp.Error(w, err)
			return
		}
		w2, done := h.tee(w, "png")
		defer done()
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		png.Encode(w2, im)
	case "fits":
		gray, err := f.Gray8()
		if err != nil {
			generichttp.Error(w, err)
			return
		}
		w2, done := h.tee(w, "fits")
		defer done()
		hdr := w.Header()
		hdr.Set("Content-Type", "image/fits")
		hdr.Set("Content-Disposition", "attachment; filename=image.fits")
		err = writeFits(w2, h.headerCards(f), gray, f.Width, f.Height)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	default:
		http.Error(w, "fmt must be jpg, png, or fits", http.StatusBadRequest)
	}
}

// headerCards collects acquisition metadata for a FITS header.
func (h HTTPCamera) headerCards(f *camera.Frame) []fitsio.Card {
	p := h.sess.Params()
	return []fitsio.Card{
		{Name: "EXPTIME", Value: p.ExposureUs / 1e6, Comment: "exposure time, seconds"},
		{Name: "GAIN", Value: p.GainDb, Comment: "analog gain, dB"},
		{Name: "FPS", Value: p.FrameRate, Comment: "frame rate"},
		{Name: "PIXFMT", Value: p.Format.String(), Comment: "pixel format"},
		{Name: "TRIGGER", Value: string(p.Trigger), Comment: "trigger mode"},
		{Name: "FRAMESEQ", Value: int(f.Seq), Comment: "sequence number"},
		{Name: "TRACEID", Value: f.TraceID, Comment: "frame trace id"},
		{Name: "DATE-OBS", Value: f.Timestamp.UTC().Format(time.RFC3339Nano), Comment: "frame timestamp"},
	}
}

// Stream feeds JPEG frames over a websocket for as long as the client
// stays connected.  Frames the client is too slow for are dropped by the
// mailbox, not queued.
func (h HTTPCamera) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	box := h.sess.Frames()
	ctx := r.Context()
	for {
		f, err := box.Next(ctx)
		if err != nil || f == nil {
			return
		}
		im, err := f.ToImage()
		if err != nil {
			return
		}
		buf := bytes.Buffer{}
		if err = jpeg.Encode(&buf, im, nil); err != nil {
			return
		}
		if err = conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
			return
		}
	}
}
