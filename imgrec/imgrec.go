// Package imgrec contains an image recorder used to automatically save
// served frames to disk.
package imgrec

import (
	"encoding/json"
	"fmt"
	"go/types"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/satishgsonwane/weldcam/server"
	"goji.io/pat"
)

// Recorder records image sequences with incrementing filenames in
// yyyy-mm-dd subfolders.  It is not thread safe; the image route serializes
// access to it.
type Recorder struct {
	// counter is the internally incrementing counter
	counter int

	// Root is the root path
	Root string

	// Prefix is the prefix for the filenames
	Prefix string

	// Ext is the extension of the file being recorded, without the dot.
	// The image route sets it to match the format it serves.
	Ext string

	// timeFldr is the subfolder with yyyy-mm-dd format
	timeFldr string

	// Enabled allows consumers to skip the recorder without nil checks
	Enabled bool
}

// updateFolder sets the dated subfolder from the current day.
func (r *Recorder) updateFolder() {
	now := time.Now()
	r.timeFldr = fmt.Sprintf("%04d-%02d-%02d", now.Year(), now.Month(), now.Day())
}

// mkDir makes the dated folder and returns it.
func (r *Recorder) mkDir() (string, error) {
	fldr := path.Join(r.Root, r.timeFldr)
	err := os.MkdirAll(fldr, 0777)
	return fldr, err
}

func (r *Recorder) ext() string {
	if r.Ext == "" {
		return "fits"
	}
	return r.Ext
}

// Write implements io.Writer; chunks of one encoded image append to the
// current counter's file.  Call Incr when the image is complete.
func (r *Recorder) Write(p []byte) (n int, err error) {
	r.updateFolder()
	fldr, err := r.mkDir()
	if err != nil {
		return 0, err
	}

	fn := fmt.Sprintf("%s%06d.%s", r.Prefix, r.counter, r.ext())
	fn = path.Join(fldr, fn)
	fid, err := os.OpenFile(fn, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0666)
	if err != nil {
		return 0, err
	}
	defer fid.Close()
	return fid.Write(p)
}

// Incr advances the filename counter past the highest index already on
// disk.  On error the counter is left alone.
func (r *Recorder) Incr() {
	dn, _ := r.mkDir()
	files, err := os.ReadDir(dn)
	if err != nil {
		return
	}
	suffix := "." + r.ext()
	count := 0
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		fn := file.Name()
		if !strings.HasSuffix(fn, suffix) || !strings.HasPrefix(fn, r.Prefix) {
			continue
		}
		bit := strings.TrimPrefix(fn, r.Prefix)
		bit = strings.TrimSuffix(bit, suffix)
		n, err := strconv.Atoi(bit)
		if err != nil {
			return
		}
		if count < n {
			count = n
		}
	}
	r.counter = count + 1
}

// HTTPWrapper exposes the recorder's folder, prefix and enablement over
// HTTP.  It does not implement server.HTTPer on its own; Inject adds its
// routes to another wrapper's table.
type HTTPWrapper struct {
	*Recorder
}

// NewHTTPWrapper returns an HTTP wrapper around a recorder
func NewHTTPWrapper(r *Recorder) HTTPWrapper {
	return HTTPWrapper{r}
}

// SetRoot updates the root folder of the recorder
func (h HTTPWrapper) SetRoot(w http.ResponseWriter, r *http.Request) {
	str := server.StrT{}
	err := json.NewDecoder(r.Body).Decode(&str)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rec := h.Recorder
	rec.Root = str.Str
	rec.updateFolder()
	if _, err = rec.mkDir(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetRoot gets the recorder's root folder and sends it back as JSON
func (h HTTPWrapper) GetRoot(w http.ResponseWriter, r *http.Request) {
	hp := server.HumanPayload{T: types.String, String: h.Recorder.Root}
	hp.EncodeAndRespond(w, r)
}

// SetPrefix updates the filename prefix of the recorder and resets the
// counter
func (h HTTPWrapper) SetPrefix(w http.ResponseWriter, r *http.Request) {
	str := server.StrT{}
	err := json.NewDecoder(r.Body).Decode(&str)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.Recorder.Prefix = str.Str
	h.Recorder.counter = 0
	w.WriteHeader(http.StatusOK)
}

// GetPrefix gets the recorder's prefix and sends it back as JSON
func (h HTTPWrapper) GetPrefix(w http.ResponseWriter, r *http.Request) {
	hp := server.HumanPayload{T: types.String, String: h.Recorder.Prefix}
	hp.EncodeAndRespond(w, r)
}

// SetEnabled sets the recorder's Enabled field
func (h HTTPWrapper) SetEnabled(w http.ResponseWriter, r *http.Request) {
	bT := server.BoolT{}
	err := json.NewDecoder(r.Body).Decode(&bT)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.Recorder.Enabled = bT.Bool
	w.WriteHeader(http.StatusOK)
}

// GetEnabled returns the Recorder's Enabled field
func (h HTTPWrapper) GetEnabled(w http.ResponseWriter, r *http.Request) {
	hp := server.HumanPayload{T: types.Bool, Bool: h.Recorder.Enabled}
	hp.EncodeAndRespond(w, r)
}

// Inject adds the /autowrite manipulation routes to another wrapper's
// route table.
func (h HTTPWrapper) Inject(other server.HTTPer) {
	rt := other.RT()
	rt[pat.Post("/autowrite/root")] = h.SetRoot
	rt[pat.Get("/autowrite/root")] = h.GetRoot
	rt[pat.Post("/autowrite/prefix")] = h.SetPrefix
	rt[pat.Get("/autowrite/prefix")] = h.GetPrefix
	rt[pat.Post("/autowrite/enabled")] = h.SetEnabled
	rt[pat.Get("/autowrite/enabled")] = h.GetEnabled
}
