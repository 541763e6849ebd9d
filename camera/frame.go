package camera

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PixelFormat is the layout of pixel data in a frame buffer.  The numeric
// values are the GenICam PFNC codes the vendor SDK speaks.
type PixelFormat uint32

const (
	// Mono8 is 8-bit grayscale, 1 byte per pixel
	Mono8 PixelFormat = 0x01080001

	// RGB8 is packed 8-bit RGB, 3 bytes per pixel
	RGB8 PixelFormat = 0x02180014

	// BGR8 is packed 8-bit BGR, 3 bytes per pixel
	BGR8 PixelFormat = 0x02180020

	// YUV422 is packed YUV 4:2:2 (UYVY), 2 bytes per pixel
	YUV422 PixelFormat = 0x02100032
)

// PixelFormats lists the formats this wrapper supports, in UI order.
var PixelFormats = []PixelFormat{Mono8, RGB8, BGR8, YUV422}

// BytesPerPixel is the packed size of one pixel in this format.
func (p PixelFormat) BytesPerPixel() int {
	switch p {
	case Mono8:
		return 1
	case YUV422:
		return 2
	case RGB8, BGR8:
		return 3
	}
	return 0
}

func (p PixelFormat) String() string {
	switch p {
	case Mono8:
		return "Mono8"
	case RGB8:
		return "RGB8"
	case BGR8:
		return "BGR8"
	case YUV422:
		return "YUV422"
	}
	return fmt.Sprintf("PixelFormat(0x%08x)", uint32(p))
}

// ParsePixelFormat converts a name as shown in String back to a format.
func ParsePixelFormat(s string) (PixelFormat, error) {
	switch s {
	case "Mono8":
		return Mono8, nil
	case "RGB8":
		return RGB8, nil
	case "BGR8":
		return BGR8, nil
	case "YUV422":
		return YUV422, nil
	}
	return 0, Errf(KindInvalidParameter, "parse-pixel-format", "unknown pixel format %q", s)
}

// Frame is one image pulled from the camera.  It is produced by the
// acquisition loop, handed to at most one consumer, and never retained
// across iterations.  Data must not be mutated after publication.
type Frame struct {
	// Data is the packed pixel buffer; len(Data) == Width*Height*BytesPerPixel
	Data []byte

	// Width in pixels
	Width int

	// Height in pixels
	Height int

	// Format is the pixel layout of Data
	Format PixelFormat

	// Timestamp is when the frame was pulled from the SDK
	Timestamp time.Time

	// Seq is a per-acquisition monotonic sequence number
	Seq uint64

	// TraceID uniquely identifies the frame for log correlation
	TraceID string
}

// Resolution is a width x height pair.
type Resolution struct {
	// Width in pixels, 1-4096
	Width int `json:"width"`

	// Height in pixels, 1-4096
	Height int `json:"height"`
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// ParseResolution converts a "WxH" string into a Resolution.
func ParseResolution(s string) (Resolution, error) {
	chunks := strings.Split(s, "x")
	if len(chunks) != 2 {
		return Resolution{}, Errf(KindInvalidParameter, "parse-resolution", "want WxH, got %q", s)
	}
	w, err := strconv.Atoi(chunks[0])
	if err != nil {
		return Resolution{}, Errf(KindInvalidParameter, "parse-resolution", "bad width in %q", s)
	}
	h, err := strconv.Atoi(chunks[1])
	if err != nil {
		return Resolution{}, Errf(KindInvalidParameter, "parse-resolution", "bad height in %q", s)
	}
	return Resolution{Width: w, Height: h}, nil
}
