package camera

import "image"

// clamp8 bounds a YUV conversion intermediate into one byte.
func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// ToImage converts a frame buffer into a stdlib image for encoding.
// Mono8 becomes a Gray image; the color formats become RGBA.  The buffer
// must be exactly Width*Height*BytesPerPixel long.
func (f *Frame) ToImage() (image.Image, error) {
	want := f.Width * f.Height * f.Format.BytesPerPixel()
	if len(f.Data) != want {
		return nil, Errf(KindInvalidParameter, "to-image",
			"buffer length %d, want %d for %s %dx%d", len(f.Data), want, f.Format, f.Width, f.Height)
	}
	switch f.Format {
	case Mono8:
		return &image.Gray{Pix: f.Data, Stride: f.Width, Rect: image.Rect(0, 0, f.Width, f.Height)}, nil
	case RGB8, BGR8:
		im := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
		ri, gi, bi := 0, 1, 2
		if f.Format == BGR8 {
			ri, bi = 2, 0
		}
		for p, o := 0, 0; p < len(f.Data); p, o = p+3, o+4 {
			im.Pix[o+0] = f.Data[p+ri]
			im.Pix[o+1] = f.Data[p+gi]
			im.Pix[o+2] = f.Data[p+bi]
			im.Pix[o+3] = 0xff
		}
		return im, nil
	case YUV422:
		// UYVY: two pixels share one U/V pair
		im := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
		o := 0
		for p := 0; p+3 < len(f.Data); p += 4 {
			u := int(f.Data[p+0]) - 128
			y0 := int(f.Data[p+1])
			v := int(f.Data[p+2]) - 128
			y1 := int(f.Data[p+3])
			for _, y := range [2]int{y0, y1} {
				im.Pix[o+0] = clamp8(y + (91881*v)>>16)
				im.Pix[o+1] = clamp8(y - ((22554*u + 46802*v) >> 16))
				im.Pix[o+2] = clamp8(y + (116130*u)>>16)
				im.Pix[o+3] = 0xff
				o += 4
			}
		}
		return im, nil
	}
	return nil, Errf(KindInvalidParameter, "to-image", "unsupported pixel format %s", f.Format)
}

// Gray8 flattens the frame to an 8-bit grayscale buffer, used for FITS
// output.  Mono8 data is returned as-is.
func (f *Frame) Gray8() ([]byte, error) {
	if f.Format == Mono8 {
		return f.Data, nil
	}
	im, err := f.ToImage()
	if err != nil {
		return nil, err
	}
	rgba := im.(*image.RGBA)
	out := make([]byte, f.Width*f.Height)
	for i := range out {
		r := int(rgba.Pix[i*4+0])
		g := int(rgba.Pix[i*4+1])
		b := int(rgba.Pix[i*4+2])
		// BT.601 luma weights
		out[i] = uint8((299*r + 587*g + 114*b) / 1000)
	}
	return out, nil
}
