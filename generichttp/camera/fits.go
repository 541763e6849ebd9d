package camera

import (
	"io"

	"github.com/astrogo/fitsio"
)

// writeFits streams one frame to w as a 16-bit FITS file.  The 8-bit
// pixel data is scaled to fill the 16-bit range, stored with the
// conventional BZERO offset for unsigned data.
func writeFits(w io.Writer, metadata []fitsio.Card, gray []byte, width, height int) error {
	metadata = append(metadata,
		fitsio.Card{Name: "BZERO", Value: 32768},
		fitsio.Card{Name: "BSCALE", Value: 1.0})
	fits, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer fits.Close()
	im := fitsio.NewImage(16, []int{width, height})
	defer im.Close()
	err = im.Header().Append(metadata...)
	if err != nil {
		return err
	}
	ints := make([]int16, len(gray))
	for idx := 0; idx < len(gray); idx++ {
		u := uint16(gray[idx]) << 8
		ints[idx] = int16(int(u) - 32768)
	}
	err = im.Write(ints)
	if err != nil {
		return err
	}
	return fits.Write(im)
}
