//go:build !purego && !js

package pinkdots

import (
	"encoding/binary"
	"fmt"

	"gocv.io/x/gocv"
)

// readGray16 loads a single-channel 16-bit raw dump (PNG or TIFF) through
// OpenCV.
func readGray16(path string) (*RawBuffer, error) {
	src := gocv.IMRead(path, gocv.IMReadUnchanged)
	if src.Empty() {
		return nil, fmt.Errorf("could not load image: %s", path)
	}
	defer src.Close()

	if src.Type() != gocv.MatTypeCV16UC1 {
		return nil, fmt.Errorf("%w: %s is not a single-channel 16-bit image", ErrUnsupportedInputFormat, path)
	}

	w, h := src.Cols(), src.Rows()
	data, err := src.DataPtrUint16()
	if err != nil {
		return nil, fmt.Errorf("reading pixel data: %w", err)
	}
	pixels := make([]uint16, w*h)
	copy(pixels, data[:w*h])
	return WrapPixels(pixels, w, h)
}

func writeGray16(path string, buf *RawBuffer) error {
	raw := make([]byte, len(buf.Pixels())*2)
	for i, v := range buf.Pixels() {
		binary.LittleEndian.PutUint16(raw[i*2:], v)
	}
	mat, err := gocv.NewMatFromBytes(buf.Height(), buf.Width(), gocv.MatTypeCV16UC1, raw)
	if err != nil {
		return fmt.Errorf("building output mat: %w", err)
	}
	defer mat.Close()

	if !gocv.IMWrite(path, mat) {
		return fmt.Errorf("could not write image: %s", path)
	}
	return nil
}
