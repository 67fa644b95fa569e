//go:build purego || js

package pinkdots

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"
)

func readGray16(path string) (*RawBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	gray, ok := img.(*image.Gray16)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a single-channel 16-bit image", ErrUnsupportedInputFormat, path)
	}

	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	buf := NewRawBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.SetPixel(x, y, gray.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
		}
	}
	return buf, nil
}

func writeGray16(path string, buf *RawBuffer) error {
	w, h := buf.Width(), buf.Height()
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := buf.Pixel(x, y)
			off := img.PixOffset(x, y)
			img.Pix[off] = uint8(v >> 8)
			img.Pix[off+1] = uint8(v)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating image: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		return fmt.Errorf("encoding image: %w", err)
	}
	return f.Close()
}
