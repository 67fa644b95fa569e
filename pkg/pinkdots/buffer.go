package pinkdots

import "fmt"

// PixelBuffer is read access to a single-channel CFA mosaic.
type PixelBuffer interface {
	Width() int
	Height() int
	// Pixel is defined only for 0 <= x < Width() and 0 <= y < Height().
	Pixel(x, y int) uint16
}

// RawBuffer is a row-major uint16 sensor grid.
type RawBuffer struct {
	pixels []uint16
	width  int
	height int
}

// NewRawBuffer allocates a zeroed width x height grid.
func NewRawBuffer(width, height int) *RawBuffer {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("pinkdots: invalid buffer size %dx%d", width, height))
	}
	return &RawBuffer{
		pixels: make([]uint16, width*height),
		width:  width,
		height: height,
	}
}

// WrapPixels uses pixels as the backing store of a width x height grid
// without copying.
func WrapPixels(pixels []uint16, width, height int) (*RawBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid buffer size %dx%d", width, height)
	}
	if len(pixels) != width*height {
		return nil, fmt.Errorf("pixel count %d does not match %dx%d", len(pixels), width, height)
	}
	return &RawBuffer{pixels: pixels, width: width, height: height}, nil
}

// CopyBuffer returns an independent RawBuffer with the content of src.
func CopyBuffer(src PixelBuffer) *RawBuffer {
	if rb, ok := src.(*RawBuffer); ok {
		return rb.Clone()
	}
	dst := NewRawBuffer(src.Width(), src.Height())
	for y := 0; y < dst.height; y++ {
		row := dst.pixels[y*dst.width:]
		for x := 0; x < dst.width; x++ {
			row[x] = src.Pixel(x, y)
		}
	}
	return dst
}

func (b *RawBuffer) Width() int  { return b.width }
func (b *RawBuffer) Height() int { return b.height }

// Pixels returns the backing slice.
func (b *RawBuffer) Pixels() []uint16 { return b.pixels }

func (b *RawBuffer) Pixel(x, y int) uint16 {
	b.checkBounds(x, y)
	return b.pixels[y*b.width+x]
}

func (b *RawBuffer) SetPixel(x, y int, v uint16) {
	b.checkBounds(x, y)
	b.pixels[y*b.width+x] = v
}

// Contains reports whether (x, y) lies inside the grid.
func (b *RawBuffer) Contains(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

func (b *RawBuffer) Clone() *RawBuffer {
	pixels := make([]uint16, len(b.pixels))
	copy(pixels, b.pixels)
	return &RawBuffer{pixels: pixels, width: b.width, height: b.height}
}

func (b *RawBuffer) checkBounds(x, y int) {
	if !b.Contains(x, y) {
		panic(fmt.Sprintf("pinkdots: pixel (%d,%d) outside %dx%d buffer", x, y, b.width, b.height))
	}
}
