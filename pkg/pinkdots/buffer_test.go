package pinkdots

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// gradientBuffer fills a w x h buffer with base + 3x + 5y.
func gradientBuffer(w, h int, base uint16) *RawBuffer {
	b := NewRawBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b.SetPixel(x, y, base+uint16(3*x+5*y))
		}
	}
	return b
}

func flatBuffer(w, h int, v uint16) *RawBuffer {
	b := NewRawBuffer(w, h)
	for i := range b.Pixels() {
		b.Pixels()[i] = v
	}
	return b
}

// funcBuffer is a PixelBuffer that is not a RawBuffer.
type funcBuffer struct {
	w, h int
	f    func(x, y int) uint16
}

func (b funcBuffer) Width() int            { return b.w }
func (b funcBuffer) Height() int           { return b.h }
func (b funcBuffer) Pixel(x, y int) uint16 { return b.f(x, y) }

func TestRawBuffer_SetAndGet(t *testing.T) {
	b := NewRawBuffer(4, 3)
	require.Equal(t, 4, b.Width())
	require.Equal(t, 3, b.Height())

	b.SetPixel(3, 2, 1234)
	require.Equal(t, uint16(1234), b.Pixel(3, 2))
	require.Equal(t, uint16(1234), b.Pixels()[2*4+3])
}

func TestRawBuffer_OutOfBoundsPanics(t *testing.T) {
	b := NewRawBuffer(4, 3)
	require.Panics(t, func() { b.Pixel(4, 0) })
	require.Panics(t, func() { b.Pixel(0, 3) })
	require.Panics(t, func() { b.Pixel(-1, 0) })
	require.Panics(t, func() { b.SetPixel(0, -1, 1) })
	require.False(t, b.Contains(4, 0))
	require.True(t, b.Contains(3, 2))
}

func TestRawBuffer_CloneIsIndependent(t *testing.T) {
	src := gradientBuffer(8, 8, 100)
	dst := src.Clone()
	dst.SetPixel(2, 2, 0)
	require.Equal(t, uint16(100+6+10), src.Pixel(2, 2))
	require.Equal(t, uint16(0), dst.Pixel(2, 2))
}

func TestWrapPixels_ValidatesSize(t *testing.T) {
	_, err := WrapPixels(make([]uint16, 5), 2, 3)
	require.Error(t, err)

	_, err = WrapPixels(nil, 0, 3)
	require.Error(t, err)

	b, err := WrapPixels([]uint16{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	require.Equal(t, uint16(6), b.Pixel(1, 2))
}

func TestCopyBuffer_FromForeignBuffer(t *testing.T) {
	src := funcBuffer{w: 5, h: 4, f: func(x, y int) uint16 { return uint16(10*y + x) }}
	dst := CopyBuffer(src)
	require.Equal(t, 5, dst.Width())
	require.Equal(t, 4, dst.Height())
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			require.Equal(t, src.Pixel(x, y), dst.Pixel(x, y))
		}
	}
}
