package pinkdots

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// fitsBZero maps uint16 onto FITS signed 16-bit storage.
const fitsBZero = 32768

// FitsSink writes corrected frames as an unsigned 16-bit or an 8-bit FITS
// image, or as a cube when it expects more than one frame.
type FitsSink struct {
	width, height, frames int
	bitDepth              int
	next                  int
	written               int64

	w      *bufio.Writer
	commit func() error
	abort  func() error
	closed bool
}

// NewFitsFileSink prepares a sink that writes to a temporary file next to
// path and renames it over path on Commit. Nothing appears at path unless
// every frame was written. bitDepth is 16 or 8, as in FitsImage.BitDepth.
func NewFitsFileSink(path string, width, height, frames, bitDepth int, cards []string) (*FitsSink, error) {
	if err := checkBitDepth(bitDepth); err != nil {
		return nil, err
	}
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}
	s := newFitsSink(tmp, width, height, frames, bitDepth)
	s.commit = func() error {
		if err := tmp.Close(); err != nil {
			os.Remove(tmp.Name())
			return err
		}
		return os.Rename(tmp.Name(), path)
	}
	s.abort = func() error {
		tmp.Close()
		return os.Remove(tmp.Name())
	}
	if err := s.writeHeader(cards); err != nil {
		s.Abort()
		return nil, err
	}
	return s, nil
}

// NewFitsBufferSink writes into buf. On Abort buf is reset.
func NewFitsBufferSink(buf *bytes.Buffer, width, height, frames, bitDepth int, cards []string) (*FitsSink, error) {
	if err := checkBitDepth(bitDepth); err != nil {
		return nil, err
	}
	s := newFitsSink(buf, width, height, frames, bitDepth)
	s.commit = func() error { return nil }
	s.abort = func() error {
		buf.Reset()
		return nil
	}
	if err := s.writeHeader(cards); err != nil {
		return nil, err
	}
	return s, nil
}

func checkBitDepth(bitDepth int) error {
	if bitDepth != 16 && bitDepth != 8 {
		return fmt.Errorf("FITS sink: unsupported bit depth %d", bitDepth)
	}
	return nil
}

func newFitsSink(w io.Writer, width, height, frames, bitDepth int) *FitsSink {
	return &FitsSink{
		width:    width,
		height:   height,
		frames:   frames,
		bitDepth: bitDepth,
		w:        bufio.NewWriter(w),
	}
}

func (s *FitsSink) writeHeader(cards []string) error {
	naxis := 2
	if s.frames > 1 {
		naxis = 3
	}
	header := []string{
		fitsCard("SIMPLE", "T"),
		fitsCard("BITPIX", fmt.Sprint(s.bitDepth)),
		fitsCard("NAXIS", fmt.Sprint(naxis)),
		fitsCard("NAXIS1", fmt.Sprint(s.width)),
		fitsCard("NAXIS2", fmt.Sprint(s.height)),
	}
	if naxis == 3 {
		header = append(header, fitsCard("NAXIS3", fmt.Sprint(s.frames)))
	}
	if s.bitDepth == 16 {
		header = append(header,
			fitsCard("BZERO", fmt.Sprint(fitsBZero)),
			fitsCard("BSCALE", "1"),
		)
	}
	for _, c := range cards {
		header = append(header, padCard(c))
	}
	header = append(header, padCard("END"))

	for _, c := range header {
		if err := s.put([]byte(c)); err != nil {
			return fmt.Errorf("writing FITS header: %w", err)
		}
	}
	return s.pad(' ')
}

// WriteFrame appends frame index. Frames must arrive in order. In an 8-bit
// sink values above 255 are clamped.
func (s *FitsSink) WriteFrame(index int, buf *RawBuffer) error {
	if s.closed {
		return fmt.Errorf("write to closed FITS sink")
	}
	if index != s.next || index >= s.frames {
		return fmt.Errorf("frame %d written out of order, expected %d of %d", index, s.next, s.frames)
	}
	if buf.Width() != s.width || buf.Height() != s.height {
		return fmt.Errorf("frame %d is %dx%d, sink expects %dx%d", index, buf.Width(), buf.Height(), s.width, s.height)
	}
	var b [2]byte
	for _, v := range buf.Pixels() {
		p := b[:]
		if s.bitDepth == 8 {
			p = b[:1]
			p[0] = byte(min(v, math.MaxUint8))
		} else {
			binary.BigEndian.PutUint16(p, v^0x8000)
		}
		if err := s.put(p); err != nil {
			return fmt.Errorf("writing frame %d: %w", index, err)
		}
	}
	s.next++
	return nil
}

func (s *FitsSink) Commit() error {
	if s.closed {
		return fmt.Errorf("FITS sink already closed")
	}
	if s.next != s.frames {
		return fmt.Errorf("only %d of %d frames written", s.next, s.frames)
	}
	s.closed = true
	if err := s.pad(0); err != nil {
		s.abort()
		return err
	}
	if err := s.w.Flush(); err != nil {
		s.abort()
		return fmt.Errorf("flushing FITS output: %w", err)
	}
	return s.commit()
}

func (s *FitsSink) Abort() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.abort()
}

func (s *FitsSink) put(p []byte) error {
	n, err := s.w.Write(p)
	s.written += int64(n)
	return err
}

// pad fills the current block up to the 2880-byte boundary.
func (s *FitsSink) pad(fill byte) error {
	rem := s.written % fitsBlockSize
	if rem == 0 {
		return nil
	}
	return s.put(bytes.Repeat([]byte{fill}, int(fitsBlockSize-rem)))
}

// fitsCard formats a fixed-format keyword card with the value
// right-justified in columns 11-30.
func fitsCard(keyword, value string) string {
	return padCard(fmt.Sprintf("%-8s= %20s", keyword, value))
}

func padCard(s string) string {
	if len(s) >= fitsCardSize {
		return s[:fitsCardSize]
	}
	return s + strings.Repeat(" ", fitsCardSize-len(s))
}

var _ ImageSink = (*FitsSink)(nil)
