package pinkdots

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	fitsBlockSize  = 2880
	fitsCardSize   = 80
	fitsCardsBlock = fitsBlockSize / fitsCardSize
)

// FitsMetadata holds parsed FITS header key-value pairs.
type FitsMetadata struct {
	Headers map[string]string
}

// NewFitsMetadata creates an empty FitsMetadata.
func NewFitsMetadata() *FitsMetadata {
	return &FitsMetadata{Headers: make(map[string]string)}
}

func (m *FitsMetadata) GetString(key string) string {
	if v, ok := m.Headers[strings.ToUpper(key)]; ok {
		return v
	}
	return ""
}

func (m *FitsMetadata) GetInt(key string) (int, bool) {
	v, ok := m.Headers[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return i, true
}

func (m *FitsMetadata) GetDouble(key string) (float64, bool) {
	v, ok := m.Headers[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return d, true
}

// CameraName is the INSTRUME header, which raw converters fill with the
// camera model.
func (m *FitsMetadata) CameraName() string { return m.GetString("INSTRUME") }

// FitsImage is a 2-D FITS image or a 3-D FITS cube. A cube is read as a
// frame sequence with NAXIS3 frames.
type FitsImage struct {
	Width  int
	Height int
	// BitDepth is 16 for unsigned 16-bit data (BITPIX=16, BZERO=32768) or 8
	// for BITPIX=8. A FitsSink with the same depth reproduces the stored
	// values exactly.
	BitDepth int
	Metadata *FitsMetadata
	// Cards are the raw 80-column header cards that are not structural
	// keywords, in file order. They are written back unchanged.
	Cards []string

	frames [][]uint16
}

func (f *FitsImage) FrameCount() int { return len(f.frames) }

func (f *FitsImage) Frame(i int) (PixelBuffer, error) {
	if i < 0 || i >= len(f.frames) {
		return nil, fmt.Errorf("frame %d out of range [0,%d)", i, len(f.frames))
	}
	return WrapPixels(f.frames[i], f.Width, f.Height)
}

// IsSequence reports whether the file is a cube.
func (f *FitsImage) IsSequence() bool { return len(f.frames) > 1 }

// ReadFits reads FITS headers and pixel data from a file.
func ReadFits(filePath string) (*FitsImage, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening FITS file: %w", err)
	}
	defer f.Close()
	return readFitsFromReader(f)
}

// ReadFitsFromBytes reads FITS headers and pixel data from a byte slice.
func ReadFitsFromBytes(data []byte) (*FitsImage, error) {
	return readFitsFromReader(bytes.NewReader(data))
}

// structuralKeyword reports whether the FITS writer regenerates keyword.
func structuralKeyword(keyword string) bool {
	switch keyword {
	case "SIMPLE", "BITPIX", "NAXIS", "BZERO", "BSCALE", "EXTEND", "END":
		return true
	}
	return strings.HasPrefix(keyword, "NAXIS")
}

// storedBitDepth accepts the integer layouts whose values map onto uint16
// and back without loss. Signed, scaled and floating-point data is
// rejected instead of being rescaled.
func storedBitDepth(m *FitsMetadata) (int, error) {
	bitpix, _ := m.GetInt("BITPIX")
	bzero, _ := m.GetDouble("BZERO")
	bscale, ok := m.GetDouble("BSCALE")
	if !ok {
		bscale = 1
	}
	switch {
	case bitpix == 16 && bzero == fitsBZero && bscale == 1:
		return 16, nil
	case bitpix == 8 && bzero == 0 && bscale == 1:
		return 8, nil
	}
	return 0, fmt.Errorf("%w: FITS BITPIX=%d BZERO=%g BSCALE=%g, want unsigned 16-bit or 8-bit integers",
		ErrUnsupportedInputFormat, bitpix, bzero, bscale)
}

func readFitsFromReader(r io.Reader) (*FitsImage, error) {
	headerDone := false
	metadata := NewFitsMetadata()
	var cards []string

	recordBuf := make([]byte, fitsCardSize)
	first := true

	for !headerDone {
		for i := 0; i < fitsCardsBlock; i++ {
			_, err := io.ReadFull(r, recordBuf)
			if err != nil {
				if first {
					return nil, fmt.Errorf("%w: not a FITS file", ErrUnsupportedInputFormat)
				}
				return nil, fmt.Errorf("reading FITS header record: %w", err)
			}
			record := string(recordBuf)
			keyword := strings.TrimSpace(record[:8])

			if first {
				first = false
				if keyword != "SIMPLE" {
					return nil, fmt.Errorf("%w: not a FITS file", ErrUnsupportedInputFormat)
				}
			}

			if keyword == "END" {
				headerDone = true
				remaining := fitsCardsBlock - 1 - i
				if remaining > 0 {
					skipBuf := make([]byte, remaining*fitsCardSize)
					if _, err := io.ReadFull(r, skipBuf); err != nil {
						return nil, fmt.Errorf("reading FITS header padding: %w", err)
					}
				}
				break
			}

			if !structuralKeyword(keyword) && strings.TrimSpace(record) != "" {
				cards = append(cards, record)
			}

			if len(record) > 10 && record[8] == '=' && record[9] == ' ' {
				rawValue := strings.TrimSpace(strings.SplitN(record[10:], "/", 2)[0])
				parsedValue := parseFitsValue(rawValue)

				if keyword != "" && parsedValue != "" {
					metadata.Headers[strings.ToUpper(keyword)] = parsedValue
				}
			}
		}
	}

	naxis, _ := metadata.GetInt("NAXIS")
	width, _ := metadata.GetInt("NAXIS1")
	height, _ := metadata.GetInt("NAXIS2")
	depth := 1
	if naxis == 3 {
		depth, _ = metadata.GetInt("NAXIS3")
	}
	if naxis < 2 || naxis > 3 || width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("%w: FITS NAXIS=%d, NAXIS1=%d, NAXIS2=%d, NAXIS3=%d",
			ErrUnsupportedInputFormat, naxis, width, height, depth)
	}

	bitDepth, err := storedBitDepth(metadata)
	if err != nil {
		return nil, err
	}

	framePixels := width * height
	numPixels := framePixels * depth
	pixels := make([]uint16, numPixels)

	switch bitDepth {
	case 16:
		rawBytes := make([]byte, numPixels*2)
		if _, err := io.ReadFull(r, rawBytes); err != nil {
			return nil, fmt.Errorf("reading 16-bit pixel data: %w", err)
		}
		for i := 0; i < numPixels; i++ {
			// Stored value + 32768, i.e. the sign bit flipped.
			pixels[i] = binary.BigEndian.Uint16(rawBytes[i*2:]) ^ 0x8000
		}

	case 8:
		rawBytes := make([]byte, numPixels)
		if _, err := io.ReadFull(r, rawBytes); err != nil {
			return nil, fmt.Errorf("reading 8-bit pixel data: %w", err)
		}
		for i, b := range rawBytes {
			pixels[i] = uint16(b)
		}
	}

	frames := make([][]uint16, depth)
	for i := range frames {
		frames[i] = pixels[i*framePixels : (i+1)*framePixels : (i+1)*framePixels]
	}

	return &FitsImage{
		Width:    width,
		Height:   height,
		BitDepth: bitDepth,
		Metadata: metadata,
		Cards:    cards,
		frames:   frames,
	}, nil
}

func parseFitsValue(rawValue string) string {
	if rawValue == "" {
		return ""
	}
	if rawValue == "T" {
		return "True"
	}
	if rawValue == "F" {
		return "False"
	}
	if strings.HasPrefix(rawValue, "'") {
		endQuote := strings.LastIndex(rawValue, "'")
		if endQuote > 0 {
			return strings.TrimRight(rawValue[1:endQuote], " ")
		}
		return strings.TrimLeft(strings.TrimRight(rawValue, " "), "'")
	}
	return rawValue
}
