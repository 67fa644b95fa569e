package pinkdots

import (
	"errors"
	"fmt"
	"strings"
)

// BadPixelValue is written to defect sites in mark-bad mode. Downstream
// demosaicing treats zero-valued photosites as missing data.
const BadPixelValue uint16 = 0

var (
	// ErrUnknownDefectPattern means no dot map is registered for the
	// camera type and resolution of the input.
	ErrUnknownDefectPattern = errors.New("unknown defect pattern")
	// ErrUnsupportedInputFormat means the input is neither a single-image
	// nor a frame-sequence container this package can read.
	ErrUnsupportedInputFormat = errors.New("unsupported input format")
	// ErrFrameSizeMismatch means a frame of a sequence does not share the
	// dimensions of frame 0.
	ErrFrameSizeMismatch = errors.New("frame size mismatch")
)

// SourceOpenError reports a failure of the container layer to open or parse
// an input. The underlying cause is kept for diagnostics.
type SourceOpenError struct {
	Path string
	Err  error
}

func (e *SourceOpenError) Error() string {
	return fmt.Sprintf("opening %s: %v", e.Path, e.Err)
}

func (e *SourceOpenError) Unwrap() error { return e.Err }

// DefectSite is one pixel coordinate, in the uncropped sensor grid, that
// needs correcting.
type DefectSite struct {
	X, Y int
}

func (s DefectSite) String() string {
	return fmt.Sprintf("(%d,%d)", s.X, s.Y)
}

// CorrectionMode selects the strategy applied to every site of a pass.
type CorrectionMode int

const (
	ModeInterpolate CorrectionMode = iota
	ModeMarkBad
)

func (m CorrectionMode) String() string {
	switch m {
	case ModeInterpolate:
		return "interpolate"
	case ModeMarkBad:
		return "mark-bad"
	default:
		return "unknown"
	}
}

// ParseCorrectionMode accepts the names used on the command line and in the
// environment.
func ParseCorrectionMode(s string) (CorrectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "interpolate", "fix":
		return ModeInterpolate, nil
	case "bad", "mark-bad", "markbad":
		return ModeMarkBad, nil
	default:
		return 0, fmt.Errorf("unknown correction mode %q (want interpolate or mark-bad)", s)
	}
}
