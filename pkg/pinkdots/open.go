package pinkdots

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Container formats understood by OpenSource.
const (
	FormatFITS     = "fits"
	FormatFITSCube = "fits-cube"
	FormatGray16   = "gray16"
)

// OpenedSource is an input file ready for a correction pass.
type OpenedSource struct {
	ImageSource
	Path   string
	Format string
	Width  int
	Height int
	// CameraHint is the camera model recorded in the file, if any.
	CameraHint string

	bitDepth int
	cards    []string
}

// OpenSource opens a FITS image or cube, or a 16-bit grayscale PNG/TIFF
// raw dump. Unknown extensions fail with ErrUnsupportedInputFormat; read
// and parse failures are reported as *SourceOpenError.
func OpenSource(path string) (*OpenedSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fits", ".fit", ".fts":
		img, err := ReadFits(path)
		if err != nil {
			if errors.Is(err, ErrUnsupportedInputFormat) {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			return nil, &SourceOpenError{Path: path, Err: err}
		}
		format := FormatFITS
		if img.IsSequence() {
			format = FormatFITSCube
		}
		return &OpenedSource{
			ImageSource: img,
			Path:        path,
			Format:      format,
			Width:       img.Width,
			Height:      img.Height,
			CameraHint:  img.Metadata.CameraName(),
			bitDepth:    img.BitDepth,
			cards:       img.Cards,
		}, nil

	case ".png", ".tif", ".tiff":
		buf, err := readGray16(path)
		if err != nil {
			if errors.Is(err, ErrUnsupportedInputFormat) {
				return nil, err
			}
			return nil, &SourceOpenError{Path: path, Err: err}
		}
		return &OpenedSource{
			ImageSource: NewSingleImageSource(buf),
			Path:        path,
			Format:      FormatGray16,
			Width:       buf.Width(),
			Height:      buf.Height(),
		}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInputFormat, path)
	}
}

// NewSink returns a sink that writes the corrected result to outPath in the
// same container format as the input.
func (o *OpenedSource) NewSink(outPath string) (ImageSink, error) {
	switch o.Format {
	case FormatFITS, FormatFITSCube:
		return NewFitsFileSink(outPath, o.Width, o.Height, o.FrameCount(), o.bitDepth, o.cards)
	case FormatGray16:
		return &gray16FileSink{path: outPath}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInputFormat, o.Format)
	}
}

// OutputPath is where the corrected copy of path is written: the same
// directory, with the base name prefixed by an underscore.
func OutputPath(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, "_"+base)
}

// gray16FileSink holds the single frame until Commit, then writes it to a
// temporary file and renames it into place.
type gray16FileSink struct {
	path  string
	frame *RawBuffer
	done  bool
}

func (s *gray16FileSink) WriteFrame(index int, buf *RawBuffer) error {
	if s.done {
		return fmt.Errorf("write to closed image sink")
	}
	if index != 0 || s.frame != nil {
		return fmt.Errorf("image sink takes a single frame, got frame %d", index)
	}
	s.frame = buf
	return nil
}

func (s *gray16FileSink) Commit() error {
	if s.done {
		return fmt.Errorf("image sink already closed")
	}
	s.done = true
	if s.frame == nil {
		return fmt.Errorf("no frame written")
	}
	dir, base := filepath.Split(s.path)
	ext := filepath.Ext(base)
	tmp := filepath.Join(dir, "."+strings.TrimSuffix(base, ext)+".tmp"+ext)
	if err := writeGray16(tmp, s.frame); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *gray16FileSink) Abort() error {
	s.done = true
	s.frame = nil
	return nil
}
