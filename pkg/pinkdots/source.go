package pinkdots

import (
	"fmt"
	"sync"
)

// ImageSource is an ordered, finite, restartable set of frames. A single
// image is a source with one frame.
type ImageSource interface {
	FrameCount() int
	// Frame returns the read-only source buffer of frame i. It may be
	// called more than once for the same index.
	Frame(i int) (PixelBuffer, error)
}

// ImageSink persists corrected frames. Frames arrive in index order. Commit
// makes the output visible; Abort discards whatever was written.
type ImageSink interface {
	WriteFrame(index int, buf *RawBuffer) error
	Commit() error
	Abort() error
}

// SingleImageSource wraps one buffer.
type SingleImageSource struct {
	buf PixelBuffer
}

func NewSingleImageSource(buf PixelBuffer) *SingleImageSource {
	return &SingleImageSource{buf: buf}
}

func (s *SingleImageSource) FrameCount() int { return 1 }

func (s *SingleImageSource) Frame(i int) (PixelBuffer, error) {
	if i != 0 {
		return nil, fmt.Errorf("frame %d out of range [0,1)", i)
	}
	return s.buf, nil
}

// FrameLoader reads frame i of a sequence on demand.
type FrameLoader func(i int) (PixelBuffer, error)

// FrameSequenceSource is a multi-frame source. Frames are either held in
// memory or loaded on demand.
type FrameSequenceSource struct {
	count int
	load  FrameLoader
}

// NewFrameSequenceSource holds the given frames in memory.
func NewFrameSequenceSource(frames []PixelBuffer) *FrameSequenceSource {
	frames = append([]PixelBuffer(nil), frames...)
	return &FrameSequenceSource{
		count: len(frames),
		load:  func(i int) (PixelBuffer, error) { return frames[i], nil },
	}
}

// NewLazyFrameSequenceSource calls load for each requested frame.
func NewLazyFrameSequenceSource(count int, load FrameLoader) *FrameSequenceSource {
	return &FrameSequenceSource{count: count, load: load}
}

func (s *FrameSequenceSource) FrameCount() int { return s.count }

func (s *FrameSequenceSource) Frame(i int) (PixelBuffer, error) {
	if i < 0 || i >= s.count {
		return nil, fmt.Errorf("frame %d out of range [0,%d)", i, s.count)
	}
	return s.load(i)
}

// MemorySink keeps written frames in memory.
type MemorySink struct {
	mu        sync.Mutex
	frames    []*RawBuffer
	order     []int
	committed bool
	aborted   bool
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) WriteFrame(index int, buf *RawBuffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committed || s.aborted {
		return fmt.Errorf("write to closed sink")
	}
	if index != len(s.frames) {
		return fmt.Errorf("frame %d written out of order, expected %d", index, len(s.frames))
	}
	s.frames = append(s.frames, buf)
	s.order = append(s.order, index)
	return nil
}

func (s *MemorySink) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.aborted {
		return fmt.Errorf("commit after abort")
	}
	s.committed = true
	return nil
}

func (s *MemorySink) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborted = true
	s.frames = nil
	return nil
}

// Frames returns the committed frames, or nil if the sink was not
// committed.
func (s *MemorySink) Frames() []*RawBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.committed {
		return nil
	}
	return s.frames
}

// WriteOrder lists frame indexes in the order they were written.
func (s *MemorySink) WriteOrder() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.order...)
}

func (s *MemorySink) Committed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed
}

func (s *MemorySink) Aborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}
