package pinkdots

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Corrector drives correction passes over single images and frame
// sequences.
type Corrector struct {
	Lookup DefectLookup
	Mode   CorrectionMode
	// Workers > 1 corrects frames concurrently. Output is still written in
	// frame order.
	Workers  int
	Observer Observer
}

type frameResult struct {
	index int
	dst   *RawBuffer
	stats FrameStats
	err   error
}

// Run corrects every frame of src and writes the results to sink in frame
// order. The defect list is resolved once from cameraType and the size of
// frame 0. If it is unknown, Run returns ErrUnknownDefectPattern before
// touching any frame. On any failure the sink is aborted; on success it is
// committed.
func (c *Corrector) Run(ctx context.Context, src ImageSource, cameraType string, sink ImageSink) (stats *PassStats, err error) {
	obs := c.observer()
	defer func() {
		if err != nil {
			_ = sink.Abort()
			obs.PassFailed(err)
		}
	}()

	if c.Lookup == nil {
		return nil, errors.New("no defect lookup configured")
	}
	n := src.FrameCount()
	if n < 1 {
		return nil, errors.New("image source has no frames")
	}
	first, err := src.Frame(0)
	if err != nil {
		return nil, fmt.Errorf("reading frame 0: %w", err)
	}
	width, height := first.Width(), first.Height()

	sites, err := c.Lookup.Dots(cameraType, width, height)
	if err != nil {
		if !errors.Is(err, ErrUnknownDefectPattern) {
			err = fmt.Errorf("%w: %w", unknownPattern(MapKey{cameraType, width, height}), err)
		}
		return nil, err
	}

	stats = &PassStats{
		CameraType: cameraType,
		Width:      width,
		Height:     height,
		Mode:       c.Mode,
		Sites:      len(sites),
	}
	obs.PassStarted(PassInfo{
		CameraType: cameraType,
		Width:      width,
		Height:     height,
		Frames:     n,
		Sites:      len(sites),
		Mode:       c.Mode,
	})

	frameAt := func(i int) (PixelBuffer, error) {
		if i == 0 {
			return first, nil
		}
		return src.Frame(i)
	}

	if c.Workers > 1 && n > 1 {
		err = c.runParallel(ctx, n, frameAt, sites, sink, stats)
	} else {
		err = c.runSequential(ctx, n, frameAt, sites, sink, stats)
	}
	if err != nil {
		return nil, err
	}

	if err := sink.Commit(); err != nil {
		return nil, fmt.Errorf("committing output: %w", err)
	}
	obs.PassFinished(stats)
	return stats, nil
}

func (c *Corrector) runSequential(ctx context.Context, n int, frameAt func(int) (PixelBuffer, error), sites []DefectSite, sink ImageSink, stats *PassStats) error {
	obs := c.observer()
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		r := c.correctFrame(i, frameAt, sites, stats.Width, stats.Height)
		if r.err != nil {
			return r.err
		}
		if err := c.write(sink, r, stats); err != nil {
			return err
		}
		obs.FrameFinished(i, r.stats)
	}
	return nil
}

// runParallel corrects frames on a worker pool. At most 2*Workers frames
// are in flight; finished frames wait in pending until every earlier frame
// has been written.
func (c *Corrector) runParallel(ctx context.Context, n int, frameAt func(int) (PixelBuffer, error), sites []DefectSite, sink ImageSink, stats *PassStats) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	obs := c.observer()
	jobs := make(chan int)
	results := make(chan frameResult)
	window := make(chan struct{}, 2*c.Workers)

	var wg sync.WaitGroup
	for w := 0; w < c.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				r := c.correctFrame(i, frameAt, sites, stats.Width, stats.Height)
				select {
				case results <- r:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case window <- struct{}{}:
			case <-ctx.Done():
				return
			}
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	pending := make(map[int]frameResult)
	next := 0
	for next < n {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case r, ok := <-results:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				return fmt.Errorf("workers stopped after frame %d of %d", next, n)
			}
			if r.err != nil {
				return r.err
			}
			pending[r.index] = r
			for {
				p, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if err := c.write(sink, p, stats); err != nil {
					return err
				}
				obs.FrameFinished(p.index, p.stats)
				<-window
				next++
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (c *Corrector) correctFrame(i int, frameAt func(int) (PixelBuffer, error), sites []DefectSite, width, height int) frameResult {
	c.observer().FrameStarted(i)
	src, err := frameAt(i)
	if err != nil {
		return frameResult{index: i, err: fmt.Errorf("reading frame %d: %w", i, err)}
	}
	if src.Width() != width || src.Height() != height {
		return frameResult{index: i, err: fmt.Errorf("%w: frame %d is %dx%d, frame 0 is %dx%d",
			ErrFrameSizeMismatch, i, src.Width(), src.Height(), width, height)}
	}
	dst := CopyBuffer(src)
	return frameResult{index: i, dst: dst, stats: applyMode(c.Mode, src, dst, sites)}
}

func (c *Corrector) write(sink ImageSink, r frameResult, stats *PassStats) error {
	if err := sink.WriteFrame(r.index, r.dst); err != nil {
		return fmt.Errorf("writing frame %d: %w", r.index, err)
	}
	stats.add(r.stats)
	return nil
}

func (c *Corrector) observer() Observer {
	if c.Observer == nil {
		return NopObserver{}
	}
	return c.Observer
}
