package pinkdots

import "go.uber.org/zap"

// PassInfo describes a pass once its defect list has been resolved.
type PassInfo struct {
	CameraType string
	Width      int
	Height     int
	Frames     int
	Sites      int
	Mode       CorrectionMode
}

// Observer is notified as a pass advances. Implementations must not block
// for long; they have no influence on the pass. With more than one worker,
// FrameStarted may be called from several goroutines at once.
type Observer interface {
	PassStarted(info PassInfo)
	FrameStarted(index int)
	FrameFinished(index int, stats FrameStats)
	PassFinished(stats *PassStats)
	PassFailed(err error)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) PassStarted(PassInfo)          {}
func (NopObserver) FrameStarted(int)              {}
func (NopObserver) FrameFinished(int, FrameStats) {}
func (NopObserver) PassFinished(*PassStats)       {}
func (NopObserver) PassFailed(error)              {}

// LogObserver writes pass progress to a zap logger.
type LogObserver struct {
	logger *zap.SugaredLogger
}

func NewLogObserver(logger *zap.SugaredLogger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) PassStarted(info PassInfo) {
	o.logger.Infow("correction pass started",
		"camera", info.CameraType,
		"width", info.Width,
		"height", info.Height,
		"frames", info.Frames,
		"sites", info.Sites,
		"mode", info.Mode.String(),
	)
}

func (o *LogObserver) FrameStarted(index int) {
	o.logger.Debugw("frame started", "frame", index)
}

func (o *LogObserver) FrameFinished(index int, stats FrameStats) {
	o.logger.Debugw("frame finished",
		"frame", index,
		"corrected", stats.Corrected,
		"marked", stats.Marked,
		"skippedBorder", stats.SkippedBorder,
		"skippedOutside", stats.SkippedOutside,
	)
}

func (o *LogObserver) PassFinished(stats *PassStats) {
	median, mad := stats.DeltaMedianMAD()
	o.logger.Infow("correction pass finished",
		"frames", stats.Frames,
		"corrected", stats.Corrected,
		"marked", stats.Marked,
		"skippedBorder", stats.SkippedBorder,
		"skippedOutside", stats.SkippedOutside,
		"deltaMedian", median,
		"deltaMAD", mad,
	)
}

func (o *LogObserver) PassFailed(err error) {
	o.logger.Errorw("correction pass failed", "error", err)
}

var (
	_ Observer = NopObserver{}
	_ Observer = (*LogObserver)(nil)
)
