package pinkdots

import (
	"fmt"
	"math"
	"sort"
)

// FrameStats counts what one correction pass did to one frame.
type FrameStats struct {
	Corrected      int
	Marked         int
	SkippedBorder  int
	SkippedOutside int
	// Deltas holds |new - old| for each interpolated site.
	Deltas []float64
}

// PassStats aggregates the frames of one pass.
type PassStats struct {
	CameraType string
	Width      int
	Height     int
	Mode       CorrectionMode
	Sites      int
	Frames     int

	Corrected      int
	Marked         int
	SkippedBorder  int
	SkippedOutside int

	deltas []float64
}

func (p *PassStats) add(f FrameStats) {
	p.Frames++
	p.Corrected += f.Corrected
	p.Marked += f.Marked
	p.SkippedBorder += f.SkippedBorder
	p.SkippedOutside += f.SkippedOutside
	p.deltas = append(p.deltas, f.Deltas...)
}

// DeltaMedianMAD returns the median absolute intensity change of
// interpolated sites and its scaled median absolute deviation. Both are NaN
// when nothing was interpolated.
func (p *PassStats) DeltaMedianMAD() (float64, float64) {
	return medianMAD(p.deltas)
}

func (p *PassStats) String() string {
	return fmt.Sprintf("{Camera=%s, Size=%dx%d, Mode=%s, Sites=%d, Frames=%d, Corrected=%d, Marked=%d, SkippedBorder=%d, SkippedOutside=%d}",
		p.CameraType, p.Width, p.Height, p.Mode, p.Sites, p.Frames, p.Corrected, p.Marked, p.SkippedBorder, p.SkippedOutside)
}

func medianMAD(values []float64) (float64, float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	median := medianSorted(sorted)

	deviations := make([]float64, len(sorted))
	for i := range sorted {
		deviations[i] = math.Abs(sorted[i] - median)
	}
	sort.Float64s(deviations)

	return median, 1.4826 * medianSorted(deviations)
}

func medianSorted(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2.0
	}
	return sorted[n/2]
}

func clampFloat64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
