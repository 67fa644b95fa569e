package pinkdots

import "math"

// borderMargin is how far a site must be from every edge so that all six
// neighbours on both axes exist.
const borderMargin = 3

// neighbourOffsets are the signed offsets sampled along each axis. Offset 0
// is the defect itself and is never read.
var neighbourOffsets = [6]int{-3, -2, -1, 1, 2, 3}

// axisEstimate is the normalised before/after pair for one axis.
type axisEstimate struct {
	before float64
	after  float64
}

func (a axisEstimate) diff() float64 { return math.Abs(a.before - a.after) }
func (a axisEstimate) mid() float64  { return (a.before + a.after) / 2 }

// sampleAxis reads the six neighbours of (x, y) along (dx, dy) and folds
// them into gradient-compensated before/after values.
func sampleAxis(src PixelBuffer, x, y, dx, dy int) axisEstimate {
	var s [6]float64
	for i, off := range neighbourOffsets {
		s[i] = float64(src.Pixel(x+off*dx, y+off*dy))
	}
	return axisEstimate{
		before: s[1] + (s[2]-s[0])/2,
		after:  s[4] + (s[3]-s[5])/2,
	}
}

// inInterpolationBounds reports whether the site is far enough from the
// border to be interpolated.
func inInterpolationBounds(site DefectSite, width, height int) bool {
	return site.X >= borderMargin && site.X <= width-borderMargin-1 &&
		site.Y >= borderMargin && site.Y <= height-borderMargin-1
}

// Interpolate estimates a replacement intensity for site from its
// horizontal and vertical neighbours in src. The axis whose before/after
// values disagree more is more likely to straddle an edge and gets less
// weight. When both axes are flat the weights are equal.
//
// ok is false when the site is too close to the border; such sites are
// left untouched.
func Interpolate(src PixelBuffer, site DefectSite) (value uint16, ok bool) {
	if !inInterpolationBounds(site, src.Width(), src.Height()) {
		return 0, false
	}

	vertical := sampleAxis(src, site.X, site.Y, 0, 1)
	horizontal := sampleAxis(src, site.X, site.Y, 1, 0)

	diffV := vertical.diff()
	diffH := horizontal.diff()
	diffSum := diffV + diffH

	weightV, weightH := 0.5, 0.5
	if diffSum > 0 {
		weightV = 1 - diffV/diffSum
		weightH = 1 - diffH/diffSum
	}

	return toIntensity(weightV*vertical.mid() + weightH*horizontal.mid()), true
}

// InterpolateSites writes an interpolated value for every site into dst,
// reading neighbours only from src.
func InterpolateSites(src PixelBuffer, dst *RawBuffer, sites []DefectSite) FrameStats {
	var stats FrameStats
	for _, site := range sites {
		v, ok := Interpolate(src, site)
		if !ok {
			stats.SkippedBorder++
			continue
		}
		old := src.Pixel(site.X, site.Y)
		dst.SetPixel(site.X, site.Y, v)
		stats.Corrected++
		stats.Deltas = append(stats.Deltas, math.Abs(float64(v)-float64(old)))
	}
	return stats
}

func toIntensity(v float64) uint16 {
	return uint16(clampFloat64(math.Round(v), 0, math.MaxUint16))
}
