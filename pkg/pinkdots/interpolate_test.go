package pinkdots

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInterpolate_BorderSitesAreLeftUntouched(t *testing.T) {
	const w, h = 20, 16
	src := gradientBuffer(w, h, 500)
	src.SetPixel(0, 0, 60000)

	var sites []DefectSite
	for _, x := range []int{0, 1, 2, w - 3, w - 2, w - 1} {
		sites = append(sites, DefectSite{X: x, Y: 8})
	}
	for _, y := range []int{0, 1, 2, h - 3, h - 2, h - 1} {
		sites = append(sites, DefectSite{X: 10, Y: y})
	}
	sites = append(sites, DefectSite{X: 0, Y: 0}, DefectSite{X: -5, Y: 8}, DefectSite{X: 10, Y: h + 4})

	for _, s := range sites {
		_, ok := Interpolate(src, s)
		require.False(t, ok, "site %v", s)
	}

	dst := src.Clone()
	stats := InterpolateSites(src, dst, sites)
	require.Equal(t, len(sites), stats.SkippedBorder)
	require.Zero(t, stats.Corrected)
	require.Equal(t, src.Pixels(), dst.Pixels())
}

func TestInterpolate_InnermostSitesAreAccepted(t *testing.T) {
	const w, h = 20, 16
	src := flatBuffer(w, h, 700)
	for _, s := range []DefectSite{{3, 3}, {w - 4, 3}, {3, h - 4}, {w - 4, h - 4}} {
		v, ok := Interpolate(src, s)
		require.True(t, ok, "site %v", s)
		require.Equal(t, uint16(700), v)
	}
}

func TestInterpolate_FlatField(t *testing.T) {
	for _, v := range []uint16{0, 1, 4321, math.MaxUint16} {
		src := flatBuffer(32, 32, v)
		src.SetPixel(16, 16, 12345)
		got, ok := Interpolate(src, DefectSite{X: 16, Y: 16})
		require.True(t, ok)
		require.Equal(t, v, got)
	}
}

func TestInterpolate_WeightsByAxisDiscontinuity(t *testing.T) {
	src := flatBuffer(20, 20, 100)
	// vertical: before = 120 + (130-100)/2 = 135, after = 150 + (140-160)/2 = 140
	src.SetPixel(10, 8, 120)
	src.SetPixel(10, 9, 130)
	src.SetPixel(10, 11, 140)
	src.SetPixel(10, 12, 150)
	src.SetPixel(10, 13, 160)
	// horizontal: before = 100, after = 100 + (130-100)/2 = 115
	src.SetPixel(11, 10, 130)

	// diffV = 5, diffH = 15 -> weights 0.75 / 0.25
	// 0.75*137.5 + 0.25*107.5 = 130
	got, ok := Interpolate(src, DefectSite{X: 10, Y: 10})
	require.True(t, ok)
	require.Equal(t, uint16(130), got)
}

func TestInterpolate_EqualDiffsGiveEqualWeights(t *testing.T) {
	src := flatBuffer(20, 20, 100)
	src.SetPixel(10, 11, 110) // vertical after = 105
	src.SetPixel(11, 10, 130) // horizontal after = 115
	src.SetPixel(12, 10, 90)  // horizontal after = 90 + (130-100)/2 = 105

	// both diffs are 5: 0.5*102.5 + 0.5*102.5
	got, ok := Interpolate(src, DefectSite{X: 10, Y: 10})
	require.True(t, ok)
	require.Equal(t, uint16(103), got)
}

func TestInterpolate_PrefersAxisWithoutEdge(t *testing.T) {
	const w, h = 100, 100
	src := NewRawBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x >= 50 {
				src.SetPixel(x, y, 1000)
			}
		}
	}

	got, ok := Interpolate(src, DefectSite{X: 50, Y: 50})
	require.True(t, ok)

	const verticalBlend, horizontalMid = 1000.0, 500.0
	require.Less(t, math.Abs(float64(got)-verticalBlend), math.Abs(float64(got)-horizontalMid))
	require.Equal(t, uint16(1000), got)
}

func TestInterpolate_GradientIsReconstructed(t *testing.T) {
	src := gradientBuffer(100, 100, 1000)
	want := src.Pixel(50, 50)
	src.SetPixel(50, 50, 9000)

	got, ok := Interpolate(src, DefectSite{X: 50, Y: 50})
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestInterpolateSites_ReadsSourceOnly(t *testing.T) {
	src := gradientBuffer(40, 40, 1000)
	src.SetPixel(20, 20, 50000)
	src.SetPixel(21, 20, 50000)
	before := src.Clone()

	dst := src.Clone()
	stats := InterpolateSites(src, dst, []DefectSite{{20, 20}, {21, 20}})

	require.Equal(t, 2, stats.Corrected)
	require.Len(t, stats.Deltas, 2)
	require.Equal(t, before.Pixels(), src.Pixels())
	require.NotEqual(t, uint16(50000), dst.Pixel(20, 20))
	require.NotEqual(t, uint16(50000), dst.Pixel(21, 20))
}

func TestToIntensity_RoundsAndClamps(t *testing.T) {
	require.Equal(t, uint16(0), toIntensity(-12.5))
	require.Equal(t, uint16(2), toIntensity(1.5))
	require.Equal(t, uint16(1), toIntensity(1.49))
	require.Equal(t, uint16(math.MaxUint16), toIntensity(70000))
}
