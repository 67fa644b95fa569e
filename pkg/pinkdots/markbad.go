package pinkdots

// MarkBad sets every in-bounds site of dst to BadPixelValue so a later
// demosaicing or denoising stage can fill it. Sites outside the buffer are
// skipped.
func MarkBad(dst *RawBuffer, sites []DefectSite) FrameStats {
	var stats FrameStats
	for _, site := range sites {
		if !dst.Contains(site.X, site.Y) {
			stats.SkippedOutside++
			continue
		}
		dst.SetPixel(site.X, site.Y, BadPixelValue)
		stats.Marked++
	}
	return stats
}

// applyMode runs the strategy selected by mode on one frame.
func applyMode(mode CorrectionMode, src PixelBuffer, dst *RawBuffer, sites []DefectSite) FrameStats {
	if mode == ModeMarkBad {
		return MarkBad(dst, sites)
	}
	return InterpolateSites(src, dst, sites)
}
