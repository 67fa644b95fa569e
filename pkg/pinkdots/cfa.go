package pinkdots

// CFAChannel names the colour filter over one photosite.
type CFAChannel int

const (
	ChannelRed CFAChannel = iota
	ChannelGreenRed
	ChannelGreenBlue
	ChannelBlue
)

func (c CFAChannel) String() string {
	switch c {
	case ChannelRed:
		return "R"
	case ChannelGreenRed:
		return "Gr"
	case ChannelGreenBlue:
		return "Gb"
	case ChannelBlue:
		return "B"
	default:
		return "?"
	}
}

// ChannelAtRGGB returns the filter colour at (x, y) of an RGGB mosaic.
//
// RGGB layout (row-major, 0-indexed):
//
//	(even row, even col) = R
//	(even row, odd  col) = G  (Gr)
//	(odd  row, even col) = G  (Gb)
//	(odd  row, odd  col) = B
func ChannelAtRGGB(x, y int) CFAChannel {
	evenRow := y%2 == 0
	evenCol := x%2 == 0
	switch {
	case evenRow && evenCol:
		return ChannelRed
	case evenRow:
		return ChannelGreenRed
	case evenCol:
		return ChannelGreenBlue
	default:
		return ChannelBlue
	}
}

// ChannelCounts tallies the sites that fall on each channel.
func ChannelCounts(sites []DefectSite) map[CFAChannel]int {
	counts := make(map[CFAChannel]int, 4)
	for _, s := range sites {
		counts[ChannelAtRGGB(s.X, s.Y)]++
	}
	return counts
}
