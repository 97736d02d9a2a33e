package compress

// Tier is one compression aggressiveness bucket. ResizePct of zero means
// keep the source dimensions (the "none" tier still re-encodes, which strips
// metadata and bakes in orientation).
type Tier struct {
	Name      string
	ResizePct int
	Quality   int
}

const (
	kb = 1024

	smallMaxDim  = 512
	smallMinSize = 100 * kb
	largeMaxDim  = 1024
	largeMinSize = 500 * kb
	hugeMinSize  = 500 * kb
)

var (
	tierSmall = Tier{Name: "small", ResizePct: 85, Quality: 90}
	tierLarge = Tier{Name: "large", ResizePct: 80, Quality: 88}
	tierHuge  = Tier{Name: "huge", ResizePct: 60, Quality: 85}
	tierNone  = Tier{Name: "none"}
)

// SelectTier is a deterministic table over source height, width and byte
// size; rows are checked lightest touch first.
func SelectTier(height, width int, size int64) Tier {
	maxDim := height
	if width > maxDim {
		maxDim = width
	}
	switch {
	case maxDim < smallMaxDim && size > smallMinSize:
		return tierSmall
	case maxDim < largeMaxDim && size > largeMinSize:
		return tierLarge
	case size > hugeMinSize:
		return tierHuge
	default:
		return tierNone
	}
}
