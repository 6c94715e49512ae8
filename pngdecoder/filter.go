package pngdecoder

import (
	"github.com/yzays8/ppng/oops"
)

type FilterType byte

const (
	FilterNone FilterType = iota
	FilterSub
	FilterUp
	FilterAverage
	FilterPaeth
)

func (f FilterType) String() string {
	switch f {
	case FilterNone:
		return "None"
	case FilterSub:
		return "Sub"
	case FilterUp:
		return "Up"
	case FilterAverage:
		return "Average"
	case FilterPaeth:
		return "Paeth"
	}
	return "invalid"
}

// reconstructFilters reverses the per-scanline filters over the
// decompressed stream, in place and strictly top to bottom, and returns
// the rows without their leading filter-type bytes. Each returned row
// aliases the input buffer.
//
// Reconstruction works byte by byte, not pixel by pixel: the left
// neighbor of a byte is the reconstructed byte bpp positions earlier,
// which for sub-byte packings is the previous whole byte.
func reconstructFilters(data []byte, height, stride, bpp int) ([][]byte, error) {
	if len(data) != height*(1+stride) {
		return nil, oops.New(oops.KindInvalidStructure,
			"decompressed image data is %d bytes, want %d (%d rows of 1+%d)",
			len(data), height*(1+stride), height, stride)
	}

	rows := make([][]byte, height)
	var prev []byte
	for y := 0; y < height; y++ {
		start := y * (1 + stride)
		cur := data[start+1 : start+1+stride]

		switch FilterType(data[start]) {
		case FilterNone:
			// Reconstructed bytes are the raw bytes.
		case FilterSub:
			for i := bpp; i < len(cur); i++ {
				cur[i] += cur[i-bpp]
			}
		case FilterUp:
			if prev != nil {
				for i := range cur {
					cur[i] += prev[i]
				}
			}
		case FilterAverage:
			for i := range cur {
				var a, b int
				if i >= bpp {
					a = int(cur[i-bpp])
				}
				if prev != nil {
					b = int(prev[i])
				}
				cur[i] += byte((a + b) / 2)
			}
		case FilterPaeth:
			for i := range cur {
				var a, b, c int
				if i >= bpp {
					a = int(cur[i-bpp])
				}
				if prev != nil {
					b = int(prev[i])
					if i >= bpp {
						c = int(prev[i-bpp])
					}
				}
				cur[i] += byte(paethPredictor(a, b, c))
			}
		default:
			return nil, oops.New(oops.KindInvalidFilter,
				"filter type %d on row %d", data[start], y)
		}

		rows[y] = cur
		prev = cur
	}
	return rows, nil
}
