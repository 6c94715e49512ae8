package pngdecoder

import "bytes"

var pngSignature = []byte{137, 80, 78, 71, 13, 10, 26, 10}

func isPNG(data []byte) bool {
	if len(data) < len(pngSignature) {
		return false
	}
	return bytes.Equal(pngSignature, data[:len(pngSignature)])
}

// paethPredictor picks whichever of left, above, or upper-left is
// closest to a+b-c, ties going left, then above.
func paethPredictor(a, b, c int) int {
	p := a + b - c
	pa := abs(p - a)
	pb := abs(p - b)
	pc := abs(p - c)

	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
