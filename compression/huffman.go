package compression

import (
	"github.com/yzays8/ppng/oops"
)

// maxCodeLength is the maximum (inclusive) number of bits in a deflate
// Huffman code.
const maxCodeLength = 15

// HuffmanTree is a canonical prefix code built from a vector of code
// lengths, per RFC 1951 section 3.2.2. Codes of the same length are
// assigned to symbols in increasing symbol order.
type HuffmanTree struct {
	// counts[l] is the number of symbols whose code is l bits long.
	counts [maxCodeLength + 1]int
	// symbols holds the coded symbols sorted by (code length, symbol).
	symbols []int
}

// NewHuffmanTree builds the canonical code for the given lengths, where
// lengths[sym] == 0 means sym is not coded. Over-subscribed length
// vectors (more codes of some length than the prefix space allows) are
// rejected; incomplete codes are permitted, as deflate distance trees
// with a single code are common.
func NewHuffmanTree(lengths []int) (*HuffmanTree, error) {
	t := &HuffmanTree{}
	total := 0
	for sym, l := range lengths {
		if l < 0 || l > maxCodeLength {
			return nil, oops.New(oops.KindInvalidHuffman,
				"code length %d for symbol %d is outside 0..%d", l, sym, maxCodeLength)
		}
		if l > 0 {
			t.counts[l]++
			total++
		}
	}

	left := 1
	for l := 1; l <= maxCodeLength; l++ {
		left <<= 1
		left -= t.counts[l]
		if left < 0 {
			return nil, oops.New(oops.KindInvalidHuffman,
				"over-subscribed code lengths at length %d", l)
		}
	}

	var offsets [maxCodeLength + 1]int
	for l := 1; l < maxCodeLength; l++ {
		offsets[l+1] = offsets[l] + t.counts[l]
	}
	t.symbols = make([]int, total)
	for sym, l := range lengths {
		if l > 0 {
			t.symbols[offsets[l]] = sym
			offsets[l]++
		}
	}
	return t, nil
}

// DecodeSymbol reads bits one at a time until they select a symbol.
// Bits come off the stream LSB-first but accumulate as the high-order
// side of the code value, the deflate convention.
func (t *HuffmanTree) DecodeSymbol(s *BitStream) (int, error) {
	code, first, index := 0, 0, 0
	for l := 1; l <= maxCodeLength; l++ {
		bit, err := s.ReadBit()
		if err != nil {
			return 0, err
		}
		code |= int(bit)
		count := t.counts[l]
		if code-first < count {
			return t.symbols[index+code-first], nil
		}
		index += count
		first = (first + count) << 1
		code <<= 1
	}
	return 0, oops.New(oops.KindInvalidHuffman, "no symbol within %d bits", maxCodeLength)
}

// The fixed literal/length code of RFC 1951 section 3.2.6: 8 bits for
// symbols 0-143 and 280-287, 9 bits for 144-255, 7 bits for 256-279.
func fixedLiteralLengths() []int {
	lengths := make([]int, 288)
	for sym := range lengths {
		switch {
		case sym < 144:
			lengths[sym] = 8
		case sym < 256:
			lengths[sym] = 9
		case sym < 280:
			lengths[sym] = 7
		default:
			lengths[sym] = 8
		}
	}
	return lengths
}

// The fixed distance code: 32 symbols, all 5 bits.
func fixedDistanceLengths() []int {
	lengths := make([]int, 32)
	for sym := range lengths {
		lengths[sym] = 5
	}
	return lengths
}

var (
	fixedLiteralTree  = mustTree(fixedLiteralLengths())
	fixedDistanceTree = mustTree(fixedDistanceLengths())
)

func mustTree(lengths []int) *HuffmanTree {
	t, err := NewHuffmanTree(lengths)
	if err != nil {
		panic(err)
	}
	return t
}
