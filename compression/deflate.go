package compression

import (
	"github.com/yzays8/ppng/logging"
	"github.com/yzays8/ppng/oops"
)

// Length and distance tables of RFC 1951 section 3.2.5, indexed by
// symbol - 257 and by distance symbol respectively.
var (
	lengthBase = [29]int{
		3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
		35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258,
	}
	lengthExtra = [29]int{
		0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
		3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
	}
	distanceBase = [30]int{
		1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
		257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
	}
	distanceExtra = [30]int{
		0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
		7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
	}
)

// The order in which code lengths of the code-length alphabet appear in
// a dynamic block header.
var codeLengthOrder = [19]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// Inflate decompresses a raw deflate stream. The output slice doubles
// as the back-reference window, so matches copy straight out of it.
// sizeHint pre-sizes the output and may be 0.
func Inflate(s *BitStream, sizeHint int) ([]byte, error) {
	output := make([]byte, 0, sizeHint)
	for {
		bfinal, err := s.ReadBits(1)
		if err != nil {
			return nil, err
		}
		btype, err := s.ReadBits(2)
		if err != nil {
			return nil, err
		}
		logging.Debug().
			Uint32("bfinal", bfinal).
			Uint32("btype", btype).
			Msg("deflate block")

		switch btype {
		case 0:
			output, err = inflateStored(s, output)
		case 1:
			output, err = inflateCompressed(s, output, fixedLiteralTree, fixedDistanceTree)
		case 2:
			var literalTree, distanceTree *HuffmanTree
			literalTree, distanceTree, err = readDynamicTrees(s)
			if err == nil {
				output, err = inflateCompressed(s, output, literalTree, distanceTree)
			}
		default:
			err = oops.New(oops.KindInvalidBlock, "BTYPE 0b11 is reserved")
		}
		if err != nil {
			return nil, err
		}

		if bfinal == 1 {
			return output, nil
		}
	}
}

// A stored block is byte aligned: LEN and its one's complement NLEN,
// both little endian, then LEN literal bytes.
func inflateStored(s *BitStream, output []byte) ([]byte, error) {
	length, err := s.ReadUint16LE()
	if err != nil {
		return nil, err
	}
	nlen, err := s.ReadUint16LE()
	if err != nil {
		return nil, err
	}
	if nlen != ^length {
		return nil, oops.New(oops.KindInvalidBlock,
			"NLEN %#04x is not the one's complement of LEN %#04x", nlen, length)
	}
	data, err := s.ReadBytes(int(length))
	if err != nil {
		return nil, err
	}
	return append(output, data...), nil
}

// readDynamicTrees decodes the header of a dynamic block: the
// code-length alphabet first, then the literal/length and distance code
// lengths encoded with it.
func readDynamicTrees(s *BitStream) (*HuffmanTree, *HuffmanTree, error) {
	hlit, err := s.ReadBits(5)
	if err != nil {
		return nil, nil, err
	}
	hdist, err := s.ReadBits(5)
	if err != nil {
		return nil, nil, err
	}
	hclen, err := s.ReadBits(4)
	if err != nil {
		return nil, nil, err
	}
	numLiteral := int(hlit) + 257
	numDistance := int(hdist) + 1
	numCodeLength := int(hclen) + 4
	if numLiteral > 286 || numDistance > 30 {
		return nil, nil, oops.New(oops.KindInvalidBlock,
			"too many codes: %d literal/length, %d distance", numLiteral, numDistance)
	}
	logging.Debug().
		Int("hlit", numLiteral).
		Int("hdist", numDistance).
		Int("hclen", numCodeLength).
		Msg("dynamic block header")

	var codeLengthLengths [19]int
	for i := 0; i < numCodeLength; i++ {
		l, err := s.ReadBits(3)
		if err != nil {
			return nil, nil, err
		}
		codeLengthLengths[codeLengthOrder[i]] = int(l)
	}
	codeLengthTree, err := NewHuffmanTree(codeLengthLengths[:])
	if err != nil {
		return nil, nil, err
	}

	lengths := make([]int, numLiteral+numDistance)
	for i := 0; i < len(lengths); {
		sym, err := codeLengthTree.DecodeSymbol(s)
		if err != nil {
			return nil, nil, err
		}

		repeat := 0
		value := 0
		switch {
		case sym < 16:
			lengths[i] = sym
			i++
			continue
		case sym == 16:
			// Repeat the previous code length 3-6 times.
			if i == 0 {
				return nil, nil, oops.New(oops.KindInvalidBlock,
					"repeat code with no previous length")
			}
			extra, err := s.ReadBits(2)
			if err != nil {
				return nil, nil, err
			}
			repeat = 3 + int(extra)
			value = lengths[i-1]
		case sym == 17:
			// 3-10 zeros.
			extra, err := s.ReadBits(3)
			if err != nil {
				return nil, nil, err
			}
			repeat = 3 + int(extra)
		default: // 18
			// 11-138 zeros.
			extra, err := s.ReadBits(7)
			if err != nil {
				return nil, nil, err
			}
			repeat = 11 + int(extra)
		}
		if i+repeat > len(lengths) {
			return nil, nil, oops.New(oops.KindInvalidBlock,
				"code length repeat overflows the %d declared codes", len(lengths))
		}
		for ; repeat > 0; repeat-- {
			lengths[i] = value
			i++
		}
	}

	literalTree, err := NewHuffmanTree(lengths[:numLiteral])
	if err != nil {
		return nil, nil, err
	}
	distanceTree, err := NewHuffmanTree(lengths[numLiteral:])
	if err != nil {
		return nil, nil, err
	}
	return literalTree, distanceTree, nil
}

// inflateCompressed decodes literal/length symbols until end-of-block,
// resolving LZ77 matches against the bytes already emitted. Overlapping
// matches must read bytes written earlier in the same copy, so the copy
// goes byte by byte.
func inflateCompressed(s *BitStream, output []byte, literalTree, distanceTree *HuffmanTree) ([]byte, error) {
	for {
		sym, err := literalTree.DecodeSymbol(s)
		if err != nil {
			return nil, err
		}

		switch {
		case sym < 256:
			output = append(output, byte(sym))
		case sym == 256:
			return output, nil
		case sym <= 285:
			li := sym - 257
			extra, err := s.ReadBits(lengthExtra[li])
			if err != nil {
				return nil, err
			}
			length := lengthBase[li] + int(extra)

			distSym, err := distanceTree.DecodeSymbol(s)
			if err != nil {
				return nil, err
			}
			if distSym > 29 {
				return nil, oops.New(oops.KindInvalidBlock, "invalid distance symbol %d", distSym)
			}
			extra, err = s.ReadBits(distanceExtra[distSym])
			if err != nil {
				return nil, err
			}
			distance := distanceBase[distSym] + int(extra)
			if distance > len(output) {
				return nil, oops.New(oops.KindInvalidDistance,
					"distance %d exceeds the %d bytes emitted so far", distance, len(output))
			}
			for i := 0; i < length; i++ {
				output = append(output, output[len(output)-distance])
			}
		default:
			// 286 and 287 exist in the fixed code but never in valid data.
			return nil, oops.New(oops.KindInvalidBlock, "invalid literal/length symbol %d", sym)
		}
	}
}
