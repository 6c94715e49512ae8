package compression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yzays8/ppng/oops"
)

func TestHuffmanDecode(t *testing.T) {
	// The RFC 1951 section 3.2.2 example: lengths (2, 1, 3, 3) yield
	// the canonical codes A=10, B=0, C=110, D=111.
	tree, err := NewHuffmanTree([]int{2, 1, 3, 3})
	require.NoError(t, err)

	// B A C D in stream order: 0, 10, 110, 111 packed LSB-first into
	// bytes gives 0xDA 0x01.
	s := NewBitStream([]byte{0xDA, 0x01})
	for _, want := range []int{1, 0, 2, 3} {
		sym, err := tree.DecodeSymbol(s)
		require.NoError(t, err)
		assert.Equal(t, want, sym)
	}
}

func TestHuffmanFixedLiteralTable(t *testing.T) {
	tree := fixedLiteralTree

	// 'a' (97) has the 8-bit code 0b00110000+97 = 0b10010001. Feeding
	// its bits MSB-first (stream order for code values) must return it.
	s := NewBitStream([]byte{0b10001001})
	sym, err := tree.DecodeSymbol(s)
	require.NoError(t, err)
	assert.Equal(t, 97, sym)

	// End-of-block (256) is the 7-bit code 0000000.
	s = NewBitStream([]byte{0x00})
	sym, err = tree.DecodeSymbol(s)
	require.NoError(t, err)
	assert.Equal(t, 256, sym)
}

func TestHuffmanMaxCodeLength(t *testing.T) {
	lengths := []int{15, 15}
	tree, err := NewHuffmanTree(lengths)
	require.NoError(t, err)

	t.Run("decodes a 15-bit code", func(t *testing.T) {
		s := NewBitStream([]byte{0x00, 0x00})
		sym, err := tree.DecodeSymbol(s)
		require.NoError(t, err)
		assert.Equal(t, 0, sym)
	})
	t.Run("fails past 15 bits", func(t *testing.T) {
		s := NewBitStream([]byte{0xFF, 0xFF})
		_, err := tree.DecodeSymbol(s)
		assert.Equal(t, oops.KindInvalidHuffman, oops.KindOf(err))
	})
}

func TestHuffmanInvalidLengths(t *testing.T) {
	t.Run("over-subscribed", func(t *testing.T) {
		_, err := NewHuffmanTree([]int{1, 1, 1})
		assert.Equal(t, oops.KindInvalidHuffman, oops.KindOf(err))
	})
	t.Run("length beyond 15", func(t *testing.T) {
		_, err := NewHuffmanTree([]int{16})
		assert.Equal(t, oops.KindInvalidHuffman, oops.KindOf(err))
	})
	t.Run("a single-code incomplete tree is fine", func(t *testing.T) {
		// Deflate distance trees with one code are common.
		tree, err := NewHuffmanTree([]int{1})
		require.NoError(t, err)
		s := NewBitStream([]byte{0x00})
		sym, err := tree.DecodeSymbol(s)
		require.NoError(t, err)
		assert.Equal(t, 0, sym)
	})
}
