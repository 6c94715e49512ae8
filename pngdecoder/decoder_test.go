package pngdecoder

import (
	"bytes"
	stdzlib "compress/zlib"
	"encoding/binary"
	"fmt"
	stdcrc32 "hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yzays8/ppng/oops"
)

// buildChunk assembles one chunk with a correct CRC, using the standard
// library as the independent reference.
func buildChunk(chunkType string, data []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(len(data)))
	buf.WriteString(chunkType)
	buf.Write(data)
	crc := stdcrc32.NewIEEE()
	crc.Write([]byte(chunkType))
	crc.Write(data)
	binary.Write(&buf, binary.BigEndian, crc.Sum32())
	return buf.Bytes()
}

func buildIHDR(width, height uint32, bitDepth byte, colorType ColorType) []byte {
	data := make([]byte, 13)
	binary.BigEndian.PutUint32(data[0:4], width)
	binary.BigEndian.PutUint32(data[4:8], height)
	data[8] = bitDepth
	data[9] = byte(colorType)
	return buildChunk("IHDR", data)
}

// buildIDAT zlib-compresses raw filtered scanlines into one IDAT chunk.
func buildIDAT(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := stdzlib.NewWriter(&buf)
	_, err := w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buildChunk("IDAT", buf.Bytes())
}

func buildPNG(chunks ...[]byte) []byte {
	out := append([]byte{}, pngSignature...)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func decodePNG(t *testing.T, data []byte) (*Image, error) {
	t.Helper()
	decoder, err := NewDecoder(data)
	require.NoError(t, err)
	return decoder.Decode()
}

func TestBadSignature(t *testing.T) {
	_, err := NewDecoder([]byte{0, 0, 0, 0, 0, 0, 0, 0})
	assert.Equal(t, oops.KindBadSignature, oops.KindOf(err))

	_, err = NewDecoder([]byte{0x89, 0x50})
	assert.Equal(t, oops.KindBadSignature, oops.KindOf(err))
}

func TestMinimalGrayscale(t *testing.T) {
	png := buildPNG(
		buildIHDR(1, 1, 8, Grayscale),
		buildIDAT(t, []byte{0, 0x7B}),
		buildChunk("IEND", nil),
	)
	img, err := decodePNG(t, png)
	require.NoError(t, err)

	assert.Equal(t, 1, img.Width)
	assert.Equal(t, 1, img.Height)
	assert.Equal(t, 1, img.Channels)
	assert.Equal(t, 8, img.SampleDepth)
	assert.Equal(t, []byte{0x7B}, img.Pix)
}

func TestIENDChecksumBitFlip(t *testing.T) {
	png := buildPNG(
		buildIHDR(1, 1, 8, Grayscale),
		buildIDAT(t, []byte{0, 0x7B}),
		buildChunk("IEND", nil),
	)
	png[len(png)-1] ^= 0x01

	_, err := decodePNG(t, png)
	assert.Equal(t, oops.KindChecksumMismatch, oops.KindOf(err))
}

func TestFilterReconstruction(t *testing.T) {
	// 2x2 grayscale: a Sub row then a Paeth row, the worked example of
	// per-byte reconstruction with left and above dependencies.
	png := buildPNG(
		buildIHDR(2, 2, 8, Grayscale),
		buildIDAT(t, []byte{
			1, 10, 5, // Sub: 10, 10+5
			4, 3, 7, // Paeth: 3+paeth(0,10,0), 7+paeth(13,15,10)
		}),
		buildChunk("IEND", nil),
	)
	img, err := decodePNG(t, png)
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 15, 13, 22}, img.Pix)
}

func TestPaletteResolution(t *testing.T) {
	palette := []byte{255, 0, 0, 0, 255, 0, 0, 0, 255}
	png := buildPNG(
		buildIHDR(3, 1, 8, Indexed),
		buildChunk("PLTE", palette),
		buildIDAT(t, []byte{0, 0, 1, 2}),
		buildChunk("IEND", nil),
	)
	img, err := decodePNG(t, png)
	require.NoError(t, err)

	assert.Equal(t, 3, img.Channels)
	assert.Equal(t, []byte{0xFF, 0, 0, 0, 0xFF, 0, 0, 0, 0xFF}, img.Pix)
}

func TestPaletteIndexOutOfRange(t *testing.T) {
	png := buildPNG(
		buildIHDR(1, 1, 8, Indexed),
		buildChunk("PLTE", []byte{255, 0, 0}),
		buildIDAT(t, []byte{0, 1}),
		buildChunk("IEND", nil),
	)
	_, err := decodePNG(t, png)
	assert.Equal(t, oops.KindInvalidPalette, oops.KindOf(err))
}

func TestSubByteGrayscale(t *testing.T) {
	t.Run("2-bit samples scale to the 8-bit domain", func(t *testing.T) {
		// One packed byte 0b11100100 holds the four samples 3, 2, 1, 0.
		png := buildPNG(
			buildIHDR(4, 1, 2, Grayscale),
			buildIDAT(t, []byte{0, 0xE4}),
			buildChunk("IEND", nil),
		)
		img, err := decodePNG(t, png)
		require.NoError(t, err)
		assert.Equal(t, []byte{0xFF, 0xAA, 0x55, 0x00}, img.Pix)
	})
	t.Run("1-bit row with trailing padding", func(t *testing.T) {
		// Width 3 at depth 1: one byte, samples in the top three bits.
		png := buildPNG(
			buildIHDR(3, 1, 1, Grayscale),
			buildIDAT(t, []byte{0, 0b10100000}),
			buildChunk("IEND", nil),
		)
		img, err := decodePNG(t, png)
		require.NoError(t, err)
		assert.Equal(t, []byte{0xFF, 0x00, 0xFF}, img.Pix)
	})
}

func TestSixteenBitSamples(t *testing.T) {
	png := buildPNG(
		buildIHDR(1, 1, 16, Grayscale),
		buildIDAT(t, []byte{0, 0x12, 0x34}),
		buildChunk("IEND", nil),
	)
	img, err := decodePNG(t, png)
	require.NoError(t, err)

	assert.Equal(t, 16, img.SampleDepth)
	assert.Equal(t, []byte{0x12, 0x34}, img.Pix)
}

func TestEveryAcceptedColorDepthPair(t *testing.T) {
	tests := []struct {
		colorType    ColorType
		bitDepth     byte
		rawRow       []byte // filtered scanline without the filter byte
		wantChannels int
		wantPixLen   int
	}{
		{Grayscale, 1, []byte{0x80}, 1, 1},
		{Grayscale, 2, []byte{0xC0}, 1, 1},
		{Grayscale, 4, []byte{0xF0}, 1, 1},
		{Grayscale, 8, []byte{0xFF}, 1, 1},
		{Grayscale, 16, []byte{0xFF, 0xFF}, 1, 2},
		{Truecolor, 8, []byte{1, 2, 3}, 3, 3},
		{Truecolor, 16, []byte{1, 2, 3, 4, 5, 6}, 3, 6},
		{Indexed, 1, []byte{0x80}, 3, 3},
		{Indexed, 2, []byte{0x40}, 3, 3},
		{Indexed, 4, []byte{0x10}, 3, 3},
		{Indexed, 8, []byte{0x01}, 3, 3},
		{GrayscaleAlpha, 8, []byte{9, 8}, 2, 2},
		{GrayscaleAlpha, 16, []byte{1, 2, 3, 4}, 2, 4},
		{TruecolorAlpha, 8, []byte{1, 2, 3, 4}, 4, 4},
		{TruecolorAlpha, 16, []byte{1, 2, 3, 4, 5, 6, 7, 8}, 4, 8},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s depth %d", tt.colorType, tt.bitDepth), func(t *testing.T) {
			chunks := [][]byte{buildIHDR(1, 1, tt.bitDepth, tt.colorType)}
			if tt.colorType == Indexed {
				chunks = append(chunks, buildChunk("PLTE", []byte{10, 20, 30, 40, 50, 60}))
			}
			raw := append([]byte{0}, tt.rawRow...)
			chunks = append(chunks, buildIDAT(t, raw), buildChunk("IEND", nil))

			img, err := decodePNG(t, buildPNG(chunks...))
			require.NoError(t, err)
			assert.Equal(t, tt.wantChannels, img.Channels)
			assert.Len(t, img.Pix, tt.wantPixLen)
		})
	}
}

func TestInvalidHeader(t *testing.T) {
	tests := []struct {
		name   string
		mangle func(ihdrData []byte)
	}{
		{"zero width", func(d []byte) { binary.BigEndian.PutUint32(d[0:4], 0) }},
		{"zero height", func(d []byte) { binary.BigEndian.PutUint32(d[4:8], 0) }},
		{"oversized width", func(d []byte) { binary.BigEndian.PutUint32(d[0:4], 1<<31) }},
		{"bad color type", func(d []byte) { d[9] = 5 }},
		{"bad pair truecolor/4", func(d []byte) { d[8] = 4; d[9] = 2 }},
		{"bad pair indexed/16", func(d []byte) { d[8] = 16; d[9] = 3 }},
		{"nonzero compression", func(d []byte) { d[10] = 1 }},
		{"nonzero filter method", func(d []byte) { d[11] = 1 }},
		{"interlaced", func(d []byte) { d[12] = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, 13)
			binary.BigEndian.PutUint32(data[0:4], 1)
			binary.BigEndian.PutUint32(data[4:8], 1)
			data[8] = 8
			data[9] = byte(Grayscale)
			tt.mangle(data)

			png := buildPNG(
				buildChunk("IHDR", data),
				buildIDAT(t, []byte{0, 0}),
				buildChunk("IEND", nil),
			)
			_, err := decodePNG(t, png)
			assert.Equal(t, oops.KindInvalidHeader, oops.KindOf(err))
		})
	}
}

func TestChunkStructure(t *testing.T) {
	gray := buildIHDR(1, 1, 8, Grayscale)
	idat := buildIDAT(t, []byte{0, 1})
	iend := buildChunk("IEND", nil)

	t.Run("first chunk must be IHDR", func(t *testing.T) {
		png := buildPNG(buildChunk("gAMA", []byte{0, 1, 0x86, 0xA0}), gray, idat, iend)
		_, err := decodePNG(t, png)
		assert.Equal(t, oops.KindInvalidStructure, oops.KindOf(err))
	})
	t.Run("duplicate IHDR", func(t *testing.T) {
		png := buildPNG(gray, gray, idat, iend)
		_, err := decodePNG(t, png)
		assert.Equal(t, oops.KindInvalidStructure, oops.KindOf(err))
	})
	t.Run("non-contiguous IDAT", func(t *testing.T) {
		png := buildPNG(gray, idat, buildChunk("tEXt", []byte("k\x00v")), idat, iend)
		_, err := decodePNG(t, png)
		assert.Equal(t, oops.KindInvalidStructure, oops.KindOf(err))
	})
	t.Run("split IDAT is fine", func(t *testing.T) {
		var buf bytes.Buffer
		w := stdzlib.NewWriter(&buf)
		_, err := w.Write([]byte{0, 1})
		require.NoError(t, err)
		require.NoError(t, w.Close())
		stream := buf.Bytes()

		png := buildPNG(gray,
			buildChunk("IDAT", stream[:3]),
			buildChunk("IDAT", stream[3:]),
			iend)
		img, err := decodePNG(t, png)
		require.NoError(t, err)
		assert.Equal(t, []byte{1}, img.Pix)
	})
	t.Run("missing IDAT", func(t *testing.T) {
		png := buildPNG(gray, iend)
		_, err := decodePNG(t, png)
		assert.Equal(t, oops.KindInvalidStructure, oops.KindOf(err))
	})
	t.Run("missing IEND", func(t *testing.T) {
		png := buildPNG(gray, idat)
		_, err := decodePNG(t, png)
		assert.Equal(t, oops.KindInvalidStructure, oops.KindOf(err))
	})
	t.Run("truncated mid-chunk", func(t *testing.T) {
		png := buildPNG(gray, idat, iend)
		_, err := decodePNG(t, png[:len(png)-6])
		assert.Equal(t, oops.KindTruncatedStream, oops.KindOf(err))
	})
	t.Run("PLTE after IDAT", func(t *testing.T) {
		plte := buildChunk("PLTE", []byte{1, 2, 3})
		png := buildPNG(buildIHDR(1, 1, 8, Indexed), idat, plte, iend)
		_, err := decodePNG(t, png)
		assert.Equal(t, oops.KindInvalidStructure, oops.KindOf(err))
	})
	t.Run("unknown critical chunk", func(t *testing.T) {
		png := buildPNG(gray, buildChunk("JUNK", []byte{1}), idat, iend)
		_, err := decodePNG(t, png)
		assert.Equal(t, oops.KindUnsupportedChunk, oops.KindOf(err))
	})
	t.Run("unknown ancillary chunk is skipped", func(t *testing.T) {
		png := buildPNG(gray, buildChunk("jUNK", []byte{1}), idat, iend)
		img, err := decodePNG(t, png)
		require.NoError(t, err)
		assert.Equal(t, []byte{1}, img.Pix)
	})
}

func TestPaletteRules(t *testing.T) {
	t.Run("forbidden for grayscale", func(t *testing.T) {
		png := buildPNG(
			buildIHDR(1, 1, 8, Grayscale),
			buildChunk("PLTE", []byte{1, 2, 3}),
			buildIDAT(t, []byte{0, 1}),
			buildChunk("IEND", nil),
		)
		_, err := decodePNG(t, png)
		assert.Equal(t, oops.KindInvalidPalette, oops.KindOf(err))
	})
	t.Run("missing for indexed", func(t *testing.T) {
		png := buildPNG(
			buildIHDR(1, 1, 8, Indexed),
			buildIDAT(t, []byte{0, 0}),
			buildChunk("IEND", nil),
		)
		_, err := decodePNG(t, png)
		assert.Equal(t, oops.KindInvalidPalette, oops.KindOf(err))
	})
	t.Run("suggested palette for truecolor is ignored", func(t *testing.T) {
		png := buildPNG(
			buildIHDR(1, 1, 8, Truecolor),
			buildChunk("PLTE", []byte{1, 2, 3}),
			buildIDAT(t, []byte{0, 9, 8, 7}),
			buildChunk("IEND", nil),
		)
		img, err := decodePNG(t, png)
		require.NoError(t, err)
		assert.Equal(t, []byte{9, 8, 7}, img.Pix)
	})
	t.Run("not a multiple of three", func(t *testing.T) {
		png := buildPNG(
			buildIHDR(1, 1, 8, Indexed),
			buildChunk("PLTE", []byte{1, 2, 3, 4}),
			buildIDAT(t, []byte{0, 0}),
			buildChunk("IEND", nil),
		)
		_, err := decodePNG(t, png)
		assert.Equal(t, oops.KindInvalidStructure, oops.KindOf(err))
	})
	t.Run("more entries than the bit depth can index", func(t *testing.T) {
		entries := make([]byte, 3*3)
		png := buildPNG(
			buildIHDR(1, 1, 1, Indexed),
			buildChunk("PLTE", entries),
			buildIDAT(t, []byte{0, 0}),
			buildChunk("IEND", nil),
		)
		_, err := decodePNG(t, png)
		assert.Equal(t, oops.KindInvalidStructure, oops.KindOf(err))
	})
}

func TestDecompressedLengthMismatch(t *testing.T) {
	png := buildPNG(
		buildIHDR(1, 1, 8, Grayscale),
		buildIDAT(t, []byte{0, 1, 2, 3}), // one row too many bytes
		buildChunk("IEND", nil),
	)
	_, err := decodePNG(t, png)
	assert.Equal(t, oops.KindInvalidStructure, oops.KindOf(err))
}

func TestInvalidFilterType(t *testing.T) {
	png := buildPNG(
		buildIHDR(1, 1, 8, Grayscale),
		buildIDAT(t, []byte{5, 1}),
		buildChunk("IEND", nil),
	)
	_, err := decodePNG(t, png)
	assert.Equal(t, oops.KindInvalidFilter, oops.KindOf(err))
}
