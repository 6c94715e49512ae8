package pngdecoder

import (
	"github.com/yzays8/ppng/oops"
	"github.com/yzays8/ppng/utils"
)

type ColorType byte

const (
	Grayscale      ColorType = 0
	Truecolor      ColorType = 2
	Indexed        ColorType = 3
	GrayscaleAlpha ColorType = 4
	TruecolorAlpha ColorType = 6
)

func (c ColorType) String() string {
	switch c {
	case Grayscale:
		return "grayscale"
	case Truecolor:
		return "truecolor"
	case Indexed:
		return "indexed"
	case GrayscaleAlpha:
		return "grayscale with alpha"
	case TruecolorAlpha:
		return "truecolor with alpha"
	}
	return "invalid"
}

// Channels is the number of samples per pixel in the coded stream. An
// indexed pixel is a single palette index until the unpacker resolves it.
func (c ColorType) Channels() int {
	switch c {
	case Grayscale, Indexed:
		return 1
	case Truecolor:
		return 3
	case GrayscaleAlpha:
		return 2
	case TruecolorAlpha:
		return 4
	}
	return 0
}

// The accepted bit depths per color type.
var allowedBitDepths = map[ColorType][]byte{
	Grayscale:      {1, 2, 4, 8, 16},
	Truecolor:      {8, 16},
	Indexed:        {1, 2, 4, 8},
	GrayscaleAlpha: {8, 16},
	TruecolorAlpha: {8, 16},
}

type IHDR struct {
	Width             uint32
	Height            uint32
	BitDepth          byte
	ColorType         ColorType
	CompressionMethod byte
	FilterMethod      byte
	InterlaceMethod   byte
}

func parseIHDR(data []byte) (*IHDR, error) {
	if len(data) != 13 {
		return nil, oops.New(oops.KindInvalidHeader, "IHDR payload is %d bytes, want 13", len(data))
	}
	ihdr := &IHDR{
		Width:             utils.BytesToUint32(data[0:4]),
		Height:            utils.BytesToUint32(data[4:8]),
		BitDepth:          data[8],
		ColorType:         ColorType(data[9]),
		CompressionMethod: data[10],
		FilterMethod:      data[11],
		InterlaceMethod:   data[12],
	}
	if err := ihdr.validate(); err != nil {
		return nil, err
	}
	return ihdr, nil
}

func (ihdr *IHDR) validate() error {
	if ihdr.Width == 0 || ihdr.Width > 1<<31-1 {
		return oops.New(oops.KindInvalidHeader, "width %d is outside 1..2^31-1", ihdr.Width)
	}
	if ihdr.Height == 0 || ihdr.Height > 1<<31-1 {
		return oops.New(oops.KindInvalidHeader, "height %d is outside 1..2^31-1", ihdr.Height)
	}
	if ihdr.CompressionMethod != 0 {
		return oops.New(oops.KindInvalidHeader, "compression method %d is not supported", ihdr.CompressionMethod)
	}
	if ihdr.FilterMethod != 0 {
		return oops.New(oops.KindInvalidHeader, "filter method %d is not supported", ihdr.FilterMethod)
	}
	if ihdr.InterlaceMethod != 0 {
		return oops.New(oops.KindInvalidHeader, "interlace method %d is not supported", ihdr.InterlaceMethod)
	}

	depths, ok := allowedBitDepths[ihdr.ColorType]
	if !ok {
		return oops.New(oops.KindInvalidHeader, "color type %d is not valid", byte(ihdr.ColorType))
	}
	for _, d := range depths {
		if d == ihdr.BitDepth {
			return nil
		}
	}
	return oops.New(oops.KindInvalidHeader,
		"bit depth %d is not allowed for %s", ihdr.BitDepth, ihdr.ColorType)
}

// bytesPerPixel is the filter unit: the number of whole bytes a pixel
// occupies, with a minimum of one for sub-byte packings.
func (ihdr *IHDR) bytesPerPixel() int {
	bpp := (int(ihdr.BitDepth)*ihdr.ColorType.Channels() + 7) / 8
	if bpp < 1 {
		bpp = 1
	}
	return bpp
}

// stride is the number of bytes in one scanline, excluding the leading
// filter-type byte.
func (ihdr *IHDR) stride() int {
	return (int(ihdr.BitDepth)*ihdr.ColorType.Channels()*int(ihdr.Width) + 7) / 8
}
