package pngdecoder

import (
	"github.com/yzays8/ppng/oops"
)

// Sub-byte grayscale samples are scaled to the 8-bit domain: the factor
// maps the maximum coded value to 0xFF.
var grayScaleFactor = map[byte]byte{
	1: 0xFF,
	2: 0x55,
	4: 0x11,
}

// unpackRow splits one reconstructed scanline of sub-byte samples into
// raw sample values, one per byte. Packing within a byte is MSB-first,
// the leftmost pixel in the high-order bits; trailing bits of the last
// byte are padding.
func unpackRow(row []byte, width int, bitDepth byte) []byte {
	samplesPerByte := 8 / int(bitDepth)
	mask := byte(1)<<bitDepth - 1
	out := make([]byte, width)
	for j := 0; j < width; j++ {
		shift := 8 - int(bitDepth)*(j%samplesPerByte+1)
		out[j] = row[j/samplesPerByte] >> shift & mask
	}
	return out
}

// unpackPixels resolves bit depth and color type into the canonical
// pixel array: one byte per sample, except two big-endian bytes at bit
// depth 16. Palette indices come out as RGB triples, and sub-byte
// grayscale is scaled to the 8-bit domain.
func unpackPixels(rows [][]byte, ihdr *IHDR, palette []RGB) (*Image, error) {
	width, height := int(ihdr.Width), int(ihdr.Height)

	sampleDepth := 8
	if ihdr.BitDepth == 16 {
		sampleDepth = 16
	}

	switch ihdr.ColorType {
	case Grayscale:
		pix := make([]byte, 0, width*height*sampleDepth/8)
		for _, row := range rows {
			if ihdr.BitDepth < 8 {
				samples := unpackRow(row, width, ihdr.BitDepth)
				factor := grayScaleFactor[ihdr.BitDepth]
				for _, s := range samples {
					pix = append(pix, s*factor)
				}
			} else {
				pix = append(pix, row...)
			}
		}
		return newImage(ihdr, 1, sampleDepth, pix), nil

	case Indexed:
		if len(palette) == 0 {
			return nil, oops.New(oops.KindInvalidPalette, "palette is missing for an indexed image")
		}
		pix := make([]byte, 0, width*height*3)
		for _, row := range rows {
			samples := row
			if ihdr.BitDepth < 8 {
				samples = unpackRow(row, width, ihdr.BitDepth)
			}
			for _, index := range samples {
				if int(index) >= len(palette) {
					return nil, oops.New(oops.KindInvalidPalette,
						"palette index %d is out of range for %d entries", index, len(palette))
				}
				entry := palette[index]
				pix = append(pix, entry.R, entry.G, entry.B)
			}
		}
		return newImage(ihdr, 3, 8, pix), nil

	default:
		// Truecolor and the alpha-carrying types are already one or two
		// bytes per sample in channel order; 16-bit stays big endian.
		pix := make([]byte, 0, height*ihdr.stride())
		for _, row := range rows {
			pix = append(pix, row...)
		}
		return newImage(ihdr, ihdr.ColorType.Channels(), sampleDepth, pix), nil
	}
}
