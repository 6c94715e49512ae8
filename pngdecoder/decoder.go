package pngdecoder

import (
	"github.com/yzays8/ppng/compression"
	"github.com/yzays8/ppng/logging"
	"github.com/yzays8/ppng/oops"
)

// Image is the decoded result: a row-major, channel-interleaved sample
// array. Every sample is one byte, except at sample depth 16 where it
// is two bytes in network byte order.
type Image struct {
	Width       int
	Height      int
	Channels    int
	SampleDepth int
	Pix         []byte
	Header      IHDR
	Meta        Metadata
}

func newImage(ihdr *IHDR, channels, sampleDepth int, pix []byte) *Image {
	return &Image{
		Width:       int(ihdr.Width),
		Height:      int(ihdr.Height),
		Channels:    channels,
		SampleDepth: sampleDepth,
		Pix:         pix,
		Header:      *ihdr,
	}
}

// PngDecoder decodes a single in-memory PNG stream. It holds all its
// buffers exclusively; separate decoders may run in parallel.
type PngDecoder struct {
	data     []byte
	idx      int
	finished bool
}

func NewDecoder(data []byte) (*PngDecoder, error) {
	if !isPNG(data) {
		return nil, oops.New(oops.KindBadSignature, "first 8 bytes are not the PNG signature")
	}
	return &PngDecoder{
		data: data,
		idx:  len(pngSignature),
	}, nil
}

// Decode runs the whole pipeline: chunks in file order, the
// concatenated IDAT payload through zlib and deflate, filter reversal,
// and pixel unpacking.
func (p *PngDecoder) Decode() (*Image, error) {
	var (
		ihdr     *IHDR
		palette  []RGB
		idat     []byte
		meta     = Metadata{}
		seenPLTE bool
		idatDone bool
	)

	for {
		chunk, err := p.nextChunk()
		if err != nil {
			if oops.KindOf(err) == oops.KindTruncatedStream && p.idx == len(p.data) {
				return nil, oops.Wrap(oops.KindInvalidStructure, err, "stream ended without IEND")
			}
			return nil, err
		}
		if chunk == nil {
			break
		}

		if ihdr == nil && chunk.Type != "IHDR" {
			return nil, oops.New(oops.KindInvalidStructure, "first chunk is %q, want IHDR", chunk.Type)
		}
		// A single zlib stream spans all IDAT chunks, so nothing may
		// interleave with them.
		if len(idat) > 0 && chunk.Type != "IDAT" {
			idatDone = true
		}

		switch chunk.Type {
		case "IHDR":
			if ihdr != nil {
				return nil, oops.New(oops.KindInvalidStructure, "duplicate IHDR chunk")
			}
			ihdr, err = parseIHDR(chunk.Data)
			if err != nil {
				return nil, err
			}
			logging.Info().
				Uint32("width", ihdr.Width).
				Uint32("height", ihdr.Height).
				Uint8("bit_depth", ihdr.BitDepth).
				Str("color_type", ihdr.ColorType.String()).
				Uint8("interlace", ihdr.InterlaceMethod).
				Msg("IHDR")

		case "PLTE":
			if seenPLTE {
				return nil, oops.New(oops.KindInvalidStructure, "duplicate PLTE chunk")
			}
			if len(idat) > 0 {
				return nil, oops.New(oops.KindInvalidStructure, "PLTE chunk after IDAT")
			}
			seenPLTE = true
			switch ihdr.ColorType {
			case Grayscale, GrayscaleAlpha:
				return nil, oops.New(oops.KindInvalidPalette,
					"PLTE chunk is forbidden for %s", ihdr.ColorType)
			case Indexed:
				palette, err = parsePLTE(chunk.Data, ihdr.BitDepth)
				if err != nil {
					return nil, err
				}
			default:
				// A suggested palette for truecolor; decorative only.
				if _, err := parsePLTE(chunk.Data, 8); err != nil {
					return nil, err
				}
			}

		case "IDAT":
			if idatDone {
				return nil, oops.New(oops.KindInvalidStructure, "IDAT chunks are not contiguous")
			}
			idat = append(idat, chunk.Data...)

		case "IEND":
			if chunk.Length != 0 {
				return nil, oops.New(oops.KindInvalidStructure, "IEND payload is %d bytes, want 0", chunk.Length)
			}

		case "tEXt":
			record, err := parseTEXt(chunk.Data)
			if err != nil {
				return nil, err
			}
			meta.add(chunk.Type, record)
			logging.Info().Str("keyword", record.Keyword).Str("text", record.Text).Msg("tEXt")

		case "zTXt":
			record, err := parseZTXt(chunk.Data)
			if err != nil {
				return nil, err
			}
			meta.add(chunk.Type, record)
			logging.Info().Str("keyword", record.Keyword).Str("text", record.Text).Msg("zTXt")

		case "iTXt":
			record, err := parseITXt(chunk.Data)
			if err != nil {
				return nil, err
			}
			meta.add(chunk.Type, record)
			logging.Info().
				Str("keyword", record.Keyword).
				Str("lang", record.LanguageTag).
				Str("translated_keyword", record.TranslatedKeyword).
				Str("text", record.Text).
				Msg("iTXt")

		case "tIME":
			record, err := parseTIME(chunk.Data)
			if err != nil {
				return nil, err
			}
			meta.add(chunk.Type, record)
			logging.Info().
				Uint16("year", record.Year).
				Uint8("month", record.Month).
				Uint8("day", record.Day).
				Uint8("hour", record.Hour).
				Uint8("minute", record.Minute).
				Uint8("second", record.Second).
				Msg("tIME")

		case "gAMA":
			record, err := parseGAMA(chunk.Data)
			if err != nil {
				return nil, err
			}
			meta.add(chunk.Type, record)
			logging.Info().Float64("gamma", float64(record)/100000).Msg("gAMA")

		default:
			if chunk.Critical() {
				return nil, oops.New(oops.KindUnsupportedChunk, "unknown critical chunk %q", chunk.Type)
			}
			logging.Debug().Str("type", chunk.Type).Msg("skipping unknown ancillary chunk")
		}
	}

	if len(idat) == 0 {
		return nil, oops.New(oops.KindInvalidStructure, "no IDAT chunk")
	}
	if ihdr.ColorType == Indexed && palette == nil {
		return nil, oops.New(oops.KindInvalidPalette, "palette is missing for an indexed image")
	}
	logging.Debug().Int("idat_bytes", len(idat)).Msg("concatenated IDAT payload")

	stride := ihdr.stride()
	expected := int(ihdr.Height) * (1 + stride)
	decompressed, err := compression.InflateData(idat, expected)
	if err != nil {
		return nil, err
	}

	rows, err := reconstructFilters(decompressed, int(ihdr.Height), stride, ihdr.bytesPerPixel())
	if err != nil {
		return nil, err
	}

	img, err := unpackPixels(rows, ihdr, palette)
	if err != nil {
		return nil, err
	}
	img.Meta = meta
	return img, nil
}
