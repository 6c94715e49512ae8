package pngdecoder

import (
	"bytes"

	"github.com/yzays8/ppng/compression"
	"github.com/yzays8/ppng/logging"
	"github.com/yzays8/ppng/oops"
	"github.com/yzays8/ppng/utils"
)

// Metadata collects the parsed ancillary records, keyed by the chunk
// type they came from. Records are stored, never applied to pixels.
type Metadata map[string][]interface{}

func (m Metadata) add(chunkType string, record interface{}) {
	m[chunkType] = append(m[chunkType], record)
}

// Text is a tEXt or zTXt record. The text is Latin-1 in the file and
// re-encoded as UTF-8 here.
type Text struct {
	Keyword string
	Text    string
}

// IntlText is an iTXt record; both keyword translations and the text
// itself are UTF-8 already.
type IntlText struct {
	Keyword           string
	LanguageTag       string
	TranslatedKeyword string
	Text              string
}

// ModTime is a tIME record, UTC per the PNG specification.
type ModTime struct {
	Year   uint16
	Month  byte
	Day    byte
	Hour   byte
	Minute byte
	Second byte
}

// Gamma is a gAMA record: image gamma times 100000.
type Gamma uint32

// RGB is one palette entry.
type RGB struct {
	R, G, B byte
}

func latin1ToUTF8(data []byte) string {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

func parseTEXt(data []byte) (Text, error) {
	keyword, text, found := bytes.Cut(data, []byte{0})
	if !found {
		return Text{}, oops.New(oops.KindInvalidStructure, "tEXt chunk has no keyword terminator")
	}
	return Text{
		Keyword: latin1ToUTF8(keyword),
		Text:    latin1ToUTF8(text),
	}, nil
}

func parseZTXt(data []byte) (Text, error) {
	keyword, rest, found := bytes.Cut(data, []byte{0})
	if !found || len(rest) < 1 {
		return Text{}, oops.New(oops.KindInvalidStructure, "zTXt chunk is malformed")
	}
	if method := rest[0]; method != 0 {
		return Text{}, oops.New(oops.KindInvalidStructure,
			"zTXt compression method %d is not supported", method)
	}
	text, err := compression.InflateData(rest[1:], 0)
	if err != nil {
		return Text{}, err
	}
	return Text{
		Keyword: latin1ToUTF8(keyword),
		Text:    latin1ToUTF8(text),
	}, nil
}

func parseITXt(data []byte) (IntlText, error) {
	keyword, rest, found := bytes.Cut(data, []byte{0})
	if !found || len(rest) < 2 {
		return IntlText{}, oops.New(oops.KindInvalidStructure, "iTXt chunk is malformed")
	}
	compressionFlag := rest[0]
	if method := rest[1]; method != 0 {
		return IntlText{}, oops.New(oops.KindInvalidStructure,
			"iTXt compression method %d is not supported", method)
	}
	languageTag, rest, found := bytes.Cut(rest[2:], []byte{0})
	if !found {
		return IntlText{}, oops.New(oops.KindInvalidStructure, "iTXt chunk has no language tag terminator")
	}
	translatedKeyword, text, found := bytes.Cut(rest, []byte{0})
	if !found {
		return IntlText{}, oops.New(oops.KindInvalidStructure, "iTXt chunk has no translated keyword terminator")
	}
	if compressionFlag != 0 {
		inflated, err := compression.InflateData(text, 0)
		if err != nil {
			return IntlText{}, err
		}
		text = inflated
	}
	return IntlText{
		Keyword:           string(keyword),
		LanguageTag:       string(languageTag),
		TranslatedKeyword: string(translatedKeyword),
		Text:              string(text),
	}, nil
}

func parseTIME(data []byte) (ModTime, error) {
	if len(data) != 7 {
		return ModTime{}, oops.New(oops.KindInvalidStructure, "tIME payload is %d bytes, want 7", len(data))
	}
	return ModTime{
		Year:   utils.BytesToUint16(data[0:2]),
		Month:  data[2],
		Day:    data[3],
		Hour:   data[4],
		Minute: data[5],
		Second: data[6],
	}, nil
}

func parseGAMA(data []byte) (Gamma, error) {
	if len(data) != 4 {
		return 0, oops.New(oops.KindInvalidStructure, "gAMA payload is %d bytes, want 4", len(data))
	}
	return Gamma(utils.BytesToUint32(data)), nil
}

// parsePLTE splits the payload into RGB triples. The entry count may not
// exceed 2^bitDepth; indices past the last entry are caught at unpacking.
func parsePLTE(data []byte, bitDepth byte) ([]RGB, error) {
	if len(data) == 0 || len(data)%3 != 0 {
		return nil, oops.New(oops.KindInvalidStructure,
			"PLTE payload of %d bytes is not a non-empty multiple of 3", len(data))
	}
	entries := len(data) / 3
	if entries > 1<<bitDepth {
		return nil, oops.New(oops.KindInvalidStructure,
			"PLTE has %d entries but bit depth %d allows at most %d", entries, bitDepth, 1<<bitDepth)
	}
	palette := make([]RGB, entries)
	for i := range palette {
		palette[i] = RGB{data[i*3], data[i*3+1], data[i*3+2]}
	}
	logging.Debug().Int("entries", entries).Msg("PLTE")
	return palette, nil
}
