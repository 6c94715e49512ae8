package pngdecoder

import (
	"github.com/yzays8/ppng/checksum"
	"github.com/yzays8/ppng/logging"
	"github.com/yzays8/ppng/oops"
	"github.com/yzays8/ppng/utils"
)

// Chunk is one length-prefixed, type-tagged, CRC-terminated record of
// the PNG container. The CRC covers the type and the payload, not the
// length.
type Chunk struct {
	Length uint32
	Type   string
	Data   []byte
	CRC    uint32
}

// Critical reports whether the chunk is critical (uppercase first type
// letter) as opposed to ancillary.
func (c *Chunk) Critical() bool {
	return c.Type[0] >= 'A' && c.Type[0] <= 'Z'
}

// nextChunk reads and validates one chunk. It returns (nil, nil) once
// IEND has already been emitted.
func (p *PngDecoder) nextChunk() (*Chunk, error) {
	if p.finished {
		return nil, nil
	}
	chunkStart := p.idx

	lengthBytes, err := p.tryAdvance(4)
	if err != nil {
		return nil, err
	}
	length := utils.BytesToUint32(lengthBytes)
	if length > 1<<31-1 {
		return nil, oops.New(oops.KindInvalidStructure,
			"chunk length %d at offset %d exceeds 2^31-1", length, chunkStart)
	}
	chunkType, err := p.tryAdvance(4)
	if err != nil {
		return nil, err
	}
	chunkData, err := p.tryAdvance(int(length))
	if err != nil {
		return nil, err
	}
	crcBytes, err := p.tryAdvance(4)
	if err != nil {
		return nil, err
	}
	crc := utils.BytesToUint32(crcBytes)

	calculated := checksum.FinalizeCRC32(
		checksum.UpdateCRC32(checksum.UpdateCRC32(checksum.NewCRC32(), chunkType), chunkData))
	if calculated != crc {
		return nil, oops.New(oops.KindChecksumMismatch,
			"CRC-32 of chunk %q at offset %d is %#08x, want %#08x",
			string(chunkType), chunkStart, calculated, crc)
	}

	if string(chunkType) == "IEND" {
		p.finished = true
	}
	logging.Debug().
		Str("type", string(chunkType)).
		Uint32("length", length).
		Int("offset", chunkStart).
		Msg("chunk")

	return &Chunk{
		Length: length,
		Type:   string(chunkType),
		Data:   chunkData,
		CRC:    crc,
	}, nil
}

func (p *PngDecoder) tryAdvance(length int) ([]byte, error) {
	if p.idx+length > len(p.data) {
		return nil, oops.New(oops.KindTruncatedStream,
			"wanted %d bytes at offset %d but only %d remain", length, p.idx, len(p.data)-p.idx)
	}
	p.idx += length
	return p.data[p.idx-length : p.idx], nil
}
