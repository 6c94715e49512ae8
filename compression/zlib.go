package compression

import (
	"github.com/yzays8/ppng/checksum"
	"github.com/yzays8/ppng/logging"
	"github.com/yzays8/ppng/oops"
)

var compressionLevelNames = [4]string{"fastest", "fast", "default", "maximum, slowest"}

// InflateData decompresses a zlib stream (RFC 1950): a two-byte CMF/FLG
// header, a deflate payload, and a big-endian Adler-32 trailer over the
// decompressed bytes. sizeHint pre-sizes the output and may be 0.
func InflateData(data []byte, sizeHint int) ([]byte, error) {
	s := NewBitStream(data)

	header, err := s.ReadBytes(2)
	if err != nil {
		return nil, err
	}
	cmf, flg := header[0], header[1]
	if (uint32(cmf)<<8|uint32(flg))%31 != 0 {
		return nil, oops.New(oops.KindInvalidZlib, "header check failed (CMF %#02x, FLG %#02x)", cmf, flg)
	}
	if cm := cmf & 0x0F; cm != 8 {
		return nil, oops.New(oops.KindInvalidZlib, "compression method %d is not deflate", cm)
	}
	if cinfo := cmf >> 4; cinfo > 7 {
		return nil, oops.New(oops.KindInvalidZlib, "CINFO %d exceeds 7", cinfo)
	}
	if flg&0x20 != 0 {
		return nil, oops.New(oops.KindInvalidZlib, "preset dictionaries are not supported")
	}
	logging.Debug().
		Str("level", compressionLevelNames[flg>>6]).
		Msg("zlib header")

	output, err := Inflate(s, sizeHint)
	if err != nil {
		return nil, err
	}

	trailer, err := s.ReadUint32BE()
	if err != nil {
		return nil, err
	}
	calculated := checksum.Adler32(output)
	if trailer != calculated {
		return nil, oops.New(oops.KindChecksumMismatch,
			"adler-32 trailer %#08x does not match %#08x over %d decompressed bytes",
			trailer, calculated, len(output))
	}
	return output, nil
}
