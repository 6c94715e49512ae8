package utils

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

func BytesToUint32(data []byte) uint32 {
	return binary.BigEndian.Uint32(data)
}

func BytesToUint16(data []byte) uint16 {
	return binary.BigEndian.Uint16(data)
}

// NetpbmExt picks the conventional file extension for the Netpbm flavor
// that WriteNetpbm emits for the given channel count.
func NetpbmExt(channels int) string {
	switch channels {
	case 1:
		return ".pgm"
	case 3:
		return ".ppm"
	default:
		return ".pam"
	}
}

// WriteNetpbm writes a decoded sample array as a Netpbm image: PGM for
// one channel, PPM for three, PAM for the alpha-carrying layouts PGM
// and PPM cannot express. Samples are expected one byte each, or two
// bytes big endian when sampleDepth is 16, which is exactly the Netpbm
// raster byte order.
func WriteNetpbm(w io.Writer, width, height, channels, sampleDepth int, pix []byte) error {
	bw := bufio.NewWriter(w)

	maxval := 255
	if sampleDepth == 16 {
		maxval = 65535
	}

	var err error
	switch channels {
	case 1:
		_, err = fmt.Fprintf(bw, "P5\n%d %d\n%d\n", width, height, maxval)
	case 3:
		_, err = fmt.Fprintf(bw, "P6\n%d %d\n%d\n", width, height, maxval)
	case 2, 4:
		tupltype := "GRAYSCALE_ALPHA"
		if channels == 4 {
			tupltype = "RGB_ALPHA"
		}
		_, err = fmt.Fprintf(bw, "P7\nWIDTH %d\nHEIGHT %d\nDEPTH %d\nMAXVAL %d\nTUPLTYPE %s\nENDHDR\n",
			width, height, channels, maxval, tupltype)
	default:
		return fmt.Errorf("cannot express %d channels as Netpbm", channels)
	}
	if err != nil {
		return err
	}

	if _, err := bw.Write(pix); err != nil {
		return err
	}
	return bw.Flush()
}
