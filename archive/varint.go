package archive

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	uio "mjpeg-toolkit/util/io"
)

const (
	flagUint6 uint8 = iota
	flagUint14
	flagUint30
	flagUint62
)

const (
	maxUint6  = math.MaxUint8 / 4
	maxUint14 = math.MaxUint16 / 4
	maxUint30 = math.MaxUint32 / 4
	maxUint62 = math.MaxUint64 / 4
)

var ErrVarIntTooLarge = errors.New("value too large to encode into varint")

// AppendVarInt appends v to b using the two-bit length prefix encoding.
func AppendVarInt(b []byte, v uint64) ([]byte, error) {
	var flag uint8
	start := len(b)
	switch {
	case v > maxUint62:
		return b, ErrVarIntTooLarge
	case v > maxUint30:
		b = binary.BigEndian.AppendUint64(b, v)
		flag = flagUint62
	case v > maxUint14:
		b = binary.BigEndian.AppendUint32(b, uint32(v))
		flag = flagUint30
	case v > maxUint6:
		b = binary.BigEndian.AppendUint16(b, uint16(v))
		flag = flagUint14
	default:
		b = append(b, byte(v))
		flag = flagUint6
	}
	b[start] = (flag << 6) | (b[start] & 0x3F)
	return b, nil
}

func ReadVarInt(r io.Reader) (uint64, error) {
	firstByte, err := uio.ReadByte(r)
	if err != nil {
		return 0, err
	}
	var buf [8]byte
	buf[0] = firstByte & 0x3F
	size := 1 << ((firstByte >> 6) & 0x03)
	if size > 1 {
		if _, err := io.ReadFull(r, buf[1:size]); err != nil {
			return 0, noEOF(err)
		}
	}
	switch size {
	case 8:
		return binary.BigEndian.Uint64(buf[:8]), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(buf[:4])), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(buf[:2])), nil
	default:
		return uint64(buf[0]), nil
	}
}

// noEOF turns io.EOF into io.ErrUnexpectedEOF for reads that already consumed part of a value.
func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
