package archive

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarInt(t *testing.T) {
	tests := []struct {
		name  string
		value uint64
		size  int
	}{
		{"1-byte varint", 8, 1},
		{"2-bytes varint", math.MaxUint8, 2},
		{"4-bytes varint", math.MaxUint16, 4},
		{"8-bytes varint", math.MaxUint32, 8},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require := require.New(t)
			b, err := AppendVarInt(nil, tc.value)
			require.Nil(err)
			require.Len(b, tc.size)
			v, err := ReadVarInt(bytes.NewReader(b))
			require.Nil(err)
			require.Equal(tc.value, v)
		})
	}

	t.Run("too large", func(t *testing.T) {
		_, err := AppendVarInt(nil, math.MaxUint64)
		require.Equal(t, ErrVarIntTooLarge, err)
	})

	t.Run("truncated", func(t *testing.T) {
		require := require.New(t)
		b, err := AppendVarInt(nil, math.MaxUint32)
		require.Nil(err)
		_, err = ReadVarInt(bytes.NewReader(b[:3]))
		require.Equal(io.ErrUnexpectedEOF, err)
		_, err = ReadVarInt(bytes.NewReader(nil))
		require.Equal(io.EOF, err)
	})
}
