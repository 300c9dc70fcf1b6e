package archive

import (
	"bytes"
	"io"
	"math/rand"
	"mjpeg-toolkit/util/mocks"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestArchive(t *testing.T) {
	rand := rand.New(rand.NewSource(0))
	frames := [][]byte{mocks.JPEG(rand, 16), mocks.JPEG(rand, 4096), mocks.JPEG(rand, 70000)}
	start := time.Unix(1700000000, 123)
	buf := &bytes.Buffer{}

	t.Run("write", func(t *testing.T) {
		require := require.New(t)
		w := NewWriter(buf, DefaultConfig())
		for i, f := range frames {
			rec, err := w.WriteFrame(start.Add(time.Duration(i)*time.Second), f)
			require.Nil(err)
			require.EqualValues(i+1, rec.Seq)
		}
	})

	t.Run("read", func(t *testing.T) {
		require := require.New(t)
		r := NewReader(bytes.NewReader(buf.Bytes()), DefaultConfig())
		for i, f := range frames {
			rec, err := r.ReadFrame()
			require.Nil(err)
			require.EqualValues(i+1, rec.Seq)
			require.True(start.Add(time.Duration(i) * time.Second).Equal(rec.Time))
			require.Equal(f, rec.Data)
		}
		_, err := r.ReadFrame()
		require.Equal(io.EOF, err)
	})

	t.Run("truncated", func(t *testing.T) {
		require := require.New(t)
		r := NewReader(bytes.NewReader(buf.Bytes()[:100]), DefaultConfig())
		_, err := r.ReadFrame()
		require.Nil(err)
		_, err = r.ReadFrame()
		require.Equal(io.ErrUnexpectedEOF, err)
	})

	t.Run("record too large", func(t *testing.T) {
		require := require.New(t)
		r := NewReader(bytes.NewReader(buf.Bytes()), Config{MaxFrameSize: 1024})
		_, err := r.ReadFrame()
		require.Nil(err)
		_, err = r.ReadFrame()
		require.Equal(ErrRecordTooLarge, err)
	})
}
