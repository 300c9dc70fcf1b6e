package mocks

import (
	"bytes"
	"io"
	"math/rand"
	"mime/multipart"
	"mjpeg-toolkit/frame"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJPEG(t *testing.T) {
	require := require.New(t)
	rand := rand.New(rand.NewSource(0))
	b := JPEG(rand, 64)
	require.Len(b, 64)
	require.True(bytes.HasPrefix(b, []byte(frame.StartMarker)))
	require.NotContains(string(b), "-")
}

func TestStream(t *testing.T) {
	require := require.New(t)
	b := Stream([]byte("--b"), []byte("x"), []byte("\xFF\xD81"), []byte("\xFF\xD82"))
	require.Equal("x\xFF\xD81--bx\xFF\xD82--b\r\n", string(b))
}

func TestCamera(t *testing.T) {
	require := require.New(t)
	rand := rand.New(rand.NewSource(0))
	frames := [][]byte{JPEG(rand, 32), JPEG(rand, 48)}
	cam := &Camera{Frames: frames, Boundary: "frame"}
	srv := httptest.NewServer(cam)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.Nil(err)
	defer resp.Body.Close()
	require.Equal("multipart/x-mixed-replace; boundary=frame", resp.Header.Get("Content-Type"))

	mr := multipart.NewReader(resp.Body, "frame")
	for _, expected := range frames {
		part, err := mr.NextPart()
		require.Nil(err)
		require.Equal("image/jpeg", part.Header.Get("Content-Type"))
		actual, err := io.ReadAll(part)
		require.Nil(err)
		require.Equal(expected, actual)
	}
	_, err = mr.NextPart()
	require.Equal(io.EOF, err)
	require.Equal(1, cam.Requests())
}
