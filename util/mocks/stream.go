package mocks

import (
	"bytes"
	"io"
	"math/rand"
	"mjpeg-toolkit/frame"
)

// JPEG returns a fake encoded image of the given size: the start marker followed by
// random bytes. The body never contains '-' so it cannot collide with a boundary.
func JPEG(rand *rand.Rand, size int) []byte {
	if size < len(frame.StartMarker) {
		size = len(frame.StartMarker)
	}
	b := make([]byte, size)
	copy(b, frame.StartMarker)
	body := b[len(frame.StartMarker):]
	_, _ = io.ReadFull(rand, body)
	for i, c := range body {
		if c == '-' {
			body[i] = '.'
		}
	}
	return b
}

// Stream lays frames out as [filler][frame][boundary] repeated, followed by a CRLF
// so the last boundary is not the final byte of the stream.
func Stream(boundary, filler []byte, frames ...[]byte) []byte {
	buf := &bytes.Buffer{}
	for _, f := range frames {
		buf.Write(filler)
		buf.Write(f)
		buf.Write(boundary)
	}
	buf.WriteString("\r\n")
	return buf.Bytes()
}
