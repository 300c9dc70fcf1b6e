package errors

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// IsClientGone reports whether a write failed because the peer went away.
func IsClientGone(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	switch err.Error() {
	case "http2: stream closed", "client disconnected":
		return true
	}
	return false
}

func IsTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
