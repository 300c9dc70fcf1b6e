package camera

import (
	"errors"
	"fmt"
	"io"
	"mjpeg-toolkit/frame"
	"mjpeg-toolkit/stream"
)

var (
	ErrBadStatus      = errors.New("unexpected response status")
	ErrNotStarted     = errors.New("reader was never started")
	ErrAlreadyStarted = errors.New("reader already started")
	ErrGaveUp         = errors.New("giving up on stream")

	errDisabled = errors.New("owner disabled")
)

// Kind classifies fatal session failures.
type Kind int

const (
	KindUnknown Kind = iota
	// The peer never answered, or answered with a non-2xx status
	KindConnect
	// The content type carries no usable boundary
	KindHeader
	// The byte stream did not look like an MJPEG stream
	KindFraming
	// Reading the body failed or the stream ended
	KindRead
)

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindHeader:
		return "header"
	case KindFraming:
		return "framing"
	case KindRead:
		return "read"
	}
	return "unknown"
}

// SessionError is the error every fatal session condition is reported as.
type SessionError struct {
	Kind    Kind
	Session string
	Err     error
}

func (e *SessionError) Error() string {
	switch e.Kind {
	case KindConnect:
		return fmt.Sprintf("connection failed: %v", e.Err)
	case KindHeader:
		return fmt.Sprintf("malformed content type: %v", e.Err)
	case KindFraming:
		return fmt.Sprintf("framing failed: %v", e.Err)
	case KindRead:
		if errors.Is(e.Err, io.EOF) {
			return "stream ended"
		}
		return fmt.Sprintf("stream read failed: %v", e.Err)
	}
	return e.Err.Error()
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind carried by err, KindUnknown if none.
func KindOf(err error) Kind {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

func classify(id string, err error) error {
	kind := KindRead
	switch {
	case errors.Is(err, frame.ErrMissingBoundary):
		kind = KindHeader
	case errors.Is(err, stream.ErrStartNotFound), errors.Is(err, stream.ErrFrameTooLarge):
		kind = KindFraming
	}
	return &SessionError{Kind: kind, Session: id, Err: err}
}
