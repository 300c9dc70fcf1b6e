package stream

import (
	"errors"
	"io"
	"iter"
	"mjpeg-toolkit/frame"
)

var (
	ErrStartNotFound = errors.New("start marker not located")
	ErrFrameTooLarge = errors.New("frame exceeds buffer capacity")
)

type State int

const (
	AwaitingStart State = iota
	Accumulating
	Failed
)

func (s State) String() string {
	switch s {
	case AwaitingStart:
		return "awaiting-start"
	case Accumulating:
		return "accumulating"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Reader reassembles JPEG frames from a multipart/x-mixed-replace body.
//
// A frame starts at the JPEG start marker and ends right before the next boundary
// token. The reader is not safe for concurrent use.
type Reader struct {
	r        io.Reader
	boundary []byte
	start    []byte

	chunkSize int
	maxFrame  int

	// Working buffer. After an emission it holds the bytes read past the boundary.
	window []byte
	// Frame buffer. Besides a frame of up to maxFrame bytes it holds the boundary and
	// the rest of the chunk read past it.
	buf []byte
	// Offset in buf where the next boundary scan begins
	scanned int

	state State
	eof   bool
	err   error
}

func New(r io.Reader, boundary []byte, cfg Config) *Reader {
	cfg = sanitizeConfig(cfg)
	return &Reader{
		r:         r,
		boundary:  append([]byte(nil), boundary...),
		start:     []byte(frame.StartMarker),
		chunkSize: cfg.ChunkSize,
		maxFrame:  cfg.BufferSize,
		window:    make([]byte, 0, cfg.ChunkSize),
		buf:       make([]byte, 0, cfg.BufferSize+cfg.ChunkSize+len(boundary)),
	}
}

func (r *Reader) State() State {
	return r.state
}

// Err returns the error that moved the reader to the Failed state.
func (r *Reader) Err() error {
	return r.err
}

// Step performs one reassembly step. It returns a completed frame, or nil while the
// frame is still accumulating. Any error is terminal: subsequent calls return it again.
// io.EOF means the stream ended cleanly between frames.
//
// The returned frame is a copy owned by the caller.
func (r *Reader) Step() ([]byte, error) {
	switch r.state {
	case Failed:
		return nil, r.err
	case AwaitingStart:
		return r.awaitStart()
	default:
		return r.accumulate()
	}
}

// Next steps until a frame is completed or the reader fails.
func (r *Reader) Next() ([]byte, error) {
	for {
		b, err := r.Step()
		if err != nil {
			return nil, err
		}
		if b != nil {
			return b, nil
		}
	}
}

// Frames returns a lazy sequence of frames. The sequence ends at io.EOF; other
// errors are yielded once before it ends.
func (r *Reader) Frames() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			b, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(b, err) || err != nil {
				return
			}
		}
	}
}

func (r *Reader) awaitStart() ([]byte, error) {
	// Carried-over bytes are topped up to a full chunk, an empty window is read fresh
	if err := r.fill(); err != nil {
		return nil, r.fail(err)
	}
	s := frame.Index(r.window, r.start)
	if s == frame.NotFound {
		if r.eof {
			return nil, r.fail(io.EOF)
		}
		return nil, r.fail(ErrStartNotFound)
	}
	r.buf = r.buf[:0]
	if err := r.append(r.window[s:]); err != nil {
		return nil, r.fail(err)
	}
	r.window = r.window[:0]
	r.scanned = len(r.start)
	r.state = Accumulating
	return r.scan()
}

func (r *Reader) accumulate() ([]byte, error) {
	n, err := r.read(r.window[:r.chunkSize])
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, r.fail(err)
	}
	if err := r.append(r.window[:n]); err != nil {
		return nil, r.fail(err)
	}
	return r.scan()
}

// scan looks for the boundary in the part of the frame buffer not checked yet. On a
// hit it emits the frame and carries the remaining bytes over to the next frame.
// Every offset below scanned has been checked, so once scanned passes maxFrame no
// frame that fits can end here.
func (r *Reader) scan() ([]byte, error) {
	i := frame.Index(r.buf[r.scanned:], r.boundary)
	if i == frame.NotFound {
		r.scanned = frame.Resume(r.scanned, len(r.buf), len(r.boundary))
		if r.scanned > r.maxFrame {
			return nil, r.fail(ErrFrameTooLarge)
		}
		return nil, nil
	}
	end := r.scanned + i
	if end > r.maxFrame {
		return nil, r.fail(ErrFrameTooLarge)
	}
	b := make([]byte, end)
	copy(b, r.buf[:end])

	r.window = append(r.window[:0], r.buf[end:]...)
	r.buf = r.buf[:0]
	r.scanned = 0
	r.state = AwaitingStart
	return b, nil
}

func (r *Reader) append(b []byte) error {
	if len(r.buf)+len(b) > cap(r.buf) {
		return ErrFrameTooLarge
	}
	r.buf = append(r.buf, b...)
	return nil
}

// fill tops the working buffer up to one chunk.
func (r *Reader) fill() error {
	have := len(r.window)
	if have >= r.chunkSize {
		return nil
	}
	if cap(r.window) < r.chunkSize {
		w := make([]byte, have, r.chunkSize)
		copy(w, r.window)
		r.window = w
	}
	n, err := r.read(r.window[have:r.chunkSize])
	r.window = r.window[:have+n]
	if errors.Is(err, io.EOF) && have > 0 {
		return nil
	}
	return err
}

// read fills b from the underlying reader. A short read at the end of the stream
// is not an error; io.EOF is returned only when nothing was read.
func (r *Reader) read(b []byte) (int, error) {
	if r.eof {
		return 0, io.EOF
	}
	n, err := io.ReadFull(r.r, b)
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		r.eof = true
		return n, nil
	case errors.Is(err, io.EOF):
		r.eof = true
		return 0, io.EOF
	}
	return n, err
}

func (r *Reader) fail(err error) error {
	r.state = Failed
	r.err = err
	r.buf = r.buf[:0]
	r.window = r.window[:0]
	return err
}
