// Package archive records emitted frames into a flat, append-only file.
//
// Every record is laid out as varint(seq) varint(unix nanoseconds) varint(length)
// followed by the raw encoded image.
package archive

import (
	"bufio"
	"errors"
	"io"
	uio "mjpeg-toolkit/util/io"
	"sync"
	"time"
)

const (
	defaultBufferSize = 65535
	defaultMaxFrame   = 16 * 1024 * 1024

	minBufferSize = 512
)

var ErrRecordTooLarge = errors.New("archive record exceeds maximum frame size")

type Config struct {
	BufferSize int
	// Largest frame accepted when reading back
	MaxFrameSize int
}

func DefaultConfig() Config {
	return Config{
		BufferSize:   defaultBufferSize,
		MaxFrameSize: defaultMaxFrame,
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.BufferSize < minBufferSize {
		cfg.BufferSize = minBufferSize
	}
	if cfg.MaxFrameSize <= 0 {
		cfg.MaxFrameSize = defaultMaxFrame
	}
	return cfg
}

type Record struct {
	Seq  uint64
	Time time.Time
	Data []byte
}

type Writer struct {
	writer *bufio.Writer
	header []byte
	seq    uint64
	mu     sync.Mutex
}

func NewWriter(w io.Writer, cfg Config) *Writer {
	cfg = sanitizeConfig(cfg)
	return &Writer{
		writer: bufio.NewWriterSize(w, cfg.BufferSize),
		header: make([]byte, 0, 24),
	}
}

// WriteFrame appends one frame and flushes it to the underlying writer.
// It is safe to call from a frame callback.
func (w *Writer) WriteFrame(ts time.Time, data []byte) (Record, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rec := Record{Seq: w.seq + 1, Time: ts, Data: data}

	var err error
	h := w.header[:0]
	if h, err = AppendVarInt(h, rec.Seq); err != nil {
		return rec, err
	}
	if h, err = AppendVarInt(h, uint64(ts.UnixNano())); err != nil {
		return rec, err
	}
	if h, err = AppendVarInt(h, uint64(len(data))); err != nil {
		return rec, err
	}
	w.header = h

	if err := uio.WriteFull(w.writer, h); err != nil {
		return rec, err
	}
	if err := uio.WriteFull(w.writer, data); err != nil {
		return rec, err
	}
	if err := w.writer.Flush(); err != nil {
		return rec, err
	}
	w.seq = rec.Seq
	return rec, nil
}

type Reader struct {
	reader   *bufio.Reader
	maxFrame int
}

func NewReader(r io.Reader, cfg Config) *Reader {
	cfg = sanitizeConfig(cfg)
	return &Reader{
		reader:   bufio.NewReaderSize(r, cfg.BufferSize),
		maxFrame: cfg.MaxFrameSize,
	}
}

// ReadFrame returns the next record, or io.EOF once the archive is exhausted.
// A record cut short yields io.ErrUnexpectedEOF.
func (r *Reader) ReadFrame() (Record, error) {
	var rec Record
	seq, err := ReadVarInt(r.reader)
	if err != nil {
		return rec, err
	}
	ts, err := ReadVarInt(r.reader)
	if err != nil {
		return rec, noEOF(err)
	}
	length, err := ReadVarInt(r.reader)
	if err != nil {
		return rec, noEOF(err)
	}
	if length > uint64(r.maxFrame) {
		return rec, ErrRecordTooLarge
	}
	data, err := uio.ReadBytes(r.reader, int(length))
	if err != nil {
		return rec, err
	}
	rec.Seq = seq
	rec.Time = time.Unix(0, int64(ts))
	rec.Data = data
	return rec, nil
}
