package netem

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrInjected = errors.New("netem: injected read error")

type Config struct {
	// Maximum number of bytes returned by a single read.
	// Zero value means no emulation of fragmentation.
	ReadFragmentSize int
	// Reads fail with ReadError once this many bytes have been delivered.
	// Zero value means reads never fail.
	ReadFailAfter int64
	// Error returned once ReadFailAfter is reached, ErrInjected if nil.
	ReadError error
	// Delay before every read to emulate a slow peer.
	ReadDelay time.Duration
}

// Reader wraps a byte stream and emulates a misbehaving network underneath it.
type Reader struct {
	r io.Reader

	readFragmentSize int64
	readFailAfter    int64
	readDelay        int64
	readError        atomic.Value

	delivered int64
	reads     uint64

	mu sync.Mutex
}

func New(r io.Reader, cfg Config) *Reader {
	ne := &Reader{r: r}
	ne.Update(cfg)
	return ne
}

func (ne *Reader) Read(b []byte) (int, error) {
	ne.mu.Lock()
	defer ne.mu.Unlock()
	if len(b) <= 0 {
		return 0, nil
	}

	logFields := logrus.Fields{
		"op":      "read",
		"counter": atomic.AddUint64(&ne.reads, 1),
	}

	if d := time.Duration(atomic.LoadInt64(&ne.readDelay)); d > 0 {
		time.Sleep(d)
	}

	// Simulate fragmentation
	if fs := int(atomic.LoadInt64(&ne.readFragmentSize)); fs > 0 && fs < len(b) {
		b = b[:fs]
	}

	// Simulate a connection dropping after a number of bytes
	if limit := atomic.LoadInt64(&ne.readFailAfter); limit > 0 {
		remaining := limit - ne.delivered
		if remaining <= 0 {
			err, _ := ne.readError.Load().(error)
			log.WithFields(logFields).Debugf("Simulating read failure after %d bytes", ne.delivered)
			return 0, err
		}
		if int64(len(b)) > remaining {
			b = b[:remaining]
		}
	}

	n, err := ne.r.Read(b)
	ne.delivered += int64(n)
	log.WithFields(logFields).Debugf("Read %d bytes", n)
	return n, err
}

func (ne *Reader) Delivered() int64 {
	ne.mu.Lock()
	defer ne.mu.Unlock()
	return ne.delivered
}

// Update the config for emulation.
// Takes effect on the next read.
func (ne *Reader) Update(cfg Config) {
	if cfg.ReadError == nil {
		cfg.ReadError = ErrInjected
	}
	atomic.StoreInt64(&ne.readFragmentSize, int64(cfg.ReadFragmentSize))
	atomic.StoreInt64(&ne.readFailAfter, cfg.ReadFailAfter)
	atomic.StoreInt64(&ne.readDelay, int64(cfg.ReadDelay))
	ne.readError.Store(cfg.ReadError)
}

func (ne *Reader) Reset() {
	ne.Update(Config{})
}

type readCloser struct {
	*Reader
	io.Closer
}

// NewReadCloser is New for streams that need closing, such as HTTP response bodies.
func NewReadCloser(rc io.ReadCloser, cfg Config) io.ReadCloser {
	return readCloser{New(rc, cfg), rc}
}
