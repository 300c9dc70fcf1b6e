package camera

import (
	"context"
	"errors"
	"fmt"
	"mjpeg-toolkit/metrics"
	"mjpeg-toolkit/util"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
)

// Reader keeps a camera stream flowing: it opens a session, drives it frame by
// frame and, on any fatal failure, tears it down and opens a fresh one.
// Only one session is alive at a time.
type Reader struct {
	cfg Config
	log logrus.FieldLogger

	url     string
	cancel  context.CancelFunc
	done    chan struct{}
	session *Session
	current []byte
	err     error

	updated   chan struct{}
	intervals IntervalEstimator

	mu sync.Mutex
}

func New(cfg Config) *Reader {
	cfg = sanitizeConfig(cfg)
	return &Reader{
		cfg:     cfg,
		log:     cfg.Logger.WithField("source", cfg.Name),
		updated: make(chan struct{}, 1),
	}
}

// Start begins listening to url in the background.
func (r *Reader) Start(url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.url = url
	r.cancel = cancel
	r.done = make(chan struct{})
	r.err = nil
	go r.run(ctx, url, r.done)
	return nil
}

// Stop halts the reader and closes the open session, if any, waiting for the
// background loop to exit. It is safe to call repeatedly and before Start.
func (r *Reader) Stop() {
	r.mu.Lock()
	cancel, done, session := r.cancel, r.done, r.session
	r.cancel, r.done = nil, nil
	if cancel != nil {
		cancel()
	}
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	if session != nil {
		// Unblocks a pending read
		session.Close()
	}
	<-done
}

// Restart reports cause, if any, then stops and starts the reader again on the
// last URL, unless the owner is no longer enabled.
func (r *Reader) Restart(cause error) error {
	if cause != nil {
		r.log.Errorf("Restarting due to: %v", cause)
	}
	r.mu.Lock()
	url := r.url
	r.mu.Unlock()

	r.Stop()
	if !r.enabled() {
		return nil
	}
	if url == "" {
		return ErrNotStarted
	}
	return r.Start(url)
}

func (r *Reader) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// CurrentFrame returns the most recently completed frame, nil before the first.
// The frame must be treated as read-only.
func (r *Reader) CurrentFrame() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Updated is signalled whenever CurrentFrame changes. Signals coalesce.
func (r *Reader) Updated() <-chan struct{} {
	return r.updated
}

func (r *Reader) Stats() Stats {
	return r.intervals.Stats()
}

// Err returns the error the reader gave up with, nil while it keeps trying.
func (r *Reader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Reader) run(ctx context.Context, url string, done chan struct{}) {
	defer close(done)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.cfg.RestartInitial
	bo.MaxInterval = r.cfg.RestartMax
	bo.Reset()

	headerFailures := 0
	for {
		opened, frames, err := r.runSession(ctx, url)
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, errDisabled) {
			r.log.Info("Owner disabled, not listening")
			r.detach(done, nil)
			return
		}
		if opened {
			headerFailures = 0
		}
		if frames > 0 {
			bo.Reset()
		}

		r.report(err)
		if KindOf(err) == KindHeader {
			headerFailures++
			if headerFailures >= r.cfg.MaxHeaderFailures {
				err = fmt.Errorf("%w after %d attempts: %w", ErrGaveUp, headerFailures, err)
				r.log.Error(err)
				r.notify(err)
				r.detach(done, err)
				return
			}
		}

		if !r.enabled() {
			r.log.Info("Owner disabled, not restarting")
			r.detach(done, nil)
			return
		}
		wait := bo.NextBackOff()
		r.log.Debugf("Restarting in %s", wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
	}
}

// runSession opens a session and drives it until it fails or ctx is cancelled.
func (r *Reader) runSession(ctx context.Context, url string) (opened bool, frames int, err error) {
	s, err := Open(ctx, url, r.cfg)
	if err != nil {
		return false, 0, err
	}

	// Re-check that the session is still wanted before switching to the read loop
	if !r.enabled() {
		s.Close()
		return true, 0, errDisabled
	}
	r.mu.Lock()
	if err := ctx.Err(); err != nil {
		r.mu.Unlock()
		s.Close()
		return true, 0, err
	}
	r.session = s
	r.mu.Unlock()
	r.intervals.Break()

	metrics.RecordSessionStart(r.cfg.Name)
	defer func() {
		r.mu.Lock()
		r.session = nil
		r.mu.Unlock()
		s.Close()
		metrics.RecordSessionEnd(r.cfg.Name)
	}()

	logger := r.log.WithField("session", s.ID())
	logger.Info("Session established")
	for {
		if err := ctx.Err(); err != nil {
			return true, frames, err
		}
		b, err := s.Step()
		if err != nil {
			return true, frames, err
		}
		if b == nil {
			// Still accumulating
			continue
		}
		frames++
		r.emit(b)
	}
}

func (r *Reader) emit(b []byte) {
	r.mu.Lock()
	r.current = b
	r.mu.Unlock()
	r.intervals.Observe(time.Now())
	metrics.RecordFrame(r.cfg.Name, len(b))
	util.AsyncNotify(r.updated)
	if r.cfg.OnFrame != nil {
		r.cfg.OnFrame(b)
	}
}

func (r *Reader) report(err error) {
	kind := KindOf(err)
	r.log.WithField("kind", kind).Warnf("Session failed: %v", err)
	metrics.RecordFailure(r.cfg.Name, kind.String())
	r.notify(err)
}

func (r *Reader) notify(err error) {
	if r.cfg.OnFailure != nil {
		r.cfg.OnFailure(err)
	}
}

// detach marks the loop owning done as finished on its own.
func (r *Reader) detach(done chan struct{}, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != done {
		return
	}
	r.cancel()
	r.cancel, r.done = nil, nil
	r.err = err
}

func (r *Reader) enabled() bool {
	return r.cfg.Enabled == nil || r.cfg.Enabled()
}
