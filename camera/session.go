package camera

import (
	"context"
	"fmt"
	"io"
	"mjpeg-toolkit/frame"
	"mjpeg-toolkit/stream"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Session is one connection to a camera: the open response body, the boundary
// derived from its headers and the reassembler consuming it.
// A session is never reused; restarting means opening a new one.
type Session struct {
	id       string
	url      string
	boundary []byte

	body   io.ReadCloser
	reader *stream.Reader
	log    logrus.FieldLogger

	closeOnce sync.Once
	closeErr  error
}

// Open connects to url and waits for the response headers. If ctx is cancelled
// while waiting, the response is closed and ctx.Err() returned.
func Open(ctx context.Context, url string, cfg Config) (*Session, error) {
	cfg = sanitizeConfig(cfg)
	id := uuid.NewString()
	logger := cfg.Logger.WithFields(logrus.Fields{
		"session": id,
		"url":     url,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &SessionError{Kind: KindConnect, Session: id, Err: err}
	}
	for k, vs := range cfg.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	logger.Debug("Connecting")
	resp, err := cfg.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &SessionError{Kind: KindConnect, Session: id, Err: err}
	}
	// The owner may have gone away while we waited for the peer
	if err := ctx.Err(); err != nil {
		resp.Body.Close()
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		resp.Body.Close()
		return nil, &SessionError{
			Kind:    KindConnect,
			Session: id,
			Err:     fmt.Errorf("%w: %s", ErrBadStatus, resp.Status),
		}
	}
	boundary, err := frame.ParseBoundary(resp.Header.Get("Content-Type"))
	if err != nil {
		resp.Body.Close()
		return nil, classify(id, err)
	}

	logger.WithField("boundary", string(boundary)).Debug("Connected")
	return &Session{
		id:       id,
		url:      url,
		boundary: boundary,
		body:     resp.Body,
		reader:   stream.New(resp.Body, boundary, cfg.Stream),
		log:      logger,
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) URL() string {
	return s.url
}

// Boundary returns the multipart delimiter, including its leading dashes.
func (s *Session) Boundary() []byte {
	return s.boundary
}

func (s *Session) State() stream.State {
	return s.reader.State()
}

// Step performs one reassembly step, see stream.Reader.Step.
// Failures are returned as *SessionError.
func (s *Session) Step() ([]byte, error) {
	b, err := s.reader.Step()
	if err != nil {
		return nil, classify(s.id, err)
	}
	return b, nil
}

// Next blocks until the next frame.
func (s *Session) Next() ([]byte, error) {
	b, err := s.reader.Next()
	if err != nil {
		return nil, classify(s.id, err)
	}
	return b, nil
}

// Close closes the response body. It is safe to call more than once and
// concurrently with Step, which then fails.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
		s.log.Debug("Closed")
	})
	return s.closeErr
}
