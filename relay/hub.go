package relay

import (
	"context"
	"errors"
	"mjpeg-toolkit/metrics"
	"mjpeg-toolkit/util"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var (
	ErrClosed   = errors.New("hub closed")
	ErrNoFrames = errors.New("no frames to read")
)

// Hub fans completed frames out to any number of viewers. Slow viewers miss
// frames instead of slowing the publisher down.
type Hub struct {
	cfg      Config
	log      logrus.FieldLogger
	upgrader *websocket.Upgrader

	ids    util.IDGenerator
	subs   map[uint64]chan []byte
	latest []byte
	closed bool

	mu sync.RWMutex
}

func NewHub(cfg Config) *Hub {
	cfg = sanitizeConfig(cfg)
	return &Hub{
		cfg:      cfg,
		log:      cfg.Logger,
		upgrader: cfg.upgrader(),
		subs:     make(map[uint64]chan []byte),
	}
}

// Publish hands frame to every subscriber. The frame must not be modified
// afterwards. Publish has the signature of camera.Config.OnFrame.
func (h *Hub) Publish(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.latest = frame
	for _, ch := range h.subs {
		util.SendLatest(ch, frame)
	}
}

func (h *Hub) Latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// Subscribe registers a new viewer. The latest frame, if any, is delivered
// immediately.
func (h *Hub) Subscribe() (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	frames := make(chan []byte, h.cfg.QueueSize)
	if h.latest != nil {
		frames <- h.latest
	}
	s := &Subscription{
		id:     h.ids.Next(),
		frames: frames,
		hub:    h,
	}
	h.subs[s.id] = frames
	metrics.SetRelaySubscribers(len(h.subs))
	h.log.Debugf("Subscriber %d joined: %d active", s.id, len(h.subs))
	return s, nil
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription. Later publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
	metrics.SetRelaySubscribers(0)
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
		metrics.SetRelaySubscribers(len(h.subs))
	}
	h.log.Debugf("Subscriber %d left: %d remaining", id, len(h.subs))
}

// Subscription delivers frames to a single consumer.
type Subscription struct {
	id     uint64
	frames chan []byte
	hub    *Hub

	closeOnce sync.Once
}

func (s *Subscription) ID() uint64 {
	return s.id
}

// Frames is closed once the subscription or its hub is closed.
func (s *Subscription) Frames() <-chan []byte {
	return s.frames
}

// GetFrame blocks until the next frame arrives or ctx is done.
func (s *Subscription) GetFrame(ctx context.Context) ([]byte, error) {
	select {
	case frame, ok := <-s.frames:
		if !ok {
			return nil, ErrNoFrames
		}
		return frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.hub.unsubscribe(s.id)
	})
}
