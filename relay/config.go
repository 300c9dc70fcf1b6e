package relay

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	defaultQueueSize = 2
	defaultWriteWait = 10 * time.Second

	// Publish spins on an unbuffered queue
	minQueueSize = 1
)

type Config struct {
	// Frames queued per subscriber before the oldest is dropped.
	QueueSize int
	// Write deadline for every websocket message.
	WriteWait time.Duration
	// Origin check for websocket upgrades. nil accepts every origin.
	CheckOrigin func(req *http.Request) bool
	// Optional logger, the package logger if nil
	Logger logrus.FieldLogger
}

func DefaultConfig() Config {
	return Config{
		QueueSize: defaultQueueSize,
		WriteWait: defaultWriteWait,
		Logger:    log,
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.QueueSize < minQueueSize {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = defaultWriteWait
	}
	if cfg.CheckOrigin == nil {
		cfg.CheckOrigin = func(*http.Request) bool { return true }
	}
	if cfg.Logger == nil {
		cfg.Logger = log
	}
	return cfg
}

func (cfg Config) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: cfg.CheckOrigin,
	}
}
