package camera

import (
	"mjpeg-toolkit/stream"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultName              = "camera"
	defaultRestartInitial    = 500 * time.Millisecond
	defaultRestartMax        = 30 * time.Second
	defaultMaxHeaderFailures = 2

	minMaxHeaderFailures = 1
)

type Config struct {
	// Name identifies the source in logs and metrics.
	Name string

	Stream stream.Config

	// HTTP client used to open sessions. The stream is long-lived, so the client
	// should not carry an overall timeout.
	Client *http.Client
	// Headers copied onto every request, e.g. Authorization.
	Header http.Header

	// Called synchronously with every completed frame. The frame must be treated
	// as read-only. Must not call Stop or Restart.
	OnFrame func(frame []byte)
	// Called with every fatal session failure. Must not call Stop or Restart.
	OnFailure func(err error)
	// Gates re-establishing a session. nil means always enabled.
	Enabled func() bool

	// Delay between teardown and re-establishment, growing exponentially.
	RestartInitial time.Duration
	RestartMax     time.Duration
	// Consecutive header failures after which the reader gives up.
	MaxHeaderFailures int

	// Optional logger, the package logger if nil
	Logger logrus.FieldLogger
}

func DefaultConfig() Config {
	return Config{
		Name:              defaultName,
		Stream:            stream.DefaultConfig(),
		Client:            &http.Client{},
		RestartInitial:    defaultRestartInitial,
		RestartMax:        defaultRestartMax,
		MaxHeaderFailures: defaultMaxHeaderFailures,
		Logger:            log,
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Name == "" {
		cfg.Name = defaultName
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if cfg.RestartInitial <= 0 {
		cfg.RestartInitial = defaultRestartInitial
	}
	if cfg.RestartMax < cfg.RestartInitial {
		cfg.RestartMax = cfg.RestartInitial
	}
	if cfg.MaxHeaderFailures < minMaxHeaderFailures {
		cfg.MaxHeaderFailures = defaultMaxHeaderFailures
	}
	if cfg.Logger == nil {
		cfg.Logger = log
	}
	return cfg
}
