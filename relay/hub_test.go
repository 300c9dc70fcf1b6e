package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHub(t *testing.T) {
	t.Run("publish and subscribe", func(t *testing.T) {
		require := require.New(t)
		h := NewHub(DefaultConfig())
		defer h.Close()
		require.Nil(h.Latest())

		sub, err := h.Subscribe()
		require.Nil(err)
		require.Equal(1, h.Subscribers())

		h.Publish([]byte("one"))
		frame, err := sub.GetFrame(context.Background())
		require.Nil(err)
		require.Equal("one", string(frame))
		require.Equal("one", string(h.Latest()))

		sub.Close()
		sub.Close()
		require.Equal(0, h.Subscribers())
		_, err = sub.GetFrame(context.Background())
		require.Equal(ErrNoFrames, err)
	})

	t.Run("late subscriber gets latest frame", func(t *testing.T) {
		require := require.New(t)
		h := NewHub(DefaultConfig())
		defer h.Close()

		h.Publish([]byte("one"))
		h.Publish([]byte("two"))
		sub, err := h.Subscribe()
		require.Nil(err)
		defer sub.Close()
		frame, err := sub.GetFrame(context.Background())
		require.Nil(err)
		require.Equal("two", string(frame))
	})

	t.Run("slow subscriber drops oldest", func(t *testing.T) {
		require := require.New(t)
		h := NewHub(DefaultConfig())
		defer h.Close()

		sub, err := h.Subscribe()
		require.Nil(err)
		defer sub.Close()
		for _, s := range []string{"1", "2", "3", "4", "5"} {
			h.Publish([]byte(s))
		}
		require.Equal("4", string(<-sub.Frames()))
		require.Equal("5", string(<-sub.Frames()))
	})

	t.Run("single slot queue keeps newest", func(t *testing.T) {
		require := require.New(t)
		h := NewHub(Config{QueueSize: 1})
		defer h.Close()

		sub, err := h.Subscribe()
		require.Nil(err)
		defer sub.Close()
		for _, s := range []string{"1", "2", "3"} {
			h.Publish([]byte(s))
		}
		require.Equal("3", string(<-sub.Frames()))
	})

	t.Run("get frame honours context", func(t *testing.T) {
		require := require.New(t)
		h := NewHub(DefaultConfig())
		defer h.Close()

		sub, err := h.Subscribe()
		require.Nil(err)
		defer sub.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = sub.GetFrame(ctx)
		require.Equal(context.DeadlineExceeded, err)
	})

	t.Run("close ends subscriptions", func(t *testing.T) {
		require := require.New(t)
		h := NewHub(DefaultConfig())

		sub, err := h.Subscribe()
		require.Nil(err)
		h.Close()
		h.Close()
		_, err = sub.GetFrame(context.Background())
		require.Equal(ErrNoFrames, err)
		sub.Close()

		_, err = h.Subscribe()
		require.Equal(ErrClosed, err)
		h.Publish([]byte("ignored"))
		require.Nil(h.Latest())
	})

	t.Run("subscription ids", func(t *testing.T) {
		require := require.New(t)
		h := NewHub(DefaultConfig())
		defer h.Close()

		a, err := h.Subscribe()
		require.Nil(err)
		b, err := h.Subscribe()
		require.Nil(err)
		require.NotEqual(a.ID(), b.ID())
	})
}

func TestConfig(t *testing.T) {
	require := require.New(t)
	cfg := sanitizeConfig(Config{})
	require.Equal(defaultQueueSize, cfg.QueueSize)
	require.Equal(defaultWriteWait, cfg.WriteWait)
	require.NotNil(cfg.Logger)
	require.True(cfg.CheckOrigin(nil))

	cfg = sanitizeConfig(Config{QueueSize: 1})
	require.Equal(1, cfg.QueueSize)
}
