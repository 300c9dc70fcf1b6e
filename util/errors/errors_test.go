package errors

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsClientGone(t *testing.T) {
	require := require.New(t)
	require.False(IsClientGone(nil))
	require.False(IsClientGone(io.EOF))
	require.True(IsClientGone(fmt.Errorf("write: %w", syscall.EPIPE)))
	require.True(IsClientGone(io.ErrClosedPipe))
	require.True(IsClientGone(errors.New("client disconnected")))
	require.True(IsClientGone(errors.New("http2: stream closed")))
}

func TestIsTimeout(t *testing.T) {
	require := require.New(t)
	require.False(IsTimeout(io.EOF))
	require.True(IsTimeout(fmt.Errorf("read: %w", os.ErrDeadlineExceeded)))
}
