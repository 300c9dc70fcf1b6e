package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAsyncNotify(t *testing.T) {
	require := require.New(t)
	ch := make(chan struct{}, 1)
	AsyncNotify(ch)
	AsyncNotify(ch)
	require.Len(ch, 1)
	<-ch
	require.Len(ch, 0)
}

func TestSendLatest(t *testing.T) {
	require := require.New(t)
	ch := make(chan int, 2)
	for i := 1; i <= 5; i++ {
		SendLatest(ch, i)
	}
	require.Equal(4, <-ch)
	require.Equal(5, <-ch)
}
