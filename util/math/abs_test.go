package math

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAbsDuration(t *testing.T) {
	require := require.New(t)
	require.Equal(time.Duration(1), AbsDuration(-1))
	require.Equal(time.Duration(1), AbsDuration(1))
	require.Equal(time.Second, AbsDuration(-time.Second))
	require.Equal(time.Duration(0), AbsDuration(0))
}
