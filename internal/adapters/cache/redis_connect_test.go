package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnectRejectsEmptyAddress(t *testing.T) {
	t.Parallel()

	_, err := Connect(context.Background(), "")
	require.Error(t, err)
}

func TestConnectAcceptsURLAndHostPort(t *testing.T) {
	t.Parallel()

	fromURL, err := Connect(context.Background(), "redis://localhost:6379/2")
	require.NoError(t, err)
	require.Equal(t, "localhost:6379", fromURL.Options().Addr)
	require.Equal(t, 2, fromURL.Options().DB)
	require.NoError(t, fromURL.Close())

	fromAddr, err := Connect(context.Background(), "localhost:6380")
	require.NoError(t, err)
	require.Equal(t, "localhost:6380", fromAddr.Options().Addr)
	require.NoError(t, fromAddr.Close())
}
