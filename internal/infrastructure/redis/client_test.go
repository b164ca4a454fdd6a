package redis

import (
	"context"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientAppliesConfig(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := NewClient(context.Background(), ClientConfig{
		URL:        fmt.Sprintf("redis://%s/0", s.Addr()),
		ClientName: "farmledger-test",
		PoolSize:   3,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, 3, client.Options().PoolSize)
	assert.Equal(t, "farmledger-test", client.Options().ClientName)
	assert.Equal(t, defaultDialTimeout, client.Options().DialTimeout)
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), ClientConfig{URL: "://bad-url"})
	assert.ErrorContains(t, err, "parse redis URL")
}

func TestNewClientUnreachable(t *testing.T) {
	s := miniredis.RunT(t)
	url := fmt.Sprintf("redis://%s", s.Addr())
	s.Close()

	_, err := NewClient(context.Background(), ClientConfig{URL: url})
	assert.ErrorContains(t, err, "ping redis")
}

func TestPingReportsOutage(t *testing.T) {
	s := miniredis.RunT(t)
	client, err := NewClient(context.Background(), ClientConfig{URL: "redis://" + s.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	check := Ping(client)
	require.NoError(t, check(context.Background()))

	s.SetError("LOADING")
	assert.Error(t, check(context.Background()))
}
