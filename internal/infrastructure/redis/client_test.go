package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/internal/config"
)

func TestOptions(t *testing.T) {
	opts, err := Options(config.RedisConfig{URL: "redis://:urlpass@cache:6380/2"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "urlpass", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, dialTimeout, opts.DialTimeout)

	opts, err = Options(config.RedisConfig{URL: "redis://cache:6380/2", Password: "explicit", DB: 5})
	require.NoError(t, err)
	assert.Equal(t, "explicit", opts.Password)
	assert.Equal(t, 5, opts.DB)

	_, err = Options(config.RedisConfig{URL: "http://cache"})
	assert.Error(t, err)
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	mr.Close()
	_, err = NewClient(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr()})
	assert.Error(t, err)
}
