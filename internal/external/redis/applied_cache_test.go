package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppliedCache_Key(t *testing.T) {
	c := NewAppliedCache(nil, time.Hour)

	assert.Equal(t, "agri:payment:applied:order_1:pay_1", c.Key("order_1:pay_1"))
}

func TestAppliedCache_Unreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	c := NewAppliedCache(rdb, time.Hour)

	applied, err := c.IsApplied(context.Background(), "order_1:pay_1")
	require.Error(t, err)
	assert.False(t, applied)

	assert.Error(t, c.MarkApplied(context.Background(), "order_1:pay_1"))
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "not-a-url")

	assert.ErrorContains(t, err, "parse redis url")
}
