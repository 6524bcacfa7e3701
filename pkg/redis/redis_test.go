package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNotConnectedBehavior(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	assert.False(t, IsConnected())

	_, err := Get(ctx, "k")
	assert.Error(t, err)

	assert.Error(t, Set(ctx, "k", "v", time.Minute))

	_, err = Del(ctx, "k")
	assert.Error(t, err)

	// 未连接时关闭是no-op
	assert.NoError(t, Close())
}
