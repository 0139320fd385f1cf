package main

import (
	"context"
	"testing"

	"studiobooking/internal/config"
	"studiobooking/internal/pkg/keylock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Nothing listens on port 1, so the ping fails straight away.
const deadRedis = "127.0.0.1:1"

func TestNewLocker_InProcessWithoutRedis(t *testing.T) {
	locks, closeFn, err := newLocker(context.Background(), &config.Config{AppEnv: "prod"}, zap.NewNop())
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &keylock.Memory{}, locks)
}

func TestNewLocker_UnreachableRedisFailsInProd(t *testing.T) {
	cfg := &config.Config{AppEnv: "production", RedisAddr: deadRedis}
	locks, _, err := newLocker(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Nil(t, locks)
	assert.Contains(t, err.Error(), deadRedis)
}

func TestNewLocker_UnreachableRedisFallsBackInDev(t *testing.T) {
	cfg := &config.Config{AppEnv: "dev", RedisAddr: deadRedis}
	locks, closeFn, err := newLocker(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &keylock.Memory{}, locks)
}
