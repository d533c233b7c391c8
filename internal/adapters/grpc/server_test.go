package grpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestWatchReadinessFlipsHealthStatus(t *testing.T) {
	t.Parallel()

	var down atomic.Bool
	srv := NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)), func(context.Context) error {
		if down.Load() {
			return errors.New("postgres unreachable")
		}
		return nil
	})
	status := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := srv.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
		require.NoError(t, err)
		return resp.GetStatus()
	}
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.WatchReadiness(ctx, 5*time.Millisecond) }()

	down.Store(true)
	require.Eventually(t, func() bool { return status() == healthpb.HealthCheckResponse_NOT_SERVING }, time.Second, 5*time.Millisecond)
	down.Store(false)
	require.Eventually(t, func() bool { return status() == healthpb.HealthCheckResponse_SERVING }, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatchReadinessWithoutCheckWaitsForCancel(t *testing.T) {
	t.Parallel()

	srv := NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, srv.WatchReadiness(ctx, time.Millisecond), context.Canceled)
}
