package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/kitstore-backend/pkg/logger"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type blockingConsumer struct{ started chan struct{} }

func (b *blockingConsumer) Run(ctx context.Context) error {
	close(b.started)
	<-ctx.Done()
	return ctx.Err()
}

type failingConsumer struct{ err error }

func (f failingConsumer) Run(context.Context) error { return f.err }

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard})
}

func TestNewServiceRequiresConsumers(t *testing.T) {
	_, err := NewService(ServiceParams{Logger: testLogger()})
	require.Error(t, err)
}

func TestRunStopsOnReadinessFailure(t *testing.T) {
	consumer := &blockingConsumer{started: make(chan struct{})}
	service, err := NewService(ServiceParams{
		Logger:       testLogger(),
		Dependencies: []dependency{{name: "redis", pinger: fakePinger{err: errors.New("down")}}},
		Consumers:    []namedConsumer{{name: "notifications", consumer: consumer}},
	})
	require.NoError(t, err)

	err = service.Run(context.Background())
	require.ErrorContains(t, err, "redis ping failed")
	select {
	case <-consumer.started:
		t.Fatal("consumer started despite failed readiness")
	default:
	}
}

func TestRunCancelsSiblingsWhenConsumerFails(t *testing.T) {
	blocking := &blockingConsumer{started: make(chan struct{})}
	service, err := NewService(ServiceParams{
		Logger:       testLogger(),
		Dependencies: []dependency{{name: "database", pinger: fakePinger{}}},
		Consumers: []namedConsumer{
			{name: "notifications", consumer: blocking},
			{name: "analytics", consumer: failingConsumer{err: errors.New("subscription gone")}},
		},
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- service.Run(context.Background()) }()

	select {
	case err := <-done:
		require.ErrorContains(t, err, "analytics consumer: subscription gone")
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after consumer failure")
	}
}

func TestRunReturnsContextErrorOnShutdown(t *testing.T) {
	blocking := &blockingConsumer{started: make(chan struct{})}
	service, err := NewService(ServiceParams{
		Logger:    testLogger(),
		Consumers: []namedConsumer{{name: "notifications", consumer: blocking}},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	<-blocking.started
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
