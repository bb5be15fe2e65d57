package lifecycle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/noderadar/pkg/logger"
)

type recordingService struct {
	started atomic.Bool
	stopped atomic.Bool
	err     error
}

func (s *recordingService) Start(ctx context.Context) error {
	s.started.Store(true)

	if s.err != nil {
		return s.err
	}

	<-ctx.Done()

	return ctx.Err()
}

func (s *recordingService) Stop(context.Context) error {
	s.stopped.Store(true)
	return nil
}

func TestRunServerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	a, b := &recordingService{}, &recordingService{}

	done := make(chan error, 1)
	go func() {
		done <- RunServer(ctx, &ServerOptions{
			ServiceName: "test",
			Services:    []Service{a, b},
			Logger:      logger.NewTestLogger(),
		})
	}()

	require.Eventually(t, func() bool { return a.started.Load() && b.started.Load() }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RunServer did not return")
	}

	assert.True(t, a.stopped.Load())
	assert.True(t, b.stopped.Load())
}

func TestRunServerPropagatesFailure(t *testing.T) {
	boom := errors.New("boom")
	failing := &recordingService{err: boom}
	healthy := &recordingService{}

	err := RunServer(context.Background(), &ServerOptions{
		ServiceName: "test",
		Services:    []Service{healthy, failing},
	})

	require.ErrorIs(t, err, boom)
	assert.True(t, healthy.stopped.Load())
}

func TestRunServerRequiresServices(t *testing.T) {
	require.ErrorIs(t, RunServer(context.Background(), &ServerOptions{}), errNoServices)
}

func TestServiceFunc(t *testing.T) {
	called := false
	svc := ServiceFunc(func(context.Context) error {
		called = true
		return nil
	})

	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Stop(context.Background()))
	assert.True(t, called)
}
