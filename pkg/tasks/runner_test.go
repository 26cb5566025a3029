package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wecantrust/donations-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test"})
}

func TestRunnerRunsTask(t *testing.T) {
	runner := NewRunner(testLogger(), time.Second)

	var ran atomic.Bool
	runner.Go("run", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	require.NoError(t, runner.Shutdown(context.Background()))
	require.True(t, ran.Load())
}

func TestRunnerRecoversPanic(t *testing.T) {
	runner := NewRunner(testLogger(), time.Second)

	runner.Go("boom", func(ctx context.Context) error {
		panic("boom")
	})

	require.NoError(t, runner.Shutdown(context.Background()))
}

func TestRunnerRejectsAfterShutdown(t *testing.T) {
	runner := NewRunner(testLogger(), time.Second)
	require.NoError(t, runner.Shutdown(context.Background()))

	var ran atomic.Bool
	runner.Go("late", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	time.Sleep(20 * time.Millisecond)
	require.False(t, ran.Load())
}

func TestRunnerShutdownHonorsContext(t *testing.T) {
	runner := NewRunner(testLogger(), 5*time.Second)

	release := make(chan struct{})
	runner.Go("slow", func(ctx context.Context) error {
		<-release
		return errors.New("late")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.Error(t, runner.Shutdown(ctx))
	close(release)
}
