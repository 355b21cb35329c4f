package training

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestRunParallel_RunsEveryTask(t *testing.T) {
	var ran int64
	tasks := make([]func(context.Context) error, 20)
	for i := range tasks {
		tasks[i] = func(context.Context) error {
			atomic.AddInt64(&ran, 1)
			return nil
		}
	}
	if err := RunParallel(context.Background(), 4, tasks); err != nil {
		t.Fatal(err)
	}
	if ran != 20 {
		t.Errorf("ran %d tasks, want 20", ran)
	}
}

func TestRunParallel_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	tasks := []func(context.Context) error{
		func(context.Context) error { return nil },
		func(context.Context) error { return boom },
		func(context.Context) error { return nil },
	}
	if err := RunParallel(context.Background(), 2, tasks); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestRunParallel_CancelledContextSkipsWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int64
	tasks := make([]func(context.Context) error, 10)
	for i := range tasks {
		tasks[i] = func(context.Context) error {
			atomic.AddInt64(&ran, 1)
			return nil
		}
	}
	if err := RunParallel(ctx, 2, tasks); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if ran != 0 {
		t.Errorf("%d tasks ran under a cancelled context", ran)
	}
}

func TestRunParallel_NoTasks(t *testing.T) {
	if err := RunParallel(context.Background(), 4, nil); err != nil {
		t.Fatal(err)
	}
}
