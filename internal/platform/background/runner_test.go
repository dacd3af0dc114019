package background

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunnerLogsFailuresWithoutPropagating(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := NewRunner(logger.NewWithCore(core), time.Second)

	if ok := r.Go("boom", func(ctx context.Context) error { return errors.New("vector store down") }); !ok {
		t.Fatalf("Go: expected task to be accepted")
	}
	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	warned := logs.FilterMessage("Background task failed").All()
	if len(warned) != 1 {
		t.Fatalf("warn entries: want=1 got=%d", len(warned))
	}
	if warned[0].ContextMap()["task"] != "boom" {
		t.Fatalf("task field: got=%v", warned[0].ContextMap()["task"])
	}
}

func TestRunnerRecoversPanics(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := NewRunner(logger.NewWithCore(core), time.Second)

	r.Go("panicky", func(ctx context.Context) error { panic("nope") })
	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if n := logs.FilterMessage("Background task failed").Len(); n != 1 {
		t.Fatalf("warn entries: want=1 got=%d", n)
	}
}

func TestRunnerAppliesTaskTimeout(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	r := NewRunner(logger.NewWithCore(core), 20*time.Millisecond)

	var sawDeadline atomic.Bool
	r.Go("slow", func(ctx context.Context) error {
		<-ctx.Done()
		sawDeadline.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	})
	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !sawDeadline.Load() {
		t.Fatalf("expected task context to hit its deadline")
	}
}

func TestRunnerRejectsAfterShutdown(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	r := NewRunner(logger.NewWithCore(core), time.Second)
	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if r.Go("late", func(ctx context.Context) error { return nil }) {
		t.Fatalf("Go: expected rejection after shutdown")
	}
}

func TestRunnerNotifiesObserver(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	var failed atomic.Int32
	r := NewRunner(logger.NewWithCore(core), time.Second, WithObserver(func(name string, err error) {
		if err != nil {
			failed.Add(1)
		}
	}))
	r.Go("ok", func(ctx context.Context) error { return nil })
	r.Go("bad", func(ctx context.Context) error { return errors.New("x") })
	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := failed.Load(); got != 1 {
		t.Fatalf("failed: want=1 got=%d", got)
	}
}
