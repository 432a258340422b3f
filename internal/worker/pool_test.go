package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_MapFillsEverySlot(t *testing.T) {
	p := NewPool(4, 2)
	p.Start()
	defer p.Stop()

	out := make([]int, 50)
	err := p.Map(context.Background(), len(out), func(_ context.Context, i int) {
		out[i] = i * i
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range out {
		if v != i*i {
			t.Fatalf("slot %d: got %d, want %d", i, v, i*i)
		}
	}
}

func TestPool_MapBoundsConcurrency(t *testing.T) {
	const workers = 3
	p := NewPool(workers, 10)
	p.Start()
	defer p.Stop()

	var inFlight, peak int32
	err := p.Map(context.Background(), 20, func(_ context.Context, _ int) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak > workers {
		t.Fatalf("peak concurrency %d exceeds %d workers", peak, workers)
	}
}

func TestPool_MapCanceledContext(t *testing.T) {
	p := NewPool(1, 1)
	p.Start()
	defer p.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int32
	err := p.Map(ctx, 100, func(_ context.Context, _ int) {
		atomic.AddInt32(&ran, 1)
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n := atomic.LoadInt32(&ran); n != 0 {
		t.Fatalf("expected no tasks to run, ran %d", n)
	}
}

func TestPool_StoppedPool(t *testing.T) {
	p := NewPool(1, 1)
	p.Start()
	p.Stop()
	p.Stop()

	if p.Submit(func() {}) {
		t.Fatalf("submit on stopped pool should report false")
	}
	if err := p.Map(context.Background(), 1, func(context.Context, int) {}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestPool_SubmitRunsJob(t *testing.T) {
	p := NewPool(1, 1)
	p.Start()

	done := make(chan struct{})
	if !p.Submit(func() { close(done) }) {
		t.Fatalf("expected job to be queued")
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("job did not run")
	}
	p.Stop()
}
