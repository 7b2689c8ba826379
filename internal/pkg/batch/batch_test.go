package batch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunIsolatesFailures(t *testing.T) {
	boom := errors.New("boom")
	tasks := []Task[int]{
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context) (int, error) { return 0, boom },
		func(ctx context.Context) (int, error) {
			time.Sleep(5 * time.Millisecond)
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			return 3, nil
		},
	}
	res := Run(context.Background(), 0, tasks)
	if len(res) != 3 {
		t.Fatalf("want 3 results, got %d", len(res))
	}
	if !res[0].OK() || res[0].Value != 1 {
		t.Fatalf("task 0: %+v", res[0])
	}
	if !errors.Is(res[1].Err, boom) {
		t.Fatalf("task 1: want boom, got %v", res[1].Err)
	}
	if !res[2].OK() || res[2].Value != 3 {
		t.Fatalf("task 2 should not be canceled by sibling failure: %+v", res[2])
	}
	if Succeeded(res) != 2 {
		t.Fatalf("Succeeded: want 2 got %d", Succeeded(res))
	}
	if vals := Values(res); len(vals) != 2 || vals[0] != 1 || vals[1] != 3 {
		t.Fatalf("Values: got %v", vals)
	}
}

func TestRunCapturesPanics(t *testing.T) {
	res := Run(context.Background(), 1, []Task[string]{
		func(context.Context) (string, error) { panic("kaboom") },
		func(context.Context) (string, error) { return "ok", nil },
	})
	var pe *PanicError
	if !errors.As(res[0].Err, &pe) {
		t.Fatalf("want PanicError, got %v", res[0].Err)
	}
	if res[1].Value != "ok" {
		t.Fatalf("sibling of panicking task: %+v", res[1])
	}
}

func TestMapRespectsLimit(t *testing.T) {
	var inFlight, peak int32
	in := []int{1, 2, 3, 4, 5, 6}
	res := Map(context.Background(), 2, in, func(_ context.Context, v int) (int, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return v * 10, nil
	})
	if peak > 2 {
		t.Fatalf("limit exceeded: peak=%d", peak)
	}
	for i, r := range res {
		if r.Value != in[i]*10 {
			t.Fatalf("result %d out of order: %+v", i, r)
		}
	}
}
