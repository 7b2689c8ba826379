// Package batch runs independent tasks concurrently and reports one Result per
// task. A failing or panicking task never cancels its siblings.
package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) OK() bool { return r.Err == nil }

type Task[T any] func(ctx context.Context) (T, error)

// Run executes tasks with at most limit in flight (limit <= 0 means unbounded)
// and returns results in input order.
func Run[T any](ctx context.Context, limit int, tasks []Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))
	if len(tasks) == 0 {
		return results
	}
	// ctx is passed through unchanged so one failure cannot cancel siblings.
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			results[i] = runOne(ctx, task)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Map is Run over a slice of inputs.
func Map[In, Out any](ctx context.Context, limit int, in []In, fn func(ctx context.Context, item In) (Out, error)) []Result[Out] {
	tasks := make([]Task[Out], len(in))
	for i := range in {
		item := in[i]
		tasks[i] = func(ctx context.Context) (Out, error) { return fn(ctx, item) }
	}
	return Run(ctx, limit, tasks)
}

// Values returns the successful values in input order.
func Values[T any](results []Result[T]) []T {
	out := make([]T, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Value)
		}
	}
	return out
}

// Succeeded counts results without an error.
func Succeeded[T any](results []Result[T]) int {
	n := 0
	for _, r := range results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

func runOne[T any](ctx context.Context, task Task[T]) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[T]{Err: &PanicError{Value: r}}
		}
	}()
	if task == nil {
		return Result[T]{Err: fmt.Errorf("nil task")}
	}
	v, err := task(ctx)
	return Result[T]{Value: v, Err: err}
}

// PanicError wraps a value recovered from a task.
type PanicError struct{ Value any }

func (e *PanicError) Error() string { return fmt.Sprintf("task panic: %v", e.Value) }
