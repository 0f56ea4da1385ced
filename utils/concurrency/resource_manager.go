// Package concurrency implements a simple channel based resource manager for concurrent operations.
package concurrency

import (
	"context"
	"sync"
)

// ResourceManager is a struct storing a channel of some given resource (e.g. a [bfv.Encryptor])
// meant to be used concurrently and a channel for errors.
// At most len(resources) tasks run at the same time, each holding one resource.
type ResourceManager[T any] struct {
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	Resources chan T
	Errors    chan error
}

// NewResourceManager instantiates a new [ResourceManager].
// Cancelling ctx, or the first failing [Task], stops the scheduling of the remaining tasks.
func NewResourceManager[T any](ctx context.Context, resources []T) *ResourceManager[T] {
	Resources := make(chan T, len(resources))
	for i := range resources {
		Resources <- resources[i]
	}
	ctx, cancel := context.WithCancel(ctx)
	return &ResourceManager[T]{
		ctx:       ctx,
		cancel:    cancel,
		Resources: Resources,
		Errors:    make(chan error, 1),
	}
}

// Task is an abstract template for a function taking as input
// a resource of any kind that can be used concurrently.
type Task[T any] func(resource T) (err error)

// Run runs a [Task] concurrently.
// If the manager was cancelled or a previous task failed, does nothing.
// The first error returned by a [Task] is kept and cancels the manager.
func (r *ResourceManager[T]) Run(f Task[T]) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		var resource T
		select {
		case <-r.ctx.Done():
			return
		case resource = <-r.Resources:
		}
		defer func() { r.Resources <- resource }()

		if r.ctx.Err() != nil {
			return
		}

		if err := f(resource); err != nil {
			select {
			case r.Errors <- err:
			default:
			}
			r.cancel()
		}
	}()
}

// Wait waits until all concurrent [Task] have finished and returns
// the first encountered error, if any, or the error of the parent context.
func (r *ResourceManager[T]) Wait() (err error) {
	r.wg.Wait()
	defer r.cancel()

	select {
	case err = <-r.Errors:
		return
	default:
	}

	return context.Cause(r.ctx)
}
