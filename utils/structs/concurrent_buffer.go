// Package structs implements generic concurrency-safe containers.
package structs

import "sync"

// BufferPool is an interface for all pools of buffers.
type BufferPool[T any] interface {
	Get() T
	Put(T)
}

// SyncPool is a wrapper around [sync.Pool] (it avoids doing type conversion after Get()).
// An optional reset function is applied to every object handed back with Put,
// before it becomes visible to the next Get.
type SyncPool[T any] struct {
	pool  *sync.Pool
	reset func(T)
}

// NewSyncPool creates a new SyncPool.
// The input function f is the function that is used to create new objects if none is available in the pool.
func NewSyncPool[T any](f func() T) *SyncPool[T] {
	return NewSyncPoolWithReset(f, nil)
}

// NewSyncPoolWithReset creates a new SyncPool whose objects are passed to
// reset when they are returned to the pool. reset can be nil.
func NewSyncPoolWithReset[T any](f func() T, reset func(T)) *SyncPool[T] {
	pool := &sync.Pool{
		New: func() any {
			return f()
		},
	}
	return &SyncPool[T]{pool: pool, reset: reset}
}

// Get returns a new object of type T from the pool.
func (spool *SyncPool[T]) Get() T {
	return spool.pool.Get().(T)
}

// Put returns the buff to the pool.
func (spool *SyncPool[T]) Put(buff T) {
	if spool.reset != nil {
		spool.reset(buff)
	}
	spool.pool.Put(buff)
}

// BuffFromPool represents a pool of objects of type T assembled from
// backing arrays held by another pool.
// It implements the [BufferPool] interface.
type BuffFromPool[T any] struct {
	createObject  func() T
	recycleObject func(T)
}

// NewBuffFromPool returns a new BuffFromPool structure.
// The create (resp. recycle) function are meant to use an underlying
// pool to build (resp. recycle) an object of type T.
func NewBuffFromPool[T any](create func() T, recycle func(T)) *BuffFromPool[T] {
	return &BuffFromPool[T]{
		createObject:  create,
		recycleObject: recycle,
	}
}

// Get returns a new object of type T built from backing arrays obtained from a pool.
func (bp *BuffFromPool[T]) Get() T {
	return bp.createObject()
}

// Put recycles an object of type T, i.e. it returns its backing arrays to their pool.
func (bp *BuffFromPool[T]) Put(obj T) {
	bp.recycleObject(obj)
}
