package generic

import "sync"

// Pool is a typed sync.Pool.
type Pool[T any] struct {
	pool sync.Pool
}

func NewPool[T any](generate func() T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return generate()
			},
		},
	}
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	p.pool.Put(value)
}

// SlicePool recycles slice backing arrays for per-frame scratch lists.
type SlicePool[T any] struct {
	pool *Pool[*[]T]
}

func NewSlicePool[T any](capacity int) *SlicePool[T] {
	return &SlicePool[T]{pool: NewPool(func() *[]T {
		s := make([]T, 0, capacity)
		return &s
	})}
}

// Get returns an empty slice with whatever capacity was recycled.
func (p *SlicePool[T]) Get() *[]T {
	s := p.pool.Get()
	*s = (*s)[:0]
	return s
}

// Put clears s so pooled arrays do not pin their elements, then recycles it.
func (p *SlicePool[T]) Put(s *[]T) {
	clear(*s)
	*s = (*s)[:0]
	p.pool.Put(s)
}
