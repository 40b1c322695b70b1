// Package buffer provides a fixed-capacity ring that keeps the most recent
// elements written to it.
package buffer

import "sync"

// Ring is a thread-safe ring buffer. When full, writes overwrite the
// oldest elements, so the ring always holds the latest Cap() elements.
//
// head and tail count elements ever dropped and ever written; the live
// region is buf[head%cap : tail%cap] with wrap-around.
type Ring[T any] struct {
	mu         sync.Mutex
	buf        []T
	head, tail int64
}

// RingN creates a Ring holding at most size elements.
func RingN[T any](size int) *Ring[T] {
	if size <= 0 {
		panic("buffer: ring size must be positive")
	}
	return &Ring[T]{buf: make([]T, size)}
}

// Write appends p, overwriting the oldest elements when the ring is full.
// It always accepts all of p.
func (r *Ring[T]) Write(p []T) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := int64(len(r.buf))
	n := len(p)
	if int64(n) >= size {
		// Only the trailing size elements survive.
		copy(r.buf, p[n-int(size):])
		r.tail += int64(n)
		r.head = r.tail - size
		// Rotate so that buf[head%size] is the oldest element.
		if off := int(r.head % size); off != 0 {
			rotated := make([]T, size)
			copy(rotated[off:], r.buf[:int(size)-off])
			copy(rotated[:off], r.buf[int(size)-off:])
			copy(r.buf, rotated)
		}
		return n, nil
	}

	tail := int(r.tail % size)
	c := copy(r.buf[tail:], p)
	copy(r.buf, p[c:])
	r.tail += int64(n)
	if r.tail-r.head > size {
		r.head = r.tail - size
	}
	return n, nil
}

// Add appends a single element.
func (r *Ring[T]) Add(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	size := int64(len(r.buf))
	r.buf[r.tail%size] = v
	r.tail++
	if r.tail-r.head > size {
		r.head++
	}
}

// Snapshot returns a copy of the buffered elements, oldest first.
func (r *Ring[T]) Snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int(r.tail - r.head)
	out := make([]T, n)
	if n == 0 {
		return out
	}
	h := int(r.head % int64(len(r.buf)))
	c := copy(out, r.buf[h:min(len(r.buf), h+n)])
	copy(out[c:], r.buf[:n-c])
	return out
}

// Len returns the number of buffered elements.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.tail - r.head)
}

// Cap returns the capacity of the ring.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Written returns the number of elements written since the last Reset,
// including those since overwritten.
func (r *Ring[T]) Written() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tail
}

// Dropped returns how many elements have been overwritten since the last
// Reset.
func (r *Ring[T]) Dropped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.head
}

// Reset discards all buffered elements.
func (r *Ring[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head = 0
	r.tail = 0
}
