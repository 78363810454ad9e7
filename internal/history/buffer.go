package history

import (
	"sync"

	"biogasd/internal/model"
)

const DefaultLimit = 50

// Buffer is a fixed-capacity sequence of readings, newest at index 0.
// Ordering is strictly by arrival: a reading with an older embedded
// timestamp still lands at the head, since device clocks may be skewed.
type Buffer struct {
	mu    sync.RWMutex
	buf   []model.Reading
	limit int
}

func NewBuffer(limit int) *Buffer {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Buffer{limit: limit}
}

// Push prepends a reading, evicting the oldest entry once the buffer is
// full.
func (b *Buffer) Push(r model.Reading) {
	b.mu.Lock()
	defer b.mu.Unlock()
	keep := len(b.buf)
	if keep > b.limit-1 {
		keep = b.limit - 1
	}
	next := make([]model.Reading, 0, keep+1)
	next = append(next, r)
	next = append(next, b.buf[:keep]...)
	b.buf = next
}

func (b *Buffer) Latest() (model.Reading, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.buf) == 0 {
		return model.Reading{}, false
	}
	return b.buf[0], true
}

// All returns a copy of the buffer, newest first.
func (b *Buffer) All() []model.Reading {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]model.Reading, len(b.buf))
	copy(out, b.buf)
	return out
}

// Recent returns up to n readings, newest first. n <= 0 means all.
func (b *Buffer) Recent(n int) []model.Reading {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n <= 0 || n > len(b.buf) {
		n = len(b.buf)
	}
	out := make([]model.Reading, n)
	copy(out, b.buf[:n])
	return out
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.buf)
}

func (b *Buffer) Limit() int {
	return b.limit
}

func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = nil
}
