package utils

import (
	"sync"

	"portfolio-runner/src/models"
)

// -----------------------------------------------------------------------------
// LogRing is a fixed-size circular buffer of child process output lines.
// True ring buffer - no resizing allowed!
// -----------------------------------------------------------------------------

type LogRing struct {
	mu       sync.RWMutex
	data     []models.MLogLine
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewLogRing creates a new buffer with fixed capacity
func NewLogRing(capacity int) *LogRing {
	if capacity <= 0 {
		capacity = 500 // Default reasonable size
	}

	return &LogRing{
		data:     make([]models.MLogLine, capacity),
		capacity: capacity,
		index:    0,
		size:     0,
	}
}

// -----------------------------------------------------------------------------

// Append adds a log line, overwriting the oldest entry when full
func (lr *LogRing) Append(line models.MLogLine) {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	lr.data[lr.index] = line
	lr.index = (lr.index + 1) % lr.capacity

	// Update size (never exceeds capacity)
	if lr.size < lr.capacity {
		lr.size++
	}
}

// -----------------------------------------------------------------------------

// GetLatest returns the n most recent lines, oldest first
func (lr *LogRing) GetLatest(n int) []models.MLogLine {
	lr.mu.RLock()
	defer lr.mu.RUnlock()

	if lr.size == 0 || n <= 0 {
		return []models.MLogLine{}
	}

	count := n
	if n > lr.size {
		count = lr.size
	}

	result := make([]models.MLogLine, count)

	// Latest data is at index-1
	startIdx := (lr.index - count + lr.capacity) % lr.capacity

	for i := 0; i < count; i++ {
		idx := (startIdx + i) % lr.capacity
		result[i] = lr.data[idx]
	}

	return result
}

// -----------------------------------------------------------------------------

// GetAll returns all lines in insertion order (oldest to newest)
func (lr *LogRing) GetAll() []models.MLogLine {
	lr.mu.RLock()
	defer lr.mu.RUnlock()

	if lr.size == 0 {
		return []models.MLogLine{}
	}

	result := make([]models.MLogLine, lr.size)

	// Oldest element position depends on whether we wrapped
	var startIdx int
	if lr.size == lr.capacity {
		startIdx = lr.index
	} else {
		startIdx = 0
	}

	for i := 0; i < lr.size; i++ {
		idx := (startIdx + i) % lr.capacity
		result[i] = lr.data[idx]
	}

	return result
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (lr *LogRing) Size() int {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	return lr.size
}

// -----------------------------------------------------------------------------

// Capacity returns buffer capacity (fixed)
func (lr *LogRing) Capacity() int {
	return lr.capacity
}

// -----------------------------------------------------------------------------

// IsFull returns whether buffer is full
func (lr *LogRing) IsFull() bool {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	return lr.size == lr.capacity
}

// -----------------------------------------------------------------------------

// Clear resets the buffer
func (lr *LogRing) Clear() {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.index = 0
	lr.size = 0
}
