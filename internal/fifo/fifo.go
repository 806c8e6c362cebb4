package fifo

// Circular Fifo of fixed capacity, storage is allocated once on creation.
// Not safe for concurrent use, callers synchronize.
type Fifo[T any] struct {
	buffer   []T
	writePos int
	readPos  int
}

// Create a fifo holding up to size elements
func NewFifo[T any](size int) *Fifo[T] {
	if size < 1 {
		size = 1
	}
	// One slot stays unused to tell a full fifo from an empty one
	f := &Fifo[T]{
		buffer:   make([]T, size+1),
		writePos: 0,
		readPos:  0,
	}
	return f
}

// Empty the fifo, capacity is kept
func (f *Fifo[T]) Reset() {
	var zero T
	for i := range f.buffer {
		f.buffer[i] = zero
	}
	f.readPos = 0
	f.writePos = 0
}

func (f *Fifo[T]) Empty() bool {
	return f.readPos == f.writePos
}

func (f *Fifo[T]) Cap() int {
	return len(f.buffer) - 1
}

func (f *Fifo[T]) GetSpace() int {
	sizeLeft := f.readPos - f.writePos - 1
	if sizeLeft < 0 {
		sizeLeft += len(f.buffer)
	}
	return sizeLeft
}

func (f *Fifo[T]) GetOccupied() int {
	sizeOccupied := f.writePos - f.readPos
	if sizeOccupied < 0 {
		sizeOccupied += len(f.buffer)
	}
	return sizeOccupied
}

// Push an element at the tail, returns false if fifo is full
func (f *Fifo[T]) Push(element T) bool {
	writePosNext := f.writePos + 1
	if writePosNext == len(f.buffer) {
		writePosNext = 0
	}
	if writePosNext == f.readPos {
		return false
	}
	f.buffer[f.writePos] = element
	f.writePos = writePosNext
	return true
}

// Pop the element at the head, returns false if fifo is empty
func (f *Fifo[T]) Pop() (T, bool) {
	var zero T
	if f.readPos == f.writePos {
		return zero, false
	}
	element := f.buffer[f.readPos]
	f.buffer[f.readPos] = zero
	f.readPos++
	if f.readPos == len(f.buffer) {
		f.readPos = 0
	}
	return element, true
}

// Look at the element at the head without removing it
func (f *Fifo[T]) Peek() (T, bool) {
	var zero T
	if f.readPos == f.writePos {
		return zero, false
	}
	return f.buffer[f.readPos], true
}
