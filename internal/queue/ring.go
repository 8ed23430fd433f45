package queue

// Ring implements the Queue interface on a preallocated circular buffer.
// Enqueue and Dequeue never allocate.
//
// Ring is not safe for concurrent use.
type Ring[T any] struct {
	items []T
	head  int
	size  int
}

var _ Queue[int] = (*Ring[int])(nil)

// NewRing creates a ring holding at most capacity items.
// A capacity below 1 is raised to 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Enqueue adds an item to the tail of the queue.
func (q *Ring[T]) Enqueue(item T) bool {
	if q.size == len(q.items) {
		return false
	}
	q.items[(q.head+q.size)%len(q.items)] = item
	q.size++
	return true
}

// Dequeue removes and returns the item at the head of the queue.
func (q *Ring[T]) Dequeue() (T, bool) {
	var zero T
	if q.size == 0 {
		return zero, false
	}
	item := q.items[q.head]
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.size--
	return item, true
}

// Peek returns the item at the head of the queue without removing it.
func (q *Ring[T]) Peek() (T, bool) {
	if q.size == 0 {
		var zero T
		return zero, false
	}
	return q.items[q.head], true
}

// Reset resets the queue to an empty state, keeping its storage.
func (q *Ring[T]) Reset() {
	clear(q.items)
	q.head = 0
	q.size = 0
}

func (q *Ring[T]) IsEmpty() bool { return q.size == 0 }

func (q *Ring[T]) IsFull() bool { return q.size == len(q.items) }

func (q *Ring[T]) Length() int { return q.size }

func (q *Ring[T]) Capacity() int { return len(q.items) }

// Free returns the number of items that can still be enqueued.
func (q *Ring[T]) Free() int { return len(q.items) - q.size }
