// Package queue provides fixed-capacity FIFO queues used on the link tick path.
package queue

// Queue defines the interface of a bounded FIFO queue.
type Queue[T any] interface {
	// Enqueue adds an item to the tail of the queue. It returns false when the queue is full.
	Enqueue(T) bool
	// Dequeue removes and returns the item at the head of the queue.
	Dequeue() (T, bool)
	// Peek returns the item at the head of the queue without removing it.
	Peek() (T, bool)
	// Reset to an empty queue
	Reset()
	// IsEmpty returns true if the queue is empty, false otherwise.
	IsEmpty() bool
	// IsFull returns true if no more items can be enqueued.
	IsFull() bool
	// Length returns the number of items in the queue.
	Length() int
	// Capacity returns the maximum number of items the queue holds.
	Capacity() int
}
