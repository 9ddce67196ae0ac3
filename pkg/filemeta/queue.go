package filemeta

import "sync"

// Queue serializes operations per key.
//
// Each key has a chain of pending operations. A new operation starts only
// after the previous operation for the same key has returned, whether it
// succeeded or failed. Operations on different keys run independently.
//
// Waiting in the queue cannot be cancelled: once enqueued an operation runs
// to completion. Bound the work inside op with a context instead.
//
// The zero value is not usable; create queues with NewQueue.
type Queue struct {
	mu sync.Mutex
	// tails maps a key to the done channel of its last enqueued operation.
	// The entry is removed when that operation finishes and nothing follows it.
	tails map[string]chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{tails: make(map[string]chan struct{})}
}

// Do enqueues op behind earlier operations for key, waits for its turn,
// runs it and returns its error.
func (q *Queue) Do(key string, op func() error) error {
	prev, done := q.enqueue(key)
	return q.run(key, prev, done, op)
}

// Go enqueues op behind earlier operations for key and runs it on a new
// goroutine. The position in the queue is fixed before Go returns. The
// returned channel receives op's error and is then closed.
func (q *Queue) Go(key string, op func() error) <-chan error {
	prev, done := q.enqueue(key)

	result := make(chan error, 1)
	go func() {
		defer close(result)
		result <- q.run(key, prev, done, op)
	}()
	return result
}

// Pending returns the number of keys with at least one queued or running operation.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tails)
}

func (q *Queue) enqueue(key string) (prev, done chan struct{}) {
	done = make(chan struct{})

	q.mu.Lock()
	prev = q.tails[key]
	q.tails[key] = done
	q.mu.Unlock()

	return prev, done
}

func (q *Queue) run(key string, prev, done chan struct{}, op func() error) error {
	if prev != nil {
		<-prev
	}
	defer q.release(key, done)
	return op()
}

func (q *Queue) release(key string, done chan struct{}) {
	q.mu.Lock()
	if q.tails[key] == done {
		delete(q.tails, key)
	}
	q.mu.Unlock()
	close(done)
}
