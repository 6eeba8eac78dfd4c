package queue

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum number of batches held at once.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithSample sets the sample label of the queue gauges.
func WithSample(sample string) Option {
	return func(q *InMemoryQueue) {
		q.sample = sample
	}
}
