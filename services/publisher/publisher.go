package publisher

// Publisher pushes scraped events to downstream consumers
type Publisher interface {
	// Publish publishes one serialized event, keyed by its source website
	Publish(website string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
