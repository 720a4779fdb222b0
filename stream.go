package gemchat

import "context"

// Chunk is one incremental fragment of assistant output.
type Chunk struct {
	Text string
	// Usage is the cumulative usage reported with the chunk. Zero when the
	// backend did not report any.
	Usage Usage
}

// Stream uses a pull-based iterator pattern. Next returns io.EOF once the
// response is complete. Cancellation flows through the context passed to
// Backend.Stream; Close releases the underlying connection and may be called
// at any point.
type Stream interface {
	Next() (Chunk, error)
	Close() error
}

// Counter counts tokens over a request payload.
type Counter interface {
	CountTokens(ctx context.Context, req Request) (int, error)
}

// Backend is the generative backend collaborator.
type Backend interface {
	Counter
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Notifier surfaces user-facing messages, such as a host toast.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

// Notify calls f(msg).
func (f NotifierFunc) Notify(msg string) { f(msg) }
