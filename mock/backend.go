// Package mock provides test doubles for gemchat interfaces using function fields.
package mock

import (
	"context"
	"io"
	"sync"

	"github.com/fwojciec/gemchat"
)

// Interface compliance checks.
var (
	_ gemchat.Backend  = (*Backend)(nil)
	_ gemchat.Counter  = (*Counter)(nil)
	_ gemchat.Notifier = (*Notifier)(nil)
)

// Backend is a test double for gemchat.Backend.
// Set StreamFn and CountTokensFn for the methods you need.
type Backend struct {
	StreamFn      func(ctx context.Context, req gemchat.Request) (gemchat.Stream, error)
	CountTokensFn func(ctx context.Context, req gemchat.Request) (int, error)
}

// Stream delegates to StreamFn.
func (b *Backend) Stream(ctx context.Context, req gemchat.Request) (gemchat.Stream, error) {
	return b.StreamFn(ctx, req)
}

// CountTokens delegates to CountTokensFn.
func (b *Backend) CountTokens(ctx context.Context, req gemchat.Request) (int, error) {
	return b.CountTokensFn(ctx, req)
}

// Counter is a test double for gemchat.Counter.
type Counter struct {
	CountTokensFn func(ctx context.Context, req gemchat.Request) (int, error)
}

// CountTokens delegates to CountTokensFn.
func (c *Counter) CountTokens(ctx context.Context, req gemchat.Request) (int, error) {
	return c.CountTokensFn(ctx, req)
}

// Notifier records notifications. Safe for concurrent use.
type Notifier struct {
	mu       sync.Mutex
	messages []string
}

// Notify records msg.
func (n *Notifier) Notify(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

// Messages returns the recorded notifications in order.
func (n *Notifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// ChunkStream returns a Stream that yields one chunk per text and then
// io.EOF. If err is non-nil it is returned instead of io.EOF.
func ChunkStream(err error, texts ...string) *Stream {
	i := 0
	return &Stream{
		NextFn: func() (gemchat.Chunk, error) {
			if i < len(texts) {
				i++
				return gemchat.Chunk{Text: texts[i-1]}, nil
			}
			if err != nil {
				return gemchat.Chunk{}, err
			}
			return gemchat.Chunk{}, io.EOF
		},
	}
}
