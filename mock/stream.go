package mock

import "github.com/fwojciec/gemchat"

// Interface compliance check.
var _ gemchat.Stream = (*Stream)(nil)

// Stream is a test double for gemchat.Stream.
// NextFn panics when nil to catch missing setup. CloseFn is nil-safe
// because callers always defer Close.
type Stream struct {
	NextFn  func() (gemchat.Chunk, error)
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (gemchat.Chunk, error) {
	return s.NextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}
