package gemchat

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/huandu/go-clone"
	"github.com/rs/zerolog"
)

// Snapshot is the input a TokenEstimate was computed from.
type Snapshot struct {
	Turns       []Turn
	Draft       string
	Model       string
	Instruction string
}

// TokenEstimate is an advisory token count for history plus draft input.
type TokenEstimate struct {
	Count        int
	ComputedFrom Snapshot
}

// Accountant recomputes token estimates. It never returns errors: a missing
// credential or a failed count yields zero.
type Accountant struct {
	counter  Counter
	fallback Counter
	logger   zerolog.Logger

	mu      sync.Mutex
	last    *TokenEstimate
	lastKey string
}

// AccountantOption configures an [Accountant].
type AccountantOption func(*Accountant)

// WithFallbackCounter sets a local counter used when counter fails.
func WithFallbackCounter(c Counter) AccountantOption {
	return func(a *Accountant) { a.fallback = c }
}

// WithAccountantLogger sets the structured logger.
func WithAccountantLogger(l zerolog.Logger) AccountantOption {
	return func(a *Accountant) { a.logger = l }
}

// NewAccountant creates an Accountant backed by counter, usually the Backend.
func NewAccountant(counter Counter, opts ...AccountantOption) *Accountant {
	a := &Accountant{counter: counter, logger: zerolog.Nop()}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Estimate counts the tokens of history with draft appended as a user turn.
// An unchanged snapshot returns the previous estimate without recounting.
func (a *Accountant) Estimate(ctx context.Context, history []Turn, draft string, s Settings) TokenEstimate {
	snap := Snapshot{Turns: history, Draft: draft, Model: s.ModelID(), Instruction: s.SystemInstruction}
	if s.APIKey == "" {
		return TokenEstimate{ComputedFrom: snap}
	}

	a.mu.Lock()
	if a.last != nil && a.lastKey == s.APIKey && reflect.DeepEqual(a.last.ComputedFrom, snap) {
		est := *a.last
		a.mu.Unlock()
		return est
	}
	a.mu.Unlock()

	var parts []ContentPart
	if strings.TrimSpace(draft) != "" {
		parts = []ContentPart{TextPart{Value: draft}}
	}
	contents := Assemble(history, parts, s.SystemInstruction)
	if len(contents) == 0 {
		return TokenEstimate{ComputedFrom: snap}
	}
	req := NewRequest(s, contents)

	count, err := a.count(ctx, req)
	if err != nil { // not cached; an identical snapshot recounts.
		a.logger.Debug().Err(err).Msg("token count failed")
		return TokenEstimate{ComputedFrom: snap}
	}

	est := TokenEstimate{
		Count:        count,
		ComputedFrom: clone.Clone(snap).(Snapshot),
	}
	a.mu.Lock()
	a.last = &est
	a.lastKey = s.APIKey
	a.mu.Unlock()
	return est
}

func (a *Accountant) count(ctx context.Context, req Request) (int, error) {
	n, err := a.counter.CountTokens(ctx, req)
	if err == nil || a.fallback == nil {
		return n, err
	}
	a.logger.Debug().Err(err).Msg("backend token count failed, using fallback")
	return a.fallback.CountTokens(ctx, req)
}
