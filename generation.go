package gemchat

// State is the phase of the manager's current or most recent send.
type State int

const (
	StateIdle      State = iota // No send since creation or reset.
	StateSending                // User turn committed, stream not yet open.
	StateStreaming              // Receiving chunks into the placeholder.
	StateCompleted              // Stream ended normally.
	StateFailed                 // Transport or backend error; placeholder removed.
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether s ends a generation.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// GenerationSession tracks one in-flight response. At most one exists per
// Manager; it is discarded when the stream completes or fails.
type GenerationSession struct {
	DraftText         string
	AccumulatedChunks string
	Active            bool
}
