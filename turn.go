package gemchat

import (
	"strings"
	"time"
)

// Turn is one message of a conversation.
type Turn struct {
	Role  Role
	Parts []ContentPart
	// IsSystemPrompt marks the turn carrying standing instructions. It is
	// sent with RoleUser but is never treated as ordinary input.
	IsSystemPrompt bool
	Usage          Usage
	Timestamp      time.Time
}

// Usage tracks token consumption reported by the backend for one response.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// SystemTurn returns the system-prompt turn for the given instruction.
func SystemTurn(instruction string) Turn {
	return Turn{
		Role:           RoleUser,
		Parts:          []ContentPart{TextPart{Value: instruction}},
		IsSystemPrompt: true,
	}
}

// Text returns the concatenation of the turn's text parts.
func (t Turn) Text() string {
	var sb strings.Builder
	for _, p := range t.Parts {
		if tp, ok := p.(TextPart); ok {
			sb.WriteString(tp.Value)
		}
	}
	return sb.String()
}

// Label returns the upper-case transcript label for the turn.
// System-prompt turns are labelled SYSTEM regardless of their role.
func (t Turn) Label() string {
	if t.IsSystemPrompt {
		return "SYSTEM"
	}
	return strings.ToUpper(string(t.Role))
}
