package gemchat

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is the ordered history of one chat.
type Conversation struct {
	ID        string
	Turns     []Turn
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewConversation returns an empty conversation seeded with the system turn
// when instruction is non-empty.
func NewConversation(instruction string) Conversation {
	now := time.Now()
	c := Conversation{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if instruction != "" {
		st := SystemTurn(instruction)
		st.Timestamp = now
		c.Turns = []Turn{st}
	}
	return c
}

// SystemIndex returns the index of the system-prompt turn, or -1 if none.
func SystemIndex(turns []Turn) int {
	for i, t := range turns {
		if t.IsSystemPrompt {
			return i
		}
	}
	return -1
}
