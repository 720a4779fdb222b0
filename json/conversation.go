// Package json persists conversations as versioned JSON documents.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/gemchat"
)

// envelope is the v1 wire format for a persisted conversation.
type envelope struct {
	Version   int       `json:"version"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Turns     []turnDTO `json:"turns"`
}

// MarshalConversation serializes a Conversation to JSON in v1 envelope format.
func MarshalConversation(c gemchat.Conversation) ([]byte, error) {
	env := envelope{
		Version:   1,
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Turns:     make([]turnDTO, len(c.Turns)),
	}
	for i, t := range c.Turns {
		dto, err := marshalTurn(t)
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", i, err)
		}
		env.Turns[i] = dto
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalConversation deserializes a Conversation from JSON in v1 envelope
// format and validates it.
func UnmarshalConversation(data []byte) (gemchat.Conversation, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return gemchat.Conversation{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return gemchat.Conversation{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	turns := make([]gemchat.Turn, len(env.Turns))
	for i, dto := range env.Turns {
		t, err := unmarshalTurn(dto)
		if err != nil {
			return gemchat.Conversation{}, fmt.Errorf("turn %d: %w", i, err)
		}
		turns[i] = t
	}
	if err := gemchat.ValidateConversation(turns); err != nil {
		return gemchat.Conversation{}, err
	}
	return gemchat.Conversation{
		ID:        env.ID,
		CreatedAt: env.CreatedAt,
		UpdatedAt: env.UpdatedAt,
		Turns:     turns,
	}, nil
}

// Save writes a Conversation to a JSON file, creating parent directories as needed.
func Save(path string, c gemchat.Conversation) error {
	data, err := MarshalConversation(c)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a Conversation from a JSON file.
func Load(path string) (gemchat.Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gemchat.Conversation{}, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalConversation(data)
}
