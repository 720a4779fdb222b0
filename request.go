package gemchat

import "fmt"

// Defaults applied when Settings leave a field empty.
const (
	DefaultModel           = "gemini-1.5-pro"
	DefaultMaxOutputTokens = 1000
)

// Settings are the host-supplied values read on every send and estimate.
// The core never stores them.
type Settings struct {
	APIKey            string
	Model             string // empty = DefaultModel
	SystemInstruction string
}

// ModelID returns the configured model or DefaultModel.
func (s Settings) ModelID() string {
	if s.Model == "" {
		return DefaultModel
	}
	return s.Model
}

// Content is one {role, parts} pair of the transport payload.
type Content struct {
	Role  Role
	Parts []ContentPart
}

// Request carries the payload and model selection for a backend call.
type Request struct {
	APIKey          string
	Model           string
	Contents        []Content
	MaxOutputTokens int // 0 = DefaultMaxOutputTokens
}

// NewRequest builds a Request for contents from the current settings.
func NewRequest(s Settings, contents []Content) Request {
	return Request{
		APIKey:          s.APIKey,
		Model:           s.ModelID(),
		Contents:        contents,
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}

// Validate checks universal constraints on Request.
func (r Request) Validate() error {
	if r.APIKey == "" {
		return &ConfigurationError{Reason: MissingCredential}
	}
	if r.MaxOutputTokens < 0 {
		return fmt.Errorf("max_output_tokens must be non-negative, got %d: %w", r.MaxOutputTokens, ErrValidation)
	}
	if len(r.Contents) == 0 {
		return fmt.Errorf("request has no contents: %w", ErrValidation)
	}
	for i, c := range r.Contents {
		if err := validateParts(c.Parts); err != nil {
			return fmt.Errorf("content %d: %w", i, err)
		}
	}
	return nil
}
