package gemchat

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a turn or request failed validation.
	ErrValidation = errors.New("validation error")

	// ErrEmptyInput indicates a send with neither text nor attachments.
	ErrEmptyInput = errors.New("empty input")

	// ErrGenerationActive indicates a send or reset while a response is
	// still streaming.
	ErrGenerationActive = errors.New("generation in progress")

	// ErrEmptyExport indicates an export of a conversation with no turns.
	ErrEmptyExport = errors.New("nothing to save")

	// ErrNoValidAttachments indicates every file of a batch was rejected.
	ErrNoValidAttachments = errors.New("no valid attachments")

	// ErrMissingCredential indicates no API key is configured.
	ErrMissingCredential = errors.New("missing credential")

	// ErrTooLarge indicates an attachment exceeds MaxAttachmentSize.
	ErrTooLarge = errors.New("attachment too large")

	// ErrUnsupportedType indicates an attachment is not an image.
	ErrUnsupportedType = errors.New("unsupported attachment type")

	// ErrNothingToRetry indicates Retry was called without a trailing user turn.
	ErrNothingToRetry = errors.New("nothing to retry")
)

// EncodingReason classifies why an attachment was rejected.
type EncodingReason int

const (
	TooLarge EncodingReason = iota + 1
	UnsupportedType
	ReadFailed
)

// EncodingError reports a rejected attachment. It is per file and never
// aborts the rest of a batch.
type EncodingError struct {
	Name   string
	Reason EncodingReason
	Err    error // set when Reason is ReadFailed
}

func (e *EncodingError) Error() string {
	switch e.Reason {
	case TooLarge:
		return fmt.Sprintf("file %s exceeds %dMB limit", e.Name, MaxAttachmentSize>>20)
	case UnsupportedType:
		return fmt.Sprintf("file %s is not an image", e.Name)
	}
	return fmt.Sprintf("file %s: %v", e.Name, e.Err)
}

// Unwrap lets errors.Is match ErrTooLarge and ErrUnsupportedType.
func (e *EncodingError) Unwrap() error {
	switch e.Reason {
	case TooLarge:
		return ErrTooLarge
	case UnsupportedType:
		return ErrUnsupportedType
	}
	return e.Err
}

// ConfigurationReason classifies a configuration failure.
type ConfigurationReason int

const (
	MissingCredential ConfigurationReason = iota + 1
)

// ConfigurationError blocks a send before any network call.
type ConfigurationError struct {
	Reason ConfigurationReason
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + ErrMissingCredential.Error()
}

func (e *ConfigurationError) Unwrap() error { return ErrMissingCredential }

// TransportError wraps a backend failure during Sending or Streaming.
type TransportError struct {
	Op  string // "open" or "stream"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
