package gemchat

import (
	"encoding/base64"
	"strings"
)

// ContentPart is a sealed interface representing one unit of turn content.
// The unexported marker method prevents external implementations.
type ContentPart interface {
	contentPart()
}

// TextPart contains text content.
type TextPart struct {
	Value string
}

func (TextPart) contentPart() {}

// InlineBinaryPart contains binary content embedded in the request payload.
type InlineBinaryPart struct {
	MimeType string
	Data     []byte
}

func (InlineBinaryPart) contentPart() {}

// Base64 returns the transport-safe text form of the payload.
func (p InlineBinaryPart) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Data)
}

// Category returns the general media category of the MIME type, e.g. "image"
// for "image/png".
func (p InlineBinaryPart) Category() string {
	category, _, _ := strings.Cut(p.MimeType, "/")
	if category == "" {
		return "binary"
	}
	return category
}

// Interface compliance checks.
var (
	_ ContentPart = TextPart{}
	_ ContentPart = InlineBinaryPart{}
)
