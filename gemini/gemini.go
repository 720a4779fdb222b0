// Package gemini implements [gemchat.Backend] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK, translating between gemchat's
// domain types and the Gemini API types. Streaming uses the SDK's iter.Seq2
// iterator, wrapped into the pull-based [gemchat.Stream] interface.
package gemini

const (
	roleUser  = "user"
	roleModel = "model"
)
