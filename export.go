package gemchat

import "strings"

// Transcript artifact defaults.
const (
	TranscriptName     = "gemini-chat.txt"
	TranscriptMimeType = "text/plain"
)

// Artifact is a downloadable export of a conversation.
type Artifact struct {
	Name     string
	MimeType string
	Data     []byte
}

// Render formats turns as one "LABEL: text" line per turn. Inline binary
// parts render as their bracketed media category, e.g. "[image]".
func Render(turns []Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		sb.WriteString(t.Label())
		sb.WriteString(": ")
		for _, p := range t.Parts {
			switch pt := p.(type) {
			case TextPart:
				sb.WriteString(pt.Value)
			case InlineBinaryPart:
				sb.WriteString("[" + pt.Category() + "]")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Export renders turns into a plain-text Artifact. Returns ErrEmptyExport
// for an empty history.
func Export(turns []Turn) (Artifact, error) {
	if len(turns) == 0 {
		return Artifact{}, ErrEmptyExport
	}
	return Artifact{
		Name:     TranscriptName,
		MimeType: TranscriptMimeType,
		Data:     []byte(Render(turns)),
	}, nil
}
