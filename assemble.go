package gemchat

import "strings"

// DefaultImageCaption is sent alongside images when the user typed nothing.
const DefaultImageCaption = "Please describe this image."

// UserParts builds the parts of a new user turn. Images come first, followed
// by the caption. Returns nil when there is nothing to send.
func UserParts(draft string, images []InlineBinaryPart) []ContentPart {
	if len(images) == 0 {
		if strings.TrimSpace(draft) == "" {
			return nil
		}
		return []ContentPart{TextPart{Value: draft}}
	}
	parts := make([]ContentPart, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, img)
	}
	caption := draft
	if strings.TrimSpace(caption) == "" {
		caption = DefaultImageCaption
	}
	return append(parts, TextPart{Value: caption})
}

// Assemble builds the transport payload for sending newParts after history.
// The system-prompt turn is always first in the result: an existing one is
// moved to the front, and one is synthesized from systemInstruction when
// history has none. history is never modified.
//
// An empty newParts assembles history alone, which Retry uses when the user
// turn is already part of history.
func Assemble(history []Turn, newParts []ContentPart, systemInstruction string) []Content {
	working := make([]Turn, 0, len(history)+2)
	working = append(working, history...)
	if len(newParts) > 0 {
		working = append(working, Turn{Role: RoleUser, Parts: newParts})
	}
	working = systemFirst(working, systemInstruction)

	contents := make([]Content, len(working))
	for i, t := range working {
		parts := make([]ContentPart, len(t.Parts))
		copy(parts, t.Parts)
		contents[i] = Content{Role: t.Role, Parts: parts}
	}
	return contents
}

// systemFirst returns turns with the system-prompt turn at index 0. The
// slice is reordered in place; callers pass a working copy.
func systemFirst(turns []Turn, instruction string) []Turn {
	i := SystemIndex(turns)
	switch {
	case i == 0:
		return turns
	case i > 0:
		st := turns[i]
		copy(turns[1:i+1], turns[:i])
		turns[0] = st
		return turns
	case instruction != "":
		return append([]Turn{SystemTurn(instruction)}, turns...)
	}
	return turns
}
