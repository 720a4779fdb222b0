package gemchat

import "fmt"

// ValidateTurn checks the structural invariants of a single turn.
func ValidateTurn(t Turn) error {
	switch t.Role {
	case RoleUser, RoleAssistant:
	default:
		return fmt.Errorf("unknown role %q: %w", t.Role, ErrValidation)
	}
	if t.IsSystemPrompt && t.Role != RoleUser {
		return fmt.Errorf("system prompt must have role %s, got %s: %w", RoleUser, t.Role, ErrValidation)
	}
	return validateParts(t.Parts)
}

// ValidateConversation checks every turn and that at most one system-prompt
// turn exists.
func ValidateConversation(turns []Turn) error {
	systems := 0
	for i, t := range turns {
		if err := ValidateTurn(t); err != nil {
			return fmt.Errorf("turn %d: %w", i, err)
		}
		if t.IsSystemPrompt {
			systems++
		}
	}
	if systems > 1 {
		return fmt.Errorf("%d system prompt turns: %w", systems, ErrValidation)
	}
	return nil
}

func validateParts(parts []ContentPart) error {
	if len(parts) == 0 {
		return fmt.Errorf("turn has no parts: %w", ErrValidation)
	}
	for _, p := range parts {
		switch pt := p.(type) {
		case TextPart:
		case InlineBinaryPart:
			if pt.MimeType == "" {
				return fmt.Errorf("inline binary without MIME type: %w", ErrValidation)
			}
		default:
			return fmt.Errorf("unknown content part type %T: %w", p, ErrValidation)
		}
	}
	return nil
}
