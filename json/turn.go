package json

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/fwojciec/gemchat"
)

// turnDTO is the JSON representation of a Turn.
type turnDTO struct {
	Role           string    `json:"role"`
	IsSystemPrompt bool      `json:"is_system_prompt,omitempty"`
	Parts          []partDTO `json:"parts"`
	Usage          *usageDTO `json:"usage,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// partDTO is the JSON representation of a ContentPart with a type discriminator.
type partDTO struct {
	Type     string  `json:"type"`
	Text     *string `json:"text,omitempty"`
	Data     *string `json:"data,omitempty"`
	MimeType *string `json:"mime_type,omitempty"`
}

type usageDTO struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func marshalTurn(t gemchat.Turn) (turnDTO, error) {
	parts := make([]partDTO, len(t.Parts))
	for i, p := range t.Parts {
		dto, err := marshalPart(p)
		if err != nil {
			return turnDTO{}, fmt.Errorf("part %d: %w", i, err)
		}
		parts[i] = dto
	}
	dto := turnDTO{
		Role:           string(t.Role),
		IsSystemPrompt: t.IsSystemPrompt,
		Parts:          parts,
		Timestamp:      t.Timestamp,
	}
	if t.Usage != (gemchat.Usage{}) {
		dto.Usage = &usageDTO{InputTokens: t.Usage.InputTokens, OutputTokens: t.Usage.OutputTokens}
	}
	return dto, nil
}

func unmarshalTurn(dto turnDTO) (gemchat.Turn, error) {
	parts := make([]gemchat.ContentPart, len(dto.Parts))
	for i, pd := range dto.Parts {
		p, err := unmarshalPart(pd)
		if err != nil {
			return gemchat.Turn{}, fmt.Errorf("part %d: %w", i, err)
		}
		parts[i] = p
	}
	t := gemchat.Turn{
		Role:           gemchat.Role(dto.Role),
		IsSystemPrompt: dto.IsSystemPrompt,
		Parts:          parts,
		Timestamp:      dto.Timestamp,
	}
	if dto.Usage != nil {
		t.Usage = gemchat.Usage{InputTokens: dto.Usage.InputTokens, OutputTokens: dto.Usage.OutputTokens}
	}
	return t, nil
}

func marshalPart(p gemchat.ContentPart) (partDTO, error) {
	switch v := p.(type) {
	case gemchat.TextPart:
		return partDTO{Type: "text", Text: &v.Value}, nil
	case gemchat.InlineBinaryPart:
		encoded := v.Base64()
		return partDTO{Type: "inline_data", Data: &encoded, MimeType: &v.MimeType}, nil
	default:
		return partDTO{}, fmt.Errorf("unknown content part type: %T", p)
	}
}

func unmarshalPart(dto partDTO) (gemchat.ContentPart, error) {
	switch dto.Type {
	case "text":
		var text string
		if dto.Text != nil {
			text = *dto.Text
		}
		return gemchat.TextPart{Value: text}, nil
	case "inline_data":
		var data []byte
		if dto.Data != nil {
			var err error
			data, err = base64.StdEncoding.DecodeString(*dto.Data)
			if err != nil {
				return nil, fmt.Errorf("decode inline data: %w", err)
			}
		}
		var mimeType string
		if dto.MimeType != nil {
			mimeType = *dto.MimeType
		}
		return gemchat.InlineBinaryPart{MimeType: mimeType, Data: data}, nil
	default:
		return nil, fmt.Errorf("unknown content part type: %q", dto.Type)
	}
}
