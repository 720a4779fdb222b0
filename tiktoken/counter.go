// Package tiktoken implements a local [gemchat.Counter] using BPE token
// counts. Gemini uses its own tokenizer, so counts are approximate; they
// serve as an offline fallback for the token display.
package tiktoken

import (
	"context"
	"fmt"

	"github.com/fwojciec/gemchat"
	"github.com/tiktoken-go/tokenizer"
)

// ImageTokens is the flat cost charged per inline image.
const ImageTokens = 258

// Interface compliance check.
var _ gemchat.Counter = (*Counter)(nil)

// Counter counts tokens locally.
type Counter struct {
	codec tokenizer.Codec
}

// New creates a Counter using the cl100k_base encoding.
func New() (*Counter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("tiktoken: %w", err)
	}
	return &Counter{codec: codec}, nil
}

// CountTokens sums the text tokens of every part plus ImageTokens per inline
// binary part.
func (c *Counter) CountTokens(ctx context.Context, req gemchat.Request) (int, error) {
	total := 0
	for _, content := range req.Contents {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		for _, p := range content.Parts {
			switch pt := p.(type) {
			case gemchat.TextPart:
				if pt.Value == "" {
					continue
				}
				ids, _, err := c.codec.Encode(pt.Value)
				if err != nil {
					return 0, fmt.Errorf("tiktoken: %w", err)
				}
				total += len(ids)
			case gemchat.InlineBinaryPart:
				total += ImageTokens
			}
		}
	}
	return total, nil
}
