package gemini

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/fwojciec/gemchat"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ gemchat.Backend = (*Client)(nil)

// Models is the subset of [genai.Models] the client uses.
type Models interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
	CountTokens(ctx context.Context, model string, contents []*genai.Content, config *genai.CountTokensConfig) (*genai.CountTokensResponse, error)
}

// Client implements [gemchat.Backend]. The API key travels with each
// request; the SDK client is rebuilt only when the key changes.
type Client struct {
	mu     sync.Mutex
	apiKey string
	models Models
	pinned bool
}

// Option configures a [Client].
type Option func(*Client)

// WithModels pins the models service, ignoring request API keys. Useful for
// testing.
func WithModels(m Models) Option {
	return func(c *Client) {
		c.models = m
		c.pinned = true
	}
}

// New creates a new Gemini [Client].
func New(opts ...Option) *Client {
	c := &Client{}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) modelsFor(ctx context.Context, apiKey string) (Models, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pinned || (c.models != nil && c.apiKey == apiKey) {
		return c.models, nil
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	c.apiKey = apiKey
	c.models = gc.Models
	return c.models, nil
}

// Stream sends a streaming request to the Gemini API and returns a
// [gemchat.Stream] of text chunks.
func (c *Client) Stream(ctx context.Context, req gemchat.Request) (gemchat.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	m, err := c.modelsFor(ctx, req.APIKey)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	seq := m.GenerateContentStream(ctx, req.Model, ConvertContents(req.Contents), buildConfig(req))
	return NewStreamFromIter(seq), nil
}

// CountTokens counts the tokens of the request payload.
func (c *Client) CountTokens(ctx context.Context, req gemchat.Request) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, fmt.Errorf("gemini: %w", err)
	}
	m, err := c.modelsFor(ctx, req.APIKey)
	if err != nil {
		return 0, fmt.Errorf("gemini: %w", err)
	}
	resp, err := m.CountTokens(ctx, req.Model, ConvertContents(req.Contents), nil)
	if err != nil {
		return 0, fmt.Errorf("gemini: count tokens: %w", err)
	}
	return int(resp.TotalTokens), nil
}

func buildConfig(req gemchat.Request) *genai.GenerateContentConfig {
	maxTokens := req.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = gemchat.DefaultMaxOutputTokens
	}
	return &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
	}
}

// ConvertContents converts gemchat Contents to genai Contents. Empty text
// parts are dropped, and so are contents left without parts.
// Exported for testing.
func ConvertContents(contents []gemchat.Content) []*genai.Content {
	var result []*genai.Content
	for _, c := range contents {
		parts := convertParts(c.Parts)
		if len(parts) == 0 {
			continue
		}
		role := roleUser
		if c.Role == gemchat.RoleAssistant {
			role = roleModel
		}
		result = append(result, &genai.Content{Role: role, Parts: parts})
	}
	return result
}

func convertParts(parts []gemchat.ContentPart) []*genai.Part {
	var out []*genai.Part
	for _, p := range parts {
		switch pt := p.(type) {
		case gemchat.TextPart:
			if pt.Value == "" {
				continue
			}
			out = append(out, &genai.Part{Text: pt.Value})
		case gemchat.InlineBinaryPart:
			out = append(out, &genai.Part{
				InlineData: &genai.Blob{
					MIMEType: pt.MimeType,
					Data:     pt.Data,
				},
			})
		}
	}
	return out
}
