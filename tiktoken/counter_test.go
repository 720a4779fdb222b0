package tiktoken_test

import (
	"context"
	"testing"

	"github.com/fwojciec/gemchat"
	"github.com/fwojciec/gemchat/tiktoken"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(parts ...gemchat.ContentPart) gemchat.Request {
	return gemchat.Request{Contents: []gemchat.Content{{Role: gemchat.RoleUser, Parts: parts}}}
}

func TestCounter_Text(t *testing.T) {
	t.Parallel()
	c, err := tiktoken.New()
	require.NoError(t, err)

	n, err := c.CountTokens(context.Background(), request(gemchat.TextPart{Value: "hello world"}))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCounter_Image(t *testing.T) {
	t.Parallel()
	c, err := tiktoken.New()
	require.NoError(t, err)

	n, err := c.CountTokens(context.Background(), request(
		gemchat.InlineBinaryPart{MimeType: "image/png", Data: []byte("PNG")},
		gemchat.TextPart{},
	))
	require.NoError(t, err)
	assert.Equal(t, tiktoken.ImageTokens, n)
}

func TestCounter_Deterministic(t *testing.T) {
	t.Parallel()
	c, err := tiktoken.New()
	require.NoError(t, err)
	req := request(gemchat.TextPart{Value: "The quick brown fox jumps over the lazy dog."})

	a, err := c.CountTokens(context.Background(), req)
	require.NoError(t, err)
	b, err := c.CountTokens(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Positive(t, a)
}

func TestCounter_CancelledContext(t *testing.T) {
	t.Parallel()
	c, err := tiktoken.New()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.CountTokens(ctx, request(gemchat.TextPart{Value: "hi"}))
	assert.ErrorIs(t, err, context.Canceled)
}
