package gemini_test

import (
	"errors"
	"io"
	"testing"

	"github.com/fwojciec/gemchat"
	"github.com/fwojciec/gemchat/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// mockChunks returns a genai-style streaming iterator from pre-built chunks.
func mockChunks(chunks []*genai.GenerateContentResponse) func(func(*genai.GenerateContentResponse, error) bool) {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func collectText(t *testing.T, s gemchat.Stream) []string {
	t.Helper()
	var texts []string
	for {
		chunk, err := s.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		texts = append(texts, chunk.Text)
	}
	return texts
}

func TestStream_TextChunks(t *testing.T) {
	t.Parallel()
	s := gemini.NewStreamFromIter(mockChunks([]*genai.GenerateContentResponse{
		textResponse("Hel"),
		textResponse("lo, "),
		textResponse("world"),
	}))
	defer s.Close()

	assert.Equal(t, []string{"Hel", "lo, ", "world"}, collectText(t, s))

	_, err := s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStream_Usage(t *testing.T) {
	t.Parallel()
	resp := textResponse("Hi")
	resp.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     10,
		CandidatesTokenCount: 3,
	}
	s := gemini.NewStreamFromIter(mockChunks([]*genai.GenerateContentResponse{resp}))
	defer s.Close()

	chunk, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, gemchat.Usage{InputTokens: 10, OutputTokens: 3}, chunk.Usage)
}

func TestStream_SkipsThoughtParts(t *testing.T) {
	t.Parallel()
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "reasoning", Thought: true},
				{Text: "Answer"},
			}},
		}},
	}
	s := gemini.NewStreamFromIter(mockChunks([]*genai.GenerateContentResponse{resp}))
	defer s.Close()

	assert.Equal(t, []string{"Answer"}, collectText(t, s))
}

func TestStream_NoCandidates(t *testing.T) {
	t.Parallel()
	s := gemini.NewStreamFromIter(mockChunks([]*genai.GenerateContentResponse{{}}))
	defer s.Close()

	assert.Equal(t, []string{""}, collectText(t, s))
}

func TestStream_IteratorError(t *testing.T) {
	t.Parallel()
	seq := func(yield func(*genai.GenerateContentResponse, error) bool) {
		if !yield(textResponse("partial"), nil) {
			return
		}
		yield(nil, errors.New("connection reset"))
	}
	s := gemini.NewStreamFromIter(seq)
	defer s.Close()

	chunk, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "partial", chunk.Text)

	_, err = s.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini: connection reset")

	// The error is sticky.
	_, err2 := s.Next()
	assert.Equal(t, err, err2)
}

func TestStream_PromptBlocked(t *testing.T) {
	t.Parallel()
	resp := &genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{
			BlockReason: genai.BlockedReason("SAFETY"),
		},
	}
	s := gemini.NewStreamFromIter(mockChunks([]*genai.GenerateContentResponse{resp}))
	defer s.Close()

	_, err := s.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt blocked")
}

func TestStream_NextAfterClose(t *testing.T) {
	t.Parallel()
	s := gemini.NewStreamFromIter(mockChunks([]*genai.GenerateContentResponse{textResponse("a")}))
	require.NoError(t, s.Close())

	_, err := s.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream closed")
}
