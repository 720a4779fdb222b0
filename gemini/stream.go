package gemini

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/fwojciec/gemchat"
	"google.golang.org/genai"
)

// errStreamClosed is returned by Next after Close.
var errStreamClosed = errors.New("gemini: stream closed")

// stream implements [gemchat.Stream] by wrapping the genai SDK's streaming
// iterator.
type stream struct {
	pull   func() (*genai.GenerateContentResponse, error, bool)
	stop   func()
	done   bool
	closed bool
	err    error
}

// Interface compliance check.
var _ gemchat.Stream = (*stream)(nil)

// NewStreamFromIter wraps a genai response iterator. Exported for testing.
func NewStreamFromIter(seq iter.Seq2[*genai.GenerateContentResponse, error]) gemchat.Stream {
	next, stop := iter.Pull2(seq)
	return &stream{pull: next, stop: stop}
}

func (s *stream) Next() (gemchat.Chunk, error) {
	switch {
	case s.closed:
		return gemchat.Chunk{}, errStreamClosed
	case s.err != nil:
		return gemchat.Chunk{}, s.err
	case s.done:
		return gemchat.Chunk{}, io.EOF
	}
	resp, err, ok := s.pull()
	if !ok {
		s.done = true
		return gemchat.Chunk{}, io.EOF
	}
	if err != nil {
		s.err = fmt.Errorf("gemini: %w", err)
		return gemchat.Chunk{}, s.err
	}
	if err := blocked(resp); err != nil {
		s.err = err
		return gemchat.Chunk{}, s.err
	}
	return convertChunk(resp), nil
}

func (s *stream) Close() error {
	s.closed = true
	s.stop()
	return nil
}

func blocked(resp *genai.GenerateContentResponse) error {
	if resp == nil || resp.PromptFeedback == nil || resp.PromptFeedback.BlockReason == "" {
		return nil
	}
	msg := resp.PromptFeedback.BlockReasonMessage
	if msg == "" {
		msg = string(resp.PromptFeedback.BlockReason)
	}
	return fmt.Errorf("gemini: prompt blocked: %s", msg)
}

// convertChunk extracts the answer text of the first candidate. Thought
// parts are skipped.
func convertChunk(resp *genai.GenerateContentResponse) gemchat.Chunk {
	var chunk gemchat.Chunk
	if resp == nil {
		return chunk
	}
	if u := resp.UsageMetadata; u != nil {
		chunk.Usage = gemchat.Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
		}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return chunk
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	chunk.Text = sb.String()
	return chunk
}
