package gemchat

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Manager owns one conversation and drives sends through the
// Idle → Sending → Streaming → Completed | Failed state machine.
//
// History is only mutated at reaction points: a send, a chunk arrival, and
// the end or failure of the stream. A send while another generation is
// active is rejected, so two streams never share a placeholder turn.
type Manager struct {
	backend  Backend
	notifier Notifier
	logger   zerolog.Logger
	onUpdate func(Turn)

	mu          sync.Mutex
	conv        Conversation
	instruction string
	state       State
	gen         *GenerationSession
}

// ManagerOption configures a [Manager].
type ManagerOption func(*Manager)

// WithNotifier sets the sink for user-facing notifications.
func WithNotifier(n Notifier) ManagerOption {
	return func(m *Manager) { m.notifier = n }
}

// WithLogger sets the structured logger. Default is a no-op logger.
func WithLogger(l zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// WithUpdateHandler sets a callback invoked with the in-progress assistant
// turn after every merged chunk. It runs on the sending goroutine.
func WithUpdateHandler(h func(Turn)) ManagerOption {
	return func(m *Manager) { m.onUpdate = h }
}

// NewManager creates a Manager for conv.
func NewManager(backend Backend, conv Conversation, opts ...ManagerOption) *Manager {
	m := &Manager{
		backend:  backend,
		notifier: NotifierFunc(func(string) {}),
		logger:   zerolog.Nop(),
		conv:     conv,
	}
	if i := SystemIndex(conv.Turns); i >= 0 {
		m.instruction = conv.Turns[i].Text()
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Generation returns a copy of the active generation session, if any.
func (m *Manager) Generation() (GenerationSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen == nil {
		return GenerationSession{}, false
	}
	return *m.gen, true
}

// Conversation returns a copy of the conversation.
func (m *Manager) Conversation() Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.conv
	c.Turns = m.turnsLocked()
	return c
}

// Turns returns a copy of the history.
func (m *Manager) Turns() []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turnsLocked()
}

// Parts slices are replaced wholesale, never written in place, so a shallow
// copy of the turn slice is a stable snapshot.
func (m *Manager) turnsLocked() []Turn {
	turns := make([]Turn, len(m.conv.Turns))
	copy(turns, m.conv.Turns)
	return turns
}

// Reset clears the history, keeping only the system turn for the configured
// instruction.
func (m *Manager) Reset(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != nil {
		return ErrGenerationActive
	}
	m.conv = NewConversation(s.SystemInstruction)
	m.instruction = s.SystemInstruction
	m.state = StateIdle
	m.logger.Debug().Str("conversation", m.conv.ID).Msg("conversation reset")
	return nil
}

// ApplySettings resets the conversation when the system instruction differs
// from the one the history was initialized with. It reports whether a reset
// happened.
func (m *Manager) ApplySettings(s Settings) (bool, error) {
	m.mu.Lock()
	same := m.instruction == s.SystemInstruction
	m.mu.Unlock()
	if same {
		return false, nil
	}
	if err := m.Reset(s); err != nil {
		return false, err
	}
	return true, nil
}

// Send appends a user turn built from draft and images, then streams the
// assistant response into a placeholder turn. Transport failures are
// notified and returned as *TransportError; the user turn is kept.
func (m *Manager) Send(ctx context.Context, s Settings, draft string, images []InlineBinaryPart) error {
	parts := UserParts(draft, images)

	m.mu.Lock()
	if m.gen != nil {
		m.mu.Unlock()
		return ErrGenerationActive
	}
	if parts == nil {
		m.mu.Unlock()
		return ErrEmptyInput
	}
	if s.APIKey == "" {
		m.mu.Unlock()
		m.notifier.Notify("Please enter your Gemini API key in the settings.")
		return &ConfigurationError{Reason: MissingCredential}
	}
	contents := Assemble(m.conv.Turns, parts, s.SystemInstruction)
	m.conv.Turns = append(m.conv.Turns, Turn{Role: RoleUser, Parts: parts, Timestamp: time.Now()})
	m.beginLocked(draft)
	m.mu.Unlock()

	return m.generate(ctx, s, contents)
}

// SendFiles encodes files and sends them with draft as caption. Rejected
// files are notified one by one; the send proceeds with the rest.
func (m *Manager) SendFiles(ctx context.Context, s Settings, draft string, files []Attachment) error {
	images, errs := EncodeAll(ctx, files)
	for _, err := range errs {
		var encErr *EncodingError
		if errors.As(err, &encErr) && encErr.Reason != ReadFailed {
			m.notifier.Notify(encErr.Error() + " and will be skipped.")
		} else {
			m.notifier.Notify("Error processing files. Please try again or use smaller files.")
		}
		m.logger.Warn().Err(err).Msg("attachment rejected")
	}
	if len(images) == 0 {
		m.notifier.Notify("No valid images were uploaded.")
		return ErrNoValidAttachments
	}
	return m.Send(ctx, s, draft, images)
}

// Retry regenerates the response to the trailing user turn, typically after
// a failed send. No new user turn is appended.
func (m *Manager) Retry(ctx context.Context, s Settings) error {
	m.mu.Lock()
	if m.gen != nil {
		m.mu.Unlock()
		return ErrGenerationActive
	}
	n := len(m.conv.Turns)
	if n == 0 || m.conv.Turns[n-1].Role != RoleUser || m.conv.Turns[n-1].IsSystemPrompt {
		m.mu.Unlock()
		return ErrNothingToRetry
	}
	if s.APIKey == "" {
		m.mu.Unlock()
		m.notifier.Notify("Please enter your Gemini API key in the settings.")
		return &ConfigurationError{Reason: MissingCredential}
	}
	contents := Assemble(m.conv.Turns, nil, s.SystemInstruction)
	m.beginLocked(m.conv.Turns[n-1].Text())
	m.mu.Unlock()

	return m.generate(ctx, s, contents)
}

// beginLocked enters Sending: it appends the empty assistant placeholder and
// opens the generation session.
func (m *Manager) beginLocked(draft string) {
	m.conv.Turns = append(m.conv.Turns, Turn{
		Role:  RoleAssistant,
		Parts: []ContentPart{TextPart{}},
	})
	m.conv.UpdatedAt = time.Now()
	m.gen = &GenerationSession{DraftText: draft, Active: true}
	m.state = StateSending
}

func (m *Manager) generate(ctx context.Context, s Settings, contents []Content) error {
	req := NewRequest(s, contents)
	m.logger.Debug().Str("model", req.Model).Int("contents", len(contents)).Msg("opening stream")

	stream, err := m.backend.Stream(ctx, req)
	if err != nil {
		return m.fail("open", err)
	}
	defer stream.Close()

	m.setState(StateStreaming)

	var usage Usage
	for {
		if err := ctx.Err(); err != nil {
			return m.fail("stream", err)
		}
		chunk, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return m.fail("stream", err)
		}
		if chunk.Usage != (Usage{}) {
			usage = chunk.Usage
		}
		if chunk.Text != "" {
			m.merge(chunk.Text)
		}
	}
	m.complete(usage)
	return nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// merge extends the accumulated text and replaces the placeholder's sole
// text part with it.
func (m *Manager) merge(text string) {
	m.mu.Lock()
	m.gen.AccumulatedChunks += text
	last := len(m.conv.Turns) - 1
	m.conv.Turns[last].Parts = []ContentPart{TextPart{Value: m.gen.AccumulatedChunks}}
	turn := m.conv.Turns[last]
	m.mu.Unlock()

	if m.onUpdate != nil {
		m.onUpdate(turn)
	}
}

func (m *Manager) complete(usage Usage) {
	m.mu.Lock()
	last := len(m.conv.Turns) - 1
	now := time.Now()
	m.conv.Turns[last].Usage = usage
	m.conv.Turns[last].Timestamp = now
	m.conv.UpdatedAt = now
	size := len(m.gen.AccumulatedChunks)
	m.gen = nil
	m.state = StateCompleted
	m.mu.Unlock()

	m.logger.Debug().
		Int("bytes", size).
		Int("input_tokens", usage.InputTokens).
		Int("output_tokens", usage.OutputTokens).
		Msg("stream completed")
}

// fail enters Failed: the placeholder is removed and the user turn stays.
func (m *Manager) fail(op string, err error) error {
	m.mu.Lock()
	m.conv.Turns = m.conv.Turns[:len(m.conv.Turns)-1]
	m.conv.UpdatedAt = time.Now()
	m.gen = nil
	m.state = StateFailed
	m.mu.Unlock()

	m.logger.Error().Err(err).Str("op", op).Msg("generation failed")
	m.notifier.Notify("Error communicating with Gemini API: " + err.Error())
	return &TransportError{Op: op, Err: err}
}

// Export renders the transcript artifact. An empty history is notified and
// returned as ErrEmptyExport.
func (m *Manager) Export() (Artifact, error) {
	a, err := Export(m.Turns())
	if errors.Is(err, ErrEmptyExport) {
		m.notifier.Notify("Chat history is empty!")
	}
	return a, err
}

// ExportTo writes the transcript artifact to w.
func (m *Manager) ExportTo(w io.Writer) error {
	a, err := m.Export()
	if err != nil {
		return err
	}
	if _, err := w.Write(a.Data); err != nil {
		return err
	}
	m.notifier.Notify("Chat history saved!")
	return nil
}
