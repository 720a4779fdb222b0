package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/fwojciec/gemchat"
	"github.com/fwojciec/gemchat/mock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestParseCommand(t *testing.T) {
	t.Parallel()
	tests := []struct {
		line string
		want command
	}{
		{"", command{kind: cmdNone}},
		{"   ", command{kind: cmdNone}},
		{"hello there", command{kind: cmdSend, text: "hello there"}},
		{"/image a.png b.jpg", command{kind: cmdImage, paths: []string{"a.png", "b.jpg"}}},
		{"/image a.png -- what is this?", command{kind: cmdImage, paths: []string{"a.png"}, text: "what is this?"}},
		{"/save", command{kind: cmdSave}},
		{"/save out.txt", command{kind: cmdSave, paths: []string{"out.txt"}}},
		{"/clear", command{kind: cmdClear}},
		{"/retry", command{kind: cmdRetry}},
		{"/tokens", command{kind: cmdTokens}},
		{"/help", command{kind: cmdHelp}},
		{"/quit", command{kind: cmdQuit}},
		{"/exit", command{kind: cmdQuit}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			got, err := parseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	t.Parallel()
	_, err := parseCommand("/image")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage")

	_, err = parseCommand("/bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command /bogus")
}

type harness struct {
	repl   *repl
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newHarness(t *testing.T, backend gemchat.Backend, cfg config) *harness {
	t.Helper()
	h := &harness{out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	h.repl = newREPL(backend, gemchat.NewConversation(cfg.settings.SystemInstruction), cfg, h.out, h.errOut, zerolog.Nop())
	return h
}

func testConfig(t *testing.T) config {
	t.Helper()
	return config{
		settings: gemchat.Settings{APIKey: "gk-test", SystemInstruction: "be brief"},
		outPath:  filepath.Join(t.TempDir(), gemchat.TranscriptName),
	}
}

func TestREPL_SendStreamsDeltas(t *testing.T) {
	t.Parallel()
	backend := &mock.Backend{
		StreamFn: func(context.Context, gemchat.Request) (gemchat.Stream, error) {
			return mock.ChunkStream(nil, "Hello, ", "world"), nil
		},
	}
	h := newHarness(t, backend, testConfig(t))

	err := h.repl.run(context.Background(), strings.NewReader("hi\n/quit\n"))
	require.NoError(t, err)

	assert.Contains(t, h.out.String(), "Hello, world\n")
	turns := h.repl.manager.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, "Hello, world", turns[2].Text())
}

func TestREPL_TransportErrorNotifiedOnce(t *testing.T) {
	t.Parallel()
	backend := &mock.Backend{
		StreamFn: func(context.Context, gemchat.Request) (gemchat.Stream, error) {
			return nil, errors.New("unavailable")
		},
	}
	h := newHarness(t, backend, testConfig(t))

	err := h.repl.run(context.Background(), strings.NewReader("hi\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(h.errOut.String(), "unavailable"))
	assert.Contains(t, h.errOut.String(), "Error communicating with Gemini API: unavailable")
}

func TestREPL_MissingKey(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.settings.APIKey = ""
	h := newHarness(t, &mock.Backend{}, cfg)

	err := h.repl.run(context.Background(), strings.NewReader("hi\n"))
	require.NoError(t, err)

	assert.Contains(t, h.errOut.String(), "Please enter your Gemini API key in the settings.")
	assert.Len(t, h.repl.manager.Turns(), 1)
}

func TestREPL_Tokens(t *testing.T) {
	t.Parallel()
	backend := &mock.Backend{
		CountTokensFn: func(context.Context, gemchat.Request) (int, error) { return 42, nil },
	}
	h := newHarness(t, backend, testConfig(t))

	err := h.repl.run(context.Background(), strings.NewReader("/tokens\n"))
	require.NoError(t, err)
	assert.Contains(t, h.out.String(), "tokens: 42")
}

func TestREPL_SaveAndClear(t *testing.T) {
	t.Parallel()
	backend := &mock.Backend{
		StreamFn: func(context.Context, gemchat.Request) (gemchat.Stream, error) {
			return mock.ChunkStream(nil, "pong"), nil
		},
	}
	cfg := testConfig(t)
	h := newHarness(t, backend, cfg)

	err := h.repl.run(context.Background(), strings.NewReader("ping\n/save\n/clear\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.outPath)
	require.NoError(t, err)
	assert.Equal(t, "SYSTEM: be brief\nUSER: ping\nASSISTANT: pong\n", string(data))
	assert.Contains(t, h.errOut.String(), "Chat history saved!")
	assert.Contains(t, h.out.String(), "Conversation cleared.")
	assert.Len(t, h.repl.manager.Turns(), 1)
}

func TestREPL_SaveEmpty(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.settings.SystemInstruction = ""
	h := newHarness(t, &mock.Backend{}, cfg)

	err := h.repl.run(context.Background(), strings.NewReader("/save\n"))
	require.NoError(t, err)

	assert.Contains(t, h.errOut.String(), "Chat history is empty!")
	_, err = os.Stat(cfg.outPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestREPL_ImageMissingFile(t *testing.T) {
	t.Parallel()
	h := newHarness(t, &mock.Backend{}, testConfig(t))

	err := h.repl.run(context.Background(), strings.NewReader("/image "+filepath.Join(t.TempDir(), "none.png")+"\n"))
	require.NoError(t, err)

	assert.Contains(t, h.errOut.String(), "will be skipped")
	assert.Contains(t, h.errOut.String(), "No valid images were uploaded.")
}

func TestREPL_RetryNothing(t *testing.T) {
	t.Parallel()
	h := newHarness(t, &mock.Backend{}, testConfig(t))

	err := h.repl.run(context.Background(), strings.NewReader("/retry\n"))
	require.NoError(t, err)
	assert.Contains(t, h.errOut.String(), gemchat.ErrNothingToRetry.Error())
}

func TestREPL_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := newHarness(t, &mock.Backend{}, testConfig(t))

	err := h.repl.run(ctx, strings.NewReader("hi\n"))
	assert.ErrorIs(t, err, context.Canceled)
}
