// Command gemchat is a terminal chat client for Gemini.
//
// Usage:
//
//	GEMINI_API_KEY=gk-... gemchat [flags]
//
// Flags:
//
//	-model string         Model ID (default: gemini-1.5-pro)
//	-session string       Path to session file to resume
//	-system-prompt string Path to system instruction file
//	-api-key string       API key (overrides GEMINI_API_KEY)
//	-out string           Transcript path for /save (default: gemini-chat.txt)
//	-log-level string     Log level: debug, info, warn, error (default: warn)
//	-local-tokens         Fall back to local token counting when the backend count fails
//
// A .env file in the working directory is loaded when present.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fwojciec/gemchat"
	"github.com/fwojciec/gemchat/gemini"
	chatjson "github.com/fwojciec/gemchat/json"
	"github.com/fwojciec/gemchat/tiktoken"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gemchat: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var f flags
	flag.StringVar(&f.model, "model", "", "Model ID (default: "+gemchat.DefaultModel+")")
	flag.StringVar(&f.sessionPath, "session", "", "Path to session file to resume")
	flag.StringVar(&f.promptPath, "system-prompt", "", "Path to system instruction file")
	flag.StringVar(&f.apiKey, "api-key", "", "API key (overrides GEMINI_API_KEY)")
	flag.StringVar(&f.outPath, "out", gemchat.TranscriptName, "Transcript path for /save")
	flag.StringVar(&f.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flag.BoolVar(&f.localTokens, "local-tokens", false, "Fall back to local token counting when the backend count fails")
	flag.Parse()

	// A missing .env is fine; anything else is a real error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	// Env vars are read here and passed as values.
	cfg, err := resolveConfig(f, env{
		apiKey:      os.Getenv("GEMINI_API_KEY"),
		model:       os.Getenv("GEMINI_MODEL"),
		instruction: os.Getenv("GEMINI_SYSTEM_INSTRUCTIONS"),
	})
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.logLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	conv, err := loadOrCreateConversation(cfg.sessionPath, cfg.settings.SystemInstruction)
	if err != nil {
		return err
	}

	client := gemini.New()
	acctOpts := []gemchat.AccountantOption{gemchat.WithAccountantLogger(logger)}
	if cfg.localTokens {
		local, err := tiktoken.New()
		if err != nil {
			return err
		}
		acctOpts = append(acctOpts, gemchat.WithFallbackCounter(local))
	}

	r := newREPL(client, conv, cfg, os.Stdout, os.Stderr, logger, acctOpts...)
	runErr := r.run(ctx, os.Stdin)

	if err := saveConversation(cfg.sessionPath, r.manager.Conversation()); err != nil {
		return err
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func loadOrCreateConversation(path, instruction string) (gemchat.Conversation, error) {
	if path != "" {
		c, err := chatjson.Load(path)
		switch {
		case err == nil:
			return c, nil
		case errors.Is(err, os.ErrNotExist):
			// New session at an explicit path.
		default:
			return gemchat.Conversation{}, fmt.Errorf("load session: %w", err)
		}
	}
	return gemchat.NewConversation(instruction), nil
}

func saveConversation(path string, c gemchat.Conversation) error {
	if !hasExchange(c.Turns) {
		return nil
	}
	if path == "" {
		path = defaultSessionPath(c.ID)
	}
	if err := chatjson.Save(path, c); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Session saved to %s\n", path)
	return nil
}

// hasExchange reports whether turns holds anything beyond the system turn.
func hasExchange(turns []gemchat.Turn) bool {
	for _, t := range turns {
		if !t.IsSystemPrompt {
			return true
		}
	}
	return false
}

func defaultSessionPath(id string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".gemchat", "sessions", id+".json")
}
