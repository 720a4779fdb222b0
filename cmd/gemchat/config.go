package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fwojciec/gemchat"
)

type flags struct {
	model       string
	sessionPath string
	promptPath  string
	apiKey      string
	outPath     string
	logLevel    string
	localTokens bool
}

type env struct {
	apiKey      string
	model       string
	instruction string
}

type config struct {
	settings    gemchat.Settings
	sessionPath string
	outPath     string
	logLevel    string
	localTokens bool
}

// resolveConfig merges flags over environment values. All env var values are
// passed in as parameters; env is only read in main(). A missing API key is
// not an error here: the manager reports it on the first send.
func resolveConfig(f flags, e env) (config, error) {
	cfg := config{
		settings: gemchat.Settings{
			APIKey:            firstNonEmpty(f.apiKey, e.apiKey),
			Model:             firstNonEmpty(f.model, e.model),
			SystemInstruction: e.instruction,
		},
		sessionPath: f.sessionPath,
		outPath:     firstNonEmpty(f.outPath, gemchat.TranscriptName),
		logLevel:    firstNonEmpty(f.logLevel, "warn"),
		localTokens: f.localTokens,
	}
	if f.promptPath != "" {
		data, err := os.ReadFile(f.promptPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return config{}, fmt.Errorf("system prompt %s not found", f.promptPath)
			}
			return config{}, fmt.Errorf("read system prompt: %w", err)
		}
		cfg.settings.SystemInstruction = strings.TrimSpace(string(data))
	}
	return cfg, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
