package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/fwojciec/gemchat"
	"github.com/rs/zerolog"
)

// Colors are disabled automatically when stdout is not a terminal.
var (
	promptColor = color.New(color.FgGreen, color.Bold).SprintFunc()
	noticeColor = color.New(color.FgYellow).SprintFunc()
	errorColor  = color.New(color.FgRed).SprintFunc()
)

const helpText = `Type a message and press enter to send it.
  /image <path>... [-- caption]  send images with an optional caption
  /save [path]                   save the transcript
  /clear                         start over
  /retry                         regenerate the last failed response
  /tokens                        show the token estimate
  /quit                          exit`

var errQuit = errors.New("quit")

type commandKind int

const (
	cmdNone commandKind = iota
	cmdSend
	cmdImage
	cmdSave
	cmdClear
	cmdRetry
	cmdTokens
	cmdHelp
	cmdQuit
)

type command struct {
	kind  commandKind
	text  string
	paths []string
}

// parseCommand interprets one input line. Lines not starting with "/" are
// sent as-is.
func parseCommand(line string) (command, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return command{kind: cmdNone}, nil
	}
	if !strings.HasPrefix(trimmed, "/") {
		return command{kind: cmdSend, text: line}, nil
	}
	name, rest, _ := strings.Cut(trimmed, " ")
	rest = strings.TrimSpace(rest)
	switch name {
	case "/image":
		paths, caption, _ := strings.Cut(rest, "--")
		cmd := command{kind: cmdImage, paths: strings.Fields(paths), text: strings.TrimSpace(caption)}
		if len(cmd.paths) == 0 {
			return command{}, errors.New("usage: /image <path>... [-- caption]")
		}
		return cmd, nil
	case "/save":
		cmd := command{kind: cmdSave}
		if rest != "" {
			cmd.paths = []string{rest}
		}
		return cmd, nil
	case "/clear":
		return command{kind: cmdClear}, nil
	case "/retry":
		return command{kind: cmdRetry}, nil
	case "/tokens":
		return command{kind: cmdTokens}, nil
	case "/help":
		return command{kind: cmdHelp}, nil
	case "/quit", "/exit":
		return command{kind: cmdQuit}, nil
	default:
		return command{}, fmt.Errorf("unknown command %s (try /help)", name)
	}
}

type repl struct {
	manager    *gemchat.Manager
	accountant *gemchat.Accountant
	settings   gemchat.Settings
	outPath    string
	out        io.Writer
	errOut     io.Writer
	logger     zerolog.Logger

	// printed is the length of the in-progress response already written.
	printed int
}

func newREPL(backend gemchat.Backend, conv gemchat.Conversation, cfg config, out, errOut io.Writer, logger zerolog.Logger, acctOpts ...gemchat.AccountantOption) *repl {
	r := &repl{
		settings: cfg.settings,
		outPath:  cfg.outPath,
		out:      out,
		errOut:   errOut,
		logger:   logger,
	}
	r.manager = gemchat.NewManager(backend, conv,
		gemchat.WithLogger(logger),
		gemchat.WithNotifier(gemchat.NotifierFunc(func(msg string) {
			fmt.Fprintln(errOut, noticeColor(msg))
		})),
		gemchat.WithUpdateHandler(r.printDelta),
	)
	r.accountant = gemchat.NewAccountant(backend, acctOpts...)
	return r
}

// printDelta writes the part of the cumulative response not yet printed.
func (r *repl) printDelta(turn gemchat.Turn) {
	text := turn.Text()
	if len(text) < r.printed {
		r.printed = 0
	}
	fmt.Fprint(r.out, text[r.printed:])
	r.printed = len(text)
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), gemchat.MaxAttachmentSize)
	for {
		fmt.Fprint(r.out, promptColor("> "))
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		cmd, err := parseCommand(scanner.Text())
		if err != nil {
			fmt.Fprintln(r.errOut, errorColor(err.Error()))
			continue
		}
		if err := r.handle(ctx, cmd); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.report(err)
		}
	}
}

func (r *repl) handle(ctx context.Context, cmd command) error {
	switch cmd.kind {
	case cmdNone:
		return nil
	case cmdSend:
		return r.stream(func() error {
			return r.manager.Send(ctx, r.settings, cmd.text, nil)
		})
	case cmdImage:
		files := make([]gemchat.Attachment, 0, len(cmd.paths))
		for _, p := range cmd.paths {
			a, err := gemchat.OpenFile(p)
			if err != nil {
				fmt.Fprintln(r.errOut, errorColor(fmt.Sprintf("%s will be skipped: %v", p, err)))
				continue
			}
			files = append(files, a)
		}
		return r.stream(func() error {
			return r.manager.SendFiles(ctx, r.settings, cmd.text, files)
		})
	case cmdRetry:
		return r.stream(func() error {
			return r.manager.Retry(ctx, r.settings)
		})
	case cmdSave:
		path := r.outPath
		if len(cmd.paths) > 0 {
			path = cmd.paths[0]
		}
		return r.save(path)
	case cmdClear:
		if err := r.manager.Reset(r.settings); err != nil {
			return err
		}
		fmt.Fprintln(r.out, "Conversation cleared.")
		return nil
	case cmdTokens:
		est := r.accountant.Estimate(ctx, r.manager.Turns(), "", r.settings)
		fmt.Fprintf(r.out, "tokens: %d\n", est.Count)
		return nil
	case cmdHelp:
		fmt.Fprintln(r.out, helpText)
		return nil
	case cmdQuit:
		return errQuit
	default:
		return fmt.Errorf("unhandled command %d", cmd.kind)
	}
}

// stream runs one generation and terminates the printed response line.
func (r *repl) stream(send func() error) error {
	r.printed = 0
	err := send()
	if r.printed > 0 {
		fmt.Fprintln(r.out)
	}
	return err
}

func (r *repl) save(path string) error {
	var buf bytes.Buffer
	if err := r.manager.ExportTo(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	fmt.Fprintf(r.out, "Transcript written to %s\n", path)
	return nil
}

// report prints errors the manager has not already surfaced as a
// notification.
func (r *repl) report(err error) {
	var (
		transportErr *gemchat.TransportError
		configErr    *gemchat.ConfigurationError
	)
	switch {
	case errors.As(err, &transportErr),
		errors.As(err, &configErr),
		errors.Is(err, gemchat.ErrNoValidAttachments),
		errors.Is(err, gemchat.ErrEmptyExport):
		r.logger.Debug().Err(err).Msg("command failed")
	default:
		fmt.Fprintln(r.errOut, errorColor(err.Error()))
	}
}
