package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dhcgn/llm-assist/config"
	"github.com/dhcgn/llm-assist/console"
	"github.com/dhcgn/llm-assist/imap"
	"github.com/dhcgn/llm-assist/llm"
	"github.com/dhcgn/llm-assist/mailbox"
	"github.com/dhcgn/llm-assist/mbox"
	"github.com/dhcgn/llm-assist/model"
	"github.com/dhcgn/llm-assist/progress"
	"github.com/dhcgn/llm-assist/runner"
	"github.com/dhcgn/llm-assist/tools"
)

// Commands returns fresh assistant subcommands.
func Commands() []*cobra.Command {
	return []*cobra.Command{newDigestCmd(), newChatCmd(), newNotesCmd()}
}

// app holds what every assistant builds before its loop starts.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	console  *console.Console
	progress *progress.Indicator
	cleanup  func() error
}

func newApp(cmd *cobra.Command, tool config.Tool) (*app, error) {
	cfg, err := config.LoadConfig(cmd, tool)
	if err != nil {
		return nil, err
	}

	logger, cleanup, err := setupLogger(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	logger = logger.With("tool", string(tool), "session", uuid.NewString())
	slog.SetDefault(logger)

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	return &app{
		cfg:      cfg,
		logger:   logger,
		console:  console.New(cmd.InOrStdin(), cmd.OutOrStdout(), interactive),
		progress: progress.New(cmd.OutOrStdout(), interactive),
		cleanup:  cleanup,
	}, nil
}

func (a *app) close() {
	if err := a.cleanup(); err != nil {
		fmt.Fprintf(os.Stderr, "close log file: %v\n", err)
	}
}

func (a *app) completer() (*llm.Client, error) {
	return llm.NewClient(llm.Config{
		APIKey:  a.cfg.LLMAPIKey,
		BaseURL: a.cfg.LLMBaseURL,
	}, llm.Options{
		Model:       a.cfg.Model,
		Temperature: float32(a.cfg.Temperature),
	}, a.logger)
}

// mailReader reads a local mbox file when one is configured and the IMAP inbox otherwise.
func (a *app) mailReader() (*mailbox.Client, error) {
	var (
		dialer mailbox.Dialer
		err    error
	)
	if a.cfg.MboxPath != "" {
		dialer, err = mbox.NewDialer(mbox.Options{Path: a.cfg.MboxPath}, a.logger)
	} else {
		dialer, err = imap.NewDialer(imap.Options{
			Host:               a.cfg.IMAPHost,
			Port:               a.cfg.IMAPPort,
			Username:           a.cfg.Email,
			Password:           a.cfg.EmailPassword,
			UseTLS:             a.cfg.UseTLS,
			InsecureSkipVerify: a.cfg.InsecureSkipVerify,
			Mailbox:            a.cfg.Mailbox,
		}, a.logger)
	}
	if err != nil {
		return nil, model.NewError(model.KindConfiguration, "mailbox", err)
	}

	return mailbox.New(dialer, mailbox.Options{
		Preview:   model.Truncation{Limit: a.cfg.PreviewLength, Marker: a.cfg.Ellipsis},
		BatchSize: a.cfg.FetchBatch,
	}, a.logger)
}

func (a *app) run(ctx context.Context, tool tools.Tool) error {
	r, err := runner.New(tool.Options, tool.Actions, a.console, a.progress, a.logger)
	if err != nil {
		return err
	}

	// A blocked line read only returns once stdin is closed.
	stop := context.AfterFunc(ctx, func() {
		_ = os.Stdin.Close()
	})
	defer stop()

	if err := r.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			a.logger.Info("interrupted")
			return nil
		}
		return err
	}
	return nil
}

func setupLogger(cfg config.Config, stderr io.Writer) (*slog.Logger, func() error, error) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)

	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}

	opts := &slog.HandlerOptions{Level: level}
	cleanup := func() error { return nil }

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, cleanup, err
		}

		logFilePath := filepath.Join(cfg.LogDir, fmt.Sprintf("llm-assist-%s.log", time.Now().Format("20060102T150405")))
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, err
		}

		handler := slog.NewTextHandler(io.MultiWriter(stderr, file), opts)
		cleanup = func() error {
			return file.Close()
		}
		return slog.New(handler), cleanup, nil
	}

	handler := slog.NewTextHandler(stderr, opts)
	return slog.New(handler), cleanup, nil
}
