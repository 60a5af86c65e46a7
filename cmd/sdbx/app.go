package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	sdbx "github.com/sdbx/client-go"
	"github.com/sdbx/client-go/internal/config"
	"github.com/sdbx/client-go/internal/logging"
)

// app holds what every command needs. Commands write results to stdout and
// everything else (progress, prompts, logs) to stderr.
type app struct {
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	prompter prompter
	progress bool

	cfg    *config.Config
	logger *zap.Logger
	sugar  *zap.SugaredLogger

	outMu sync.Mutex
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:      "sdbx",
		Usage:     "Share files and text with end-to-end encryption",
		Version:   version,
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Usage: "backend base URL (env SDBX_API_URL)"},
			&cli.StringFlag{Name: "share-url", Usage: "site that share links point at (env SDBX_SHARE_URL)"},
			&cli.StringFlag{Name: "bot-token", Usage: "bot-verification token (env SDBX_BOT_TOKEN)"},
			&cli.DurationFlag{Name: "timeout", Usage: "timeout of each API call (env SDBX_TIMEOUT)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (env SDBX_LOG_LEVEL)"},
			&cli.BoolFlag{Name: "debug", Usage: "development logging (env SDBX_DEBUG)"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "no progress output"},
		},
		Before: a.setup,
		After: func(ctx context.Context, cmd *cli.Command) error {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			a.sendCommand(),
			a.sendTextCommand(),
			a.vaultCommand(),
			a.pinCommand(),
			a.getCommand(),
			a.getPINCommand(),
			a.infoCommand(),
			a.reportCommand(),
			a.devserverCommand(),
		},
	}
}

// setup loads configuration from the environment and applies flag overrides.
func (a *app) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load()
	if err != nil {
		return ctx, err
	}
	if cmd.IsSet("api-url") {
		cfg.APIURL = cmd.String("api-url")
	}
	if cmd.IsSet("share-url") {
		cfg.ShareURL = cmd.String("share-url")
	}
	if cmd.IsSet("bot-token") {
		cfg.BotToken = cmd.String("bot-token")
	}
	if cmd.IsSet("timeout") {
		cfg.Timeout = cmd.Duration("timeout")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("debug") {
		cfg.Debug = cmd.Bool("debug")
	}
	if cmd.Bool("quiet") {
		a.progress = false
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.LogLevel, cfg.Debug)
	if err != nil {
		return ctx, err
	}
	a.logger = logger
	a.sugar = logger.Sugar()
	return ctx, nil
}

// client builds an SDK client for the configured backend.
func (a *app) client() (*sdbx.Client, error) {
	if err := a.cfg.RequireAPI(); err != nil {
		return nil, err
	}
	opts := []sdbx.Option{
		sdbx.WithTimeout(a.cfg.Timeout),
		sdbx.WithShareBaseURL(a.cfg.ShareURL),
		sdbx.WithLogger(a.logger.Named("sdk")),
	}
	if a.cfg.BotToken != "" {
		opts = append(opts, sdbx.WithTokenSource(sdbx.StaticToken(a.cfg.BotToken)))
	}
	return sdbx.New(a.cfg.APIURL, opts...)
}

// printf writes to stdout. Concurrent downloads share it.
func (a *app) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.stdout, format, args...)
}

func (a *app) printJSON(v any) error {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// progressFunc returns a progress callback drawing one line on stderr, or nil
// when progress is off.
func (a *app) progressFunc(label string) sdbx.ProgressFunc {
	if !a.progress {
		return nil
	}
	return newProgressLine(a.stderr, label).update
}

// describe turns an SDK error into a short message for the terminal.
func describe(err error) error {
	var te *sdbx.TransferError
	if !errors.As(err, &te) {
		return err
	}
	switch te.Kind {
	case sdbx.FailureWrongPassword:
		return errors.New("wrong password or PIN")
	case sdbx.FailureGone:
		return errors.New("this share has expired or was already downloaded")
	case sdbx.FailureNotFound:
		return errors.New("share not found")
	case sdbx.FailureReserved:
		return errors.New("this share is being downloaded right now")
	case sdbx.FailureLocked:
		return errors.New("too many wrong PIN attempts; the share is locked")
	case sdbx.FailureInvalidKey:
		return errors.New("the link is incomplete or damaged")
	case sdbx.FailureCorrupted:
		return errors.New("the content failed its integrity check")
	}
	return err
}
