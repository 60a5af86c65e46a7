package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	sdbx "github.com/sdbx/client-go"
)

// maxParallelDownloads bounds concurrent downloads in one `get`.
const maxParallelDownloads = 4

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output-dir",
		Aliases: []string{"o"},
		Usage:   "directory for downloaded files (env SDBX_OUTPUT_DIR)",
	}
}

func (a *app) getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Download one or more share links",
		ArgsUsage: "LINK...",
		Flags:     []cli.Flag{outputFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.runGet(ctx, cmd.Args().Slice(), a.outputDir(cmd))
		},
	}
}

func (a *app) getPINCommand() *cli.Command {
	return &cli.Command{
		Name:      "get-pin",
		Usage:     "Download a PIN share",
		ArgsUsage: "CODE",
		Flags:     []cli.Flag{outputFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.runGetPIN(ctx, cmd.Args().First(), a.outputDir(cmd))
		},
	}
}

func (a *app) outputDir(cmd *cli.Command) string {
	if cmd.IsSet("output-dir") {
		return cmd.String("output-dir")
	}
	return a.cfg.OutputDir
}

// runGet downloads links concurrently. Each link is independent; the first
// failure cancels the rest.
func (a *app) runGet(ctx context.Context, links []string, dir string) error {
	if len(links) == 0 {
		return errors.New("no links given")
	}
	c, err := a.client()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDownloads)
	for i, link := range links {
		g.Go(func() error {
			opts := []sdbx.TransferOption{
				sdbx.WithPasswordPrompt(func(context.Context) (string, error) {
					return a.prompter.Secret(fmt.Sprintf("Password for link %d: ", i+1))
				}),
			}
			if len(links) == 1 {
				if fn := a.progressFunc("get"); fn != nil {
					opts = append(opts, sdbx.WithProgress(fn))
				}
			}

			result, err := c.Download(ctx, link, opts...)
			if err != nil {
				return fmt.Errorf("link %d: %w", i+1, describe(err))
			}
			return a.deliver(result, dir)
		})
	}
	return g.Wait()
}

func (a *app) runGetPIN(ctx context.Context, code, dir string) error {
	if code == "" {
		return errors.New("no code given")
	}
	c, err := a.client()
	if err != nil {
		return err
	}

	session, err := c.StartPIN(ctx, code)
	if err != nil {
		return describe(err)
	}
	pin, err := a.prompter.Secret(fmt.Sprintf("PIN (%d attempts left): ", session.AttemptsLeft))
	if err != nil {
		return err
	}

	var opts []sdbx.TransferOption
	if fn := a.progressFunc("get"); fn != nil {
		opts = append(opts, sdbx.WithProgress(fn))
	}
	result, err := c.DownloadPIN(ctx, code, pin, opts...)
	if err != nil {
		return describe(err)
	}
	return a.deliver(result, dir)
}

// deliver prints text secrets and writes files into dir.
func (a *app) deliver(result *sdbx.Result, dir string) error {
	if result.Kind == sdbx.KindText {
		a.printf("%s\n", result.Text)
		return nil
	}
	path, err := writeNew(dir, result.Name, result.Data)
	if err != nil {
		return err
	}
	a.printf("%s\n", path)
	a.sugar.Debugw("file saved", "file_id", result.FileID, "bytes", len(result.Data))
	return nil
}

// writeNew writes data to dir/name without replacing existing files: a
// taken name gets " (n)" before its extension.
func writeNew(dir, name string, data []byte) (string, error) {
	name = safeName(name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for n := 0; n < 1000; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", err
		}
		return path, f.Close()
	}
	return "", fmt.Errorf("no free file name for %q in %s", name, dir)
}

// safeName keeps only the last path element of a name taken from a link.
func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	switch name {
	case "", ".", "..", "/":
		return sdbx.DefaultFileName
	}
	return name
}
