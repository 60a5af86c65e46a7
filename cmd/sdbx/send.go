package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	sdbx "github.com/sdbx/client-go"
)

// shareOutput is the --json form of a finished upload.
type shareOutput struct {
	FileID    string    `json:"file_id"`
	Link      string    `json:"link,omitempty"`
	Name      string    `json:"name,omitempty"`
	FileCount int       `json:"file_count,omitempty"`
	Size      int64     `json:"size"`
	Vault     bool      `json:"vault"`
	PIN       bool      `json:"pin"`
	ExpiresAt time.Time `json:"expires_at"`
}

func ttlFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "ttl",
		Value: "24h",
		Usage: "lifetime: 1h, 12h, 24h, or minutes (5-10080)",
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "print the result as JSON"}
}

func (a *app) sendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Upload files as a single-access link",
		ArgsUsage: "FILE...",
		Flags:     []cli.Flag{ttlFlag(), jsonFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.runSend(ctx, cmd.Args().Slice(), cmd.String("ttl"), cmd.Bool("json"))
		},
	}
}

func (a *app) sendTextCommand() *cli.Command {
	return &cli.Command{
		Name:      "send-text",
		Usage:     "Upload a text secret as a single-access link",
		ArgsUsage: "[TEXT|-]",
		Flags:     []cli.Flag{ttlFlag(), jsonFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.runSendText(ctx, cmd.Args().First(), cmd.String("ttl"), cmd.Bool("json"))
		},
	}
}

func (a *app) vaultCommand() *cli.Command {
	return &cli.Command{
		Name:      "vault",
		Usage:     "Upload files or text as a password-protected, multi-access link",
		ArgsUsage: "FILE... | --text [TEXT|-]",
		Flags: []cli.Flag{
			ttlFlag(),
			jsonFlag(),
			&cli.BoolFlag{Name: "text", Usage: "upload a text secret instead of files"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.runVault(ctx, cmd.Args().Slice(), cmd.Bool("text"), cmd.String("ttl"), cmd.Bool("json"))
		},
	}
}

func (a *app) pinCommand() *cli.Command {
	return &cli.Command{
		Name:      "pin",
		Usage:     "Upload files protected by a 6-digit code and a 4-character PIN",
		ArgsUsage: "FILE...",
		Flags:     []cli.Flag{ttlFlag(), jsonFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.runPIN(ctx, cmd.Args().Slice(), cmd.String("ttl"), cmd.Bool("json"))
		},
	}
}

func (a *app) runSend(ctx context.Context, paths []string, ttl string, asJSON bool) error {
	opts, err := a.uploadOptions(ttl, "send")
	if err != nil {
		return err
	}
	files, err := readFiles(paths)
	if err != nil {
		return err
	}
	c, err := a.client()
	if err != nil {
		return err
	}
	share, err := c.Upload(ctx, files, opts...)
	if err != nil {
		return describe(err)
	}
	return a.printShare(share, asJSON)
}

func (a *app) runSendText(ctx context.Context, arg, ttl string, asJSON bool) error {
	opts, err := a.uploadOptions(ttl, "send")
	if err != nil {
		return err
	}
	text, err := a.readText(arg)
	if err != nil {
		return err
	}
	c, err := a.client()
	if err != nil {
		return err
	}
	share, err := c.UploadText(ctx, text, opts...)
	if err != nil {
		return describe(err)
	}
	return a.printShare(share, asJSON)
}

func (a *app) runVault(ctx context.Context, args []string, text bool, ttl string, asJSON bool) error {
	opts, err := a.uploadOptions(ttl, "vault")
	if err != nil {
		return err
	}

	var files []sdbx.File
	var secret string
	if text {
		arg := ""
		if len(args) > 0 {
			arg = args[0]
		}
		if secret, err = a.readText(arg); err != nil {
			return err
		}
	} else if files, err = readFiles(args); err != nil {
		return err
	}

	c, err := a.client()
	if err != nil {
		return err
	}
	password, err := newPassword(a.prompter, sdbx.MinPasswordLength)
	if err != nil {
		return err
	}

	var share *sdbx.Share
	if text {
		share, err = c.UploadVaultText(ctx, secret, password, opts...)
	} else {
		share, err = c.UploadVault(ctx, files, password, opts...)
	}
	if err != nil {
		return describe(err)
	}
	return a.printShare(share, asJSON)
}

func (a *app) runPIN(ctx context.Context, paths []string, ttl string, asJSON bool) error {
	opts, err := a.uploadOptions(ttl, "pin")
	if err != nil {
		return err
	}
	files, err := readFiles(paths)
	if err != nil {
		return err
	}
	c, err := a.client()
	if err != nil {
		return err
	}
	pin, err := a.prompter.Secret("PIN (4 letters or digits): ")
	if err != nil {
		return err
	}

	share, err := c.UploadPIN(ctx, files, pin, opts...)
	if err != nil {
		return describe(err)
	}
	return a.printShare(share, asJSON)
}

func (a *app) uploadOptions(ttl, label string) ([]sdbx.TransferOption, error) {
	parsed, err := sdbx.ParseTTL(ttl)
	if err != nil {
		return nil, err
	}
	opts := []sdbx.TransferOption{sdbx.WithTTL(parsed)}
	if fn := a.progressFunc(label); fn != nil {
		opts = append(opts, sdbx.WithProgress(fn))
	}
	return opts, nil
}

func (a *app) printShare(share *sdbx.Share, asJSON bool) error {
	if asJSON {
		return a.printJSON(shareOutput{
			FileID:    share.FileID,
			Link:      share.Link,
			Name:      share.Name,
			FileCount: share.FileCount,
			Size:      share.Size,
			Vault:     share.Vault,
			PIN:       share.PIN,
			ExpiresAt: share.ExpiresAt,
		})
	}
	if share.PIN {
		a.printf("Code: %s\n", share.FileID)
	} else {
		a.printf("%s\n", share.Link)
	}
	a.sugar.Debugw("share created", "file_id", share.FileID, "expires_at", share.ExpiresAt)
	return nil
}

// readFiles loads files from disk, named by their base names.
func readFiles(paths []string) ([]sdbx.File, error) {
	if len(paths) == 0 {
		return nil, errors.New("no files given")
	}
	files := make([]sdbx.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, sdbx.File{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}

// readText returns arg, or stdin when arg is "-" or empty.
func (a *app) readText(arg string) (string, error) {
	if arg != "" && arg != "-" {
		return arg, nil
	}
	b, err := io.ReadAll(a.stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSuffix(string(b), "\n"), nil
}
