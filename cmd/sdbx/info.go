package main

import (
	"context"
	"errors"
	"time"

	"github.com/urfave/cli/v3"
)

type infoOutput struct {
	FileID        string    `json:"file_id"`
	Kind          string    `json:"kind"`
	Name          string    `json:"name,omitempty"`
	Size          int64     `json:"size"`
	Available     bool      `json:"available"`
	ExpiresAt     time.Time `json:"expires_at"`
	AccessMode    string    `json:"access_mode"`
	Vault         bool      `json:"vault"`
	DownloadCount int       `json:"download_count"`
}

func (a *app) infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Show metadata of a share without downloading it",
		ArgsUsage: "LINK|ID",
		Flags:     []cli.Flag{jsonFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.runInfo(ctx, cmd.Args().First(), cmd.Bool("json"))
		},
	}
}

func (a *app) reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Report a share for abuse",
		ArgsUsage: "ID",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "reason", Usage: "what is wrong with the content"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.runReport(ctx, cmd.Args().First(), cmd.String("reason"))
		},
	}
}

func (a *app) runInfo(ctx context.Context, linkOrID string, asJSON bool) error {
	if linkOrID == "" {
		return errors.New("no link given")
	}
	c, err := a.client()
	if err != nil {
		return err
	}
	info, err := c.Info(ctx, linkOrID)
	if err != nil {
		return describe(err)
	}

	out := infoOutput{
		FileID:        info.FileID,
		Kind:          info.Kind.String(),
		Name:          info.Name,
		Size:          info.Size,
		Available:     info.Available,
		ExpiresAt:     info.ExpiresAt,
		AccessMode:    info.AccessMode,
		Vault:         info.Vault,
		DownloadCount: info.DownloadCount,
	}
	if asJSON {
		return a.printJSON(out)
	}

	a.printf("ID:         %s\n", out.FileID)
	a.printf("Kind:       %s\n", out.Kind)
	if out.Name != "" {
		a.printf("Name:       %s\n", out.Name)
	}
	a.printf("Size:       %d bytes\n", out.Size)
	a.printf("Available:  %t\n", out.Available)
	a.printf("Expires:    %s\n", out.ExpiresAt.Format(time.RFC1123))
	a.printf("Access:     %s\n", out.AccessMode)
	if out.Vault {
		a.printf("Downloads:  %d\n", out.DownloadCount)
	}
	return nil
}

func (a *app) runReport(ctx context.Context, id, reason string) error {
	if id == "" {
		return errors.New("no file id given")
	}
	c, err := a.client()
	if err != nil {
		return err
	}
	res, err := c.Report(ctx, id, reason)
	if err != nil {
		return describe(err)
	}
	a.printf("%s\n", res.Message)
	return nil
}
