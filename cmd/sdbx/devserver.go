package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/sdbx/client-go/internal/devserver"
)

func (a *app) devserverCommand() *cli.Command {
	return &cli.Command{
		Name:  "devserver",
		Usage: "Run an in-memory backend for local testing",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (env SDBX_DEV_ADDR)"},
			&cli.StringFlag{Name: "public-url", Usage: "base of object URLs (env SDBX_DEV_PUBLIC_URL)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := devserver.Config{
				Addr:      a.cfg.DevAddr,
				PublicURL: a.cfg.DevPublicURL,
				RPS:       a.cfg.DevRPS,
				Burst:     a.cfg.DevBurst,
				Logger:    a.logger.Named("devserver"),
			}
			if cmd.IsSet("addr") {
				cfg.Addr = cmd.String("addr")
			}
			if cmd.IsSet("public-url") {
				cfg.PublicURL = cmd.String("public-url")
			}
			a.sugar.Infow("starting dev server", "addr", cfg.Addr, "rps", cfg.RPS, "burst", cfg.Burst)
			return devserver.New(cfg).ListenAndServe(ctx)
		},
	}
}
