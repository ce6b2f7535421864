package main

import (
	"context"
	"fmt"
	"os"

	"github.com/danmuck/hexrelay/internal/observability"
	"github.com/danmuck/hexrelay/internal/server"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "hexrelay",
		Usage: "decode hex frame bus messages and relay them to websocket listeners",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a TOML config file",
				Sources: cli.EnvVars("HEXRELAY_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address, overrides the config file",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "hexrelay: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg := server.DefaultServiceConfig()
	if path := cmd.String("config"); path != "" {
		loaded, err := loadServiceConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if addr := cmd.String("addr"); addr != "" {
		cfg.Addr = addr
	}

	logger := observability.InitLogger(cfg.Name, cfg.Log)
	logger.Info().Str("config", cmd.String("config")).Str("addr", cfg.Addr).Int("workers", cfg.Workers).Msg("hexrelay config loaded")
	return server.NewService(cfg, logger).Run()
}
