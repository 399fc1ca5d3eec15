package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"

	"fossils/internal/config"
	"fossils/internal/server"
)

type ServeParams struct {
	Port    string `short:"p" optional:"true" help:"Port to listen on, overrides PORT."`
	Backend string `short:"b" optional:"true" help:"Lyrics backend (file, mongo or hybrid), overrides LYRICS_BACKEND."`
}

func ServeCmd() *cobra.Command {
	return boa.CmdT[ServeParams]{
		Use:         "serve",
		Short:       "Run the lyrics and catalog HTTP service",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *ServeParams, cmd *cobra.Command, args []string) {
			if err := runServe(cmd.Context(), params); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "serve: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runServe(ctx context.Context, params *ServeParams) error {
	setupLogging(slog.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if params.Port != "" {
		cfg.Port = params.Port
	}
	if params.Backend != "" {
		cfg.LyricsBackend = config.LyricsBackend(params.Backend)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	srv, err := server.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer srv.Close(context.Background())

	return srv.Run(ctx)
}
