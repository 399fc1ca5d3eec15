package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load .env file for local development
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := boa.CmdT[boa.NoParams]{
		Use:     "fossils",
		Short:   "Play the Fossils catalog and manage its Bengali lyrics library",
		Version: appVersion(),
		SubCmds: []*cobra.Command{
			ServeCmd(),
			LyricsCmd(),
			SyncCmd(),
			PlayCmd(),
			CatalogCmd(),
		},
	}.ToCobra()

	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging sends text logs to stderr so command output stays clean
func setupLogging(level slog.Level) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func appVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown-(no build info)"
	}

	version := bi.Main.Version
	if version == "" {
		version = "unknown-(no version)"
	}
	return version
}
