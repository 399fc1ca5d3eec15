package main

import (
	"context"
	"fmt"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"

	lyricssync "fossils/internal/sync"
)

func SyncCmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:   "sync",
		Short: "Fetch the lyrics library from the remote service",
		RunFunc: func(params *boa.NoParams, cmd *cobra.Command, args []string) {
			withEnv("sync", func(e *env) error {
				return runSync(cmd.Context(), e)
			})
		},
	}.ToCobra()
}

func runSync(ctx context.Context, e *env) error {
	c := e.coordinator()
	defer c.Close()

	result := <-c.Start(ctx)
	switch result.Outcome {
	case lyricssync.OutcomeDisabled:
		_, err := fmt.Fprintf(e.out, "No remote configured (set FOSSILS_REMOTE_URL), %d local entries.\n", len(result.Entries))
		return err
	case lyricssync.OutcomeFailed, lyricssync.OutcomeCancelled:
		fmt.Fprintf(e.out, "Sync %s, keeping %d local entries.\n", result.Outcome, len(result.Entries))
		return result.Err
	default:
		_, err := fmt.Fprintf(e.out, "Sync %s, %d entries.\n", result.Outcome, len(result.Entries))
		return err
	}
}
