package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/umangjaipuria/podcast-summary/internal/logging"
	"github.com/umangjaipuria/podcast-summary/internal/retention"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove artifacts past their retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			result, err := retention.New(cfg, logger).Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d archived audio files, %d text files, %d log files\n",
				result.ArchivedAudio, result.TextFiles, result.LogFiles)
			return nil
		},
	}
}
