package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/umangjaipuria/podcast-summary/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one full pipeline pass",
		Long: "Polls every feed that is due, admits new episodes, and walks all " +
			"in-flight episodes through the pipeline. Exits 0 when everything " +
			"succeeded, 1 when some episodes failed, 2 when the run could not proceed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, logger, err := ctx.openStore()
			if err != nil {
				return &exitError{code: workflow.OutcomeFatal.ExitCode(), message: err.Error()}
			}
			defer st.Close()

			// One pipeline run at a time. A second invocation bails out
			// instead of waiting so cron overlap stays harmless.
			lock := flock.New(filepath.Join(cfg.Paths.DataDir, "podsum.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return &exitError{code: workflow.OutcomeFatal.ExitCode(), message: fmt.Sprintf("acquire run lock: %v", err)}
			}
			if !locked {
				return &exitError{code: workflow.OutcomeFatal.ExitCode(), message: "another podsum run is already in progress"}
			}
			defer lock.Unlock()

			runCtx := cmd.Context()
			if timeout := time.Duration(cfg.Limits.RunTimeoutMinutes) * time.Minute; timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(runCtx, timeout)
				defer cancel()
			}

			manager := workflow.NewManager(cfg, st, logger)
			outcome, stats, runErr := manager.Run(runCtx)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s: %d admitted, %d processed, %d completed, %d failed\n",
				outcome, stats.Admitted, stats.Processed, stats.Completed, stats.Failed)

			if runErr != nil {
				return &exitError{code: workflow.OutcomeFatal.ExitCode(), message: runErr.Error()}
			}
			if outcome != workflow.OutcomeSuccess {
				return &exitError{code: outcome.ExitCode()}
			}
			return nil
		},
	}
}
