package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check stage readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, st, _, err := ctx.newManager()
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			allReady := true
			for _, health := range manager.HealthChecks(cmd.Context()) {
				state := "ok"
				if !health.Ready {
					state = "not ready"
					allReady = false
				}
				if health.Detail != "" {
					fmt.Fprintf(out, "  %-15s %s (%s)\n", health.Name+":", state, health.Detail)
				} else {
					fmt.Fprintf(out, "  %-15s %s\n", health.Name+":", state)
				}
			}
			if !allReady {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}
