package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/umangjaipuria/podcast-summary/internal/store"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List episodes and their pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, _, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			var statuses []store.Status
			if trimmed := strings.TrimSpace(statusFlag); trimmed != "" {
				for _, raw := range strings.Split(trimmed, ",") {
					status, ok := store.ParseStatus(strings.TrimSpace(raw))
					if !ok {
						return fmt.Errorf("unknown status %q", raw)
					}
					statuses = append(statuses, status)
				}
			}

			items, err := st.ListItems(cmd.Context(), statuses...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No episodes")
				return nil
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{
					strconv.FormatInt(item.EpisodeID, 10),
					item.PodcastSlug,
					truncateTitle(item.Title, 48),
					string(item.Status),
					formatPublished(item.PublishedAt),
					item.ErrorMessage,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Feed", "Title", "Status", "Published", "Error"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))

			counts, err := st.Counts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d total: %d active, %d completed, %d failed\n",
				counts.Total, counts.Active, counts.Completed, counts.Failed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&statusFlag, "status", "s", "", "Filter by status (comma separated)")
	return cmd
}

func truncateTitle(title string, limit int) string {
	runes := []rune(strings.TrimSpace(title))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "…"
}

func formatPublished(published *time.Time) string {
	if published == nil {
		return ""
	}
	return published.Format("2006-01-02")
}
