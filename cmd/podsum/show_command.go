package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <episode-id>",
		Short: "Show one episode in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			episodeID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid episode id %q", args[0])
			}

			_, st, _, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			item, err := st.GetItem(cmd.Context(), episodeID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Episode %d: %s\n", item.EpisodeID, item.Title)
			fmt.Fprintf(out, "  Feed:        %s (%s)\n", item.PodcastName, item.PodcastSlug)
			fmt.Fprintf(out, "  GUID:        %s\n", item.GUID)
			fmt.Fprintf(out, "  Status:      %s\n", item.Status)
			if item.PublishedAt != nil {
				fmt.Fprintf(out, "  Published:   %s\n", item.PublishedAt.Format(time.RFC1123))
			}
			if item.DurationSeconds > 0 {
				fmt.Fprintf(out, "  Duration:    %s\n", (time.Duration(item.DurationSeconds) * time.Second).String())
			}
			if item.AudioPath != "" {
				fmt.Fprintf(out, "  Audio:       %s\n", item.AudioPath)
			}
			if item.TranscriptPath != "" {
				fmt.Fprintf(out, "  Transcript:  %s\n", item.TranscriptPath)
			}
			if item.SummaryPath != "" {
				fmt.Fprintf(out, "  Summary:     %s\n", item.SummaryPath)
			}
			if item.ErrorMessage != "" {
				fmt.Fprintf(out, "  Error:       %s\n", item.ErrorMessage)
			}
			if item.CompletedAt != nil {
				fmt.Fprintf(out, "  Completed:   %s\n", item.CompletedAt.Format(time.RFC1123))
			}

			deliveries, err := st.Deliveries(cmd.Context(), episodeID)
			if err != nil {
				return err
			}
			if len(deliveries) > 0 {
				fmt.Fprintln(out, "  Deliveries:")
				for _, delivery := range deliveries {
					fmt.Fprintf(out, "    %s at %s (%s)\n",
						delivery.Recipient,
						delivery.SentAt.Format(time.RFC1123),
						delivery.EmailID)
				}
			}
			return nil
		},
	}
}
