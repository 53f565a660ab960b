package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/umangjaipuria/podcast-summary/internal/ingest"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [feed-slug]",
		Short: "Poll feeds and admit new episodes",
		Long: "Without arguments, polls every active feed whose throttle interval " +
			"has elapsed. With a feed slug, polls that feed immediately.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, logger, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ingestor := ingest.New(st, nil, cfg, logger)
			if err := ingestor.SyncFeeds(cmd.Context()); err != nil {
				return err
			}

			var admitted int
			if len(args) == 1 {
				items, err := ingestor.PollFeed(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				admitted = len(items)
			} else {
				items, err := ingestor.PollAll(cmd.Context())
				if err != nil {
					return err
				}
				admitted = len(items)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Admitted %d new episodes\n", admitted)
			return nil
		},
	}
}

// stageSpec names a per-stage command and its pipeline stage.
type stageSpec struct {
	use   string
	stage string
	short string
}

func newStageCommands(ctx *commandContext) []*cobra.Command {
	specs := []stageSpec{
		{"download <episode-id>", "download", "Download episode audio into incoming"},
		{"contextualize <episode-id>", "contextualize", "Generate context from episode metadata"},
		{"transcribe <episode-id>", "transcribe", "Transcribe episode audio"},
		{"summarize <episode-id>", "summarize", "Summarize the episode transcript"},
		{"email <episode-id>", "deliver", "Email the summary to feed recipients"},
		{"complete <episode-id>", "archive", "Archive audio and close out the episode"},
	}

	commands := make([]*cobra.Command, 0, len(specs))
	for _, spec := range specs {
		commands = append(commands, newStageCommand(ctx, spec))
	}
	return commands
}

func newStageCommand(ctx *commandContext, spec stageSpec) *cobra.Command {
	return &cobra.Command{
		Use:   spec.use,
		Short: spec.short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			episodeID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid episode id %q", args[0])
			}

			manager, st, _, err := ctx.newManager()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := manager.RunStage(cmd.Context(), episodeID, spec.stage); err != nil {
				return err
			}

			item, err := st.GetItem(cmd.Context(), episodeID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Episode %d is now %s\n", episodeID, item.Status)
			return nil
		},
	}
}
