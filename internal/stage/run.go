package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/umangjaipuria/podcast-summary/internal/logging"
	"github.com/umangjaipuria/podcast-summary/internal/services"
	"github.com/umangjaipuria/podcast-summary/internal/store"
)

// Options controls stage execution and status persistence behavior.
type Options struct {
	Logger  *slog.Logger
	Store   *store.Store
	Handler Handler
	Name    string
	From    store.Status
	Done    store.Status
	Item    *store.Item
}

// Run executes one stage against one item. The item must currently sit at the
// stage's entry status; the transition to the exit status is a compare and
// swap, so a concurrent run of the same stage can advance at most one of the
// two. On failure the item is marked failed with the operator-facing message
// and the stage error is returned; errors tagged ErrIncomplete skip the
// failure mark and leave the item at the entry status.
func Run(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return fmt.Errorf("stage handler unavailable: %s", opts.Name)
	}
	if opts.Store == nil {
		return fmt.Errorf("store is required")
	}
	if opts.Item == nil {
		return fmt.Errorf("item is required")
	}
	if opts.Item.Status != opts.From {
		return services.Wrap(store.ErrInvalidTransition, "stage", opts.Name,
			fmt.Sprintf("item is %s, stage requires %s", opts.Item.Status, opts.From), nil)
	}

	stageCtx := logging.WithStage(ctx, opts.Name)
	stageCtx = services.WithEpisodeID(stageCtx, opts.Item.EpisodeID)
	stageCtx = services.WithFeedSlug(stageCtx, opts.Item.PodcastSlug)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	if aware, ok := opts.Handler.(LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("title", strings.TrimSpace(opts.Item.Title)),
	)

	if err := opts.Handler.Prepare(stageCtx, opts.Item); err != nil {
		return handleFailure(stageCtx, stageLogger, opts, err)
	}

	result, err := opts.Handler.Execute(stageCtx, opts.Item)
	if err != nil {
		return handleFailure(stageCtx, stageLogger, opts, err)
	}

	if err := opts.Store.Advance(stageCtx, opts.Item.EpisodeID, opts.From, opts.Done, result); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}
	if updated, err := opts.Store.GetItem(stageCtx, opts.Item.EpisodeID); err == nil {
		*opts.Item = *updated
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(opts.Item.Status)),
	)
	return nil
}

func handleFailure(ctx context.Context, logger *slog.Logger, opts Options, stageErr error) error {
	message := services.Message(stageErr)

	if errors.Is(stageErr, ErrIncomplete) {
		logger.Warn(
			"stage incomplete",
			logging.String(logging.FieldEventType, "stage_incomplete"),
			logging.String("error_message", message),
		)
		return stageErr
	}

	logger.Error(
		"stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("error_message", message),
		logging.Error(stageErr),
	)

	changed, err := opts.Store.MarkFailed(ctx, opts.Item.EpisodeID, message)
	if err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	} else if changed {
		opts.Item.Status = store.StatusFailed
		opts.Item.ErrorMessage = message
	}

	return stageErr
}
