package stage

import (
	"context"
	"errors"
	"log/slog"

	"github.com/umangjaipuria/podcast-summary/internal/store"
)

// ErrIncomplete signals that a stage made durable partial progress but its
// exit condition is not yet met. The executor leaves the item at the stage's
// entry status instead of marking it failed, so a later invocation re-runs
// only the remaining work.
var ErrIncomplete = errors.New("stage incomplete")

// Handler describes the contract the workflow manager needs from each stage.
// Execute returns the artifacts to persist alongside the status transition;
// the executor applies both atomically.
type Handler interface {
	Prepare(context.Context, *store.Item) error
	Execute(context.Context, *store.Item) (store.StageResult, error)
	HealthCheck(context.Context) Health
}

// LoggerAware lets the executor hand a stage-scoped logger to handlers that
// log during Execute.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
