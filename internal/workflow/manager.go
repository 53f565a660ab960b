package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/umangjaipuria/podcast-summary/internal/config"
	"github.com/umangjaipuria/podcast-summary/internal/ingest"
	"github.com/umangjaipuria/podcast-summary/internal/logging"
	"github.com/umangjaipuria/podcast-summary/internal/media"
	"github.com/umangjaipuria/podcast-summary/internal/notify"
	"github.com/umangjaipuria/podcast-summary/internal/services"
	"github.com/umangjaipuria/podcast-summary/internal/stage"
	"github.com/umangjaipuria/podcast-summary/internal/stages"
	"github.com/umangjaipuria/podcast-summary/internal/store"
)

// binding ties a named stage handler to its entry and exit statuses.
type binding struct {
	name    string
	from    store.Status
	done    store.Status
	handler stage.Handler
}

// Manager coordinates feed ingestion and sequential episode processing.
type Manager struct {
	cfg       *config.Config
	store     *store.Store
	ingestor  *ingest.Ingestor
	notifier  notify.Service
	locations media.Locations
	logger    *slog.Logger
	bindings  []binding
	now       func() time.Time
}

// NewManager constructs a workflow manager with default collaborators.
func NewManager(cfg *config.Config, st *store.Store, logger *slog.Logger) *Manager {
	notifier := notify.NewService(cfg, logger)
	return NewManagerWithDependencies(cfg, st, ingest.New(st, nil, cfg, logger), notifier, logger)
}

// NewManagerWithDependencies allows injecting collaborators (used in tests).
func NewManagerWithDependencies(cfg *config.Config, st *store.Store, ingestor *ingest.Ingestor, notifier notify.Service, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:       cfg,
		store:     st,
		ingestor:  ingestor,
		notifier:  notifier,
		locations: media.NewLocations(cfg),
		logger:    logger.With(logging.String("component", "workflow")),
		now:       time.Now,
	}
	m.bindings = []binding{
		{"download", store.StatusFetched, store.StatusDownloaded, stages.NewDownloader(cfg, logger)},
		{"contextualize", store.StatusDownloaded, store.StatusContextualized, stages.NewContextualizer(cfg, logger)},
		{"transcribe", store.StatusContextualized, store.StatusTranscribed, stages.NewTranscriber(cfg, st, logger)},
		{"summarize", store.StatusTranscribed, store.StatusSummarized, stages.NewSummarizer(cfg, logger)},
		{"deliver", store.StatusSummarized, store.StatusDelivered, stages.NewDelivererWithService(cfg, st, notifier, logger)},
		{"archive", store.StatusDelivered, store.StatusCompleted, stages.NewArchiver(cfg, logger)},
	}
	return m
}

// Run executes one full pipeline pass: sync feeds, poll the ones that are
// due, then walk every in-flight episode forward from its persisted status.
// Episodes are processed one at a time and one episode's failure never stops
// the rest.
func (m *Manager) Run(ctx context.Context) (Outcome, RunStats, error) {
	var stats RunStats

	runID := uuid.NewString()
	ctx = services.WithRequestID(ctx, runID)
	logger := logging.WithContext(ctx, m.logger)

	logger.Info("run started")

	if err := m.ingestor.SyncFeeds(ctx); err != nil {
		logger.Error("feed sync failed", logging.Error(err))
		return OutcomeFatal, stats, err
	}

	admitted, err := m.ingestor.PollAll(ctx)
	if err != nil {
		logger.Error("feed poll failed", logging.Error(err))
		return OutcomeFatal, stats, err
	}
	stats.Admitted = len(admitted)

	items, err := m.store.ActiveItems(ctx)
	if err != nil {
		logger.Error("load active episodes failed", logging.Error(err))
		return OutcomeFatal, stats, err
	}

	for _, item := range items {
		if ctx.Err() != nil {
			logger.Warn("run cancelled", logging.Error(ctx.Err()))
			return OutcomeFatal, stats, ctx.Err()
		}
		stats.Processed++
		if m.processItem(ctx, item) {
			stats.Completed++
		} else {
			stats.Failed++
		}
	}

	reportOK := m.sendFailureReport(ctx)

	outcome := OutcomeSuccess
	if stats.Failed > 0 || !reportOK {
		outcome = OutcomePartial
	}
	logger.Info("run finished",
		logging.String("outcome", outcome.String()),
		logging.Int("admitted", stats.Admitted),
		logging.Int("processed", stats.Processed),
		logging.Int("completed", stats.Completed),
		logging.Int("failed", stats.Failed))
	return outcome, stats, nil
}

// processItem walks one episode from its current status to completed.
// Returns false when the episode stopped short of completed; the audio
// artifact is purged only if the record actually reached failed, so an
// incomplete delivery keeps its audio for the next run.
func (m *Manager) processItem(ctx context.Context, item *store.Item) bool {
	logger := logging.WithContext(ctx, m.logger)
	for !item.Status.IsTerminal() {
		bind, ok := m.bindingFor(item.Status)
		if !ok {
			logger.Error("no stage for status",
				logging.Int64(logging.FieldEpisodeID, item.EpisodeID),
				logging.String("status", string(item.Status)))
			return false
		}
		err := stage.Run(ctx, stage.Options{
			Logger:  m.logger,
			Store:   m.store,
			Handler: bind.handler,
			Name:    bind.name,
			From:    bind.from,
			Done:    bind.done,
			Item:    item,
		})
		if err != nil {
			m.purgeAudio(ctx, item.EpisodeID)
			return false
		}
	}
	return item.Status == store.StatusCompleted
}

// RunStage executes exactly one named stage against one episode. The episode
// must sit at the stage's entry status.
func (m *Manager) RunStage(ctx context.Context, episodeID int64, name string) error {
	bind, ok := m.bindingByName(name)
	if !ok {
		return fmt.Errorf("unknown stage %q", name)
	}
	item, err := m.store.GetItem(ctx, episodeID)
	if err != nil {
		return err
	}
	err = stage.Run(ctx, stage.Options{
		Logger:  m.logger,
		Store:   m.store,
		Handler: bind.handler,
		Name:    bind.name,
		From:    bind.from,
		Done:    bind.done,
		Item:    item,
	})
	if err != nil {
		m.purgeAudio(ctx, episodeID)
	}
	return err
}

// StageNames lists the runnable stages in pipeline order.
func (m *Manager) StageNames() []string {
	names := make([]string, 0, len(m.bindings))
	for _, bind := range m.bindings {
		names = append(names, bind.name)
	}
	return names
}

// HealthChecks reports readiness for every stage.
func (m *Manager) HealthChecks(ctx context.Context) []stage.Health {
	health := make([]stage.Health, 0, len(m.bindings))
	for _, bind := range m.bindings {
		health = append(health, bind.handler.HealthCheck(ctx))
	}
	return health
}

// sendFailureReport emails the operator one consolidated report covering
// every failed episode not yet reported, then stamps those episodes so the
// next run does not repeat them. Returns false when the send failed; the
// stamp is withheld so the failures surface again.
func (m *Manager) sendFailureReport(ctx context.Context) bool {
	logger := logging.WithContext(ctx, m.logger)

	failures, err := m.store.UnreportedFailures(ctx)
	if err != nil {
		logger.Error("load unreported failures", logging.Error(err))
		return false
	}
	if len(failures) == 0 {
		return true
	}

	entries := make([]notify.FailureEntry, 0, len(failures))
	ids := make([]int64, 0, len(failures))
	for _, item := range failures {
		entries = append(entries, notify.FailureEntry{
			PodcastName:  item.PodcastName,
			EpisodeTitle: item.Title,
			ErrorMessage: item.ErrorMessage,
			FailedAt:     item.UpdatedAt,
		})
		ids = append(ids, item.EpisodeID)
	}

	if _, err := m.notifier.SendFailureReport(ctx, entries); err != nil {
		logger.Error("failure report send failed", logging.Error(err))
		return false
	}
	stamped, err := m.store.MarkReported(ctx, ids, m.now().UTC())
	if err != nil {
		logger.Error("stamp reported failures", logging.Error(err))
		return false
	}
	logger.Info("failure report sent",
		logging.Int("failures", len(entries)),
		logging.Int64("stamped", stamped))
	return true
}

// purgeAudio deletes the audio artifact of an episode that reached failed.
// The status is re-read first so a refused or incomplete stage, which leaves
// the record non-terminal, never costs the episode its audio.
func (m *Manager) purgeAudio(ctx context.Context, episodeID int64) {
	logger := logging.WithContext(ctx, m.logger)
	item, err := m.store.GetItem(ctx, episodeID)
	if err != nil {
		logger.Warn("reload failed episode for purge", logging.Error(err))
		return
	}
	if item.Status != store.StatusFailed {
		return
	}
	if err := m.locations.Purge(item.AudioPath); err != nil {
		logger.Warn("purge audio artifact", logging.Error(err))
	}
}

func (m *Manager) bindingFor(status store.Status) (binding, bool) {
	for _, bind := range m.bindings {
		if bind.from == status {
			return bind, true
		}
	}
	return binding{}, false
}

func (m *Manager) bindingByName(name string) (binding, bool) {
	for _, bind := range m.bindings {
		if bind.name == name {
			return bind, true
		}
	}
	return binding{}, false
}
