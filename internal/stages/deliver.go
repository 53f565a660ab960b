package stages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/umangjaipuria/podcast-summary/internal/config"
	"github.com/umangjaipuria/podcast-summary/internal/logging"
	"github.com/umangjaipuria/podcast-summary/internal/notify"
	"github.com/umangjaipuria/podcast-summary/internal/services"
	"github.com/umangjaipuria/podcast-summary/internal/stage"
	"github.com/umangjaipuria/podcast-summary/internal/store"
)

// Deliverer sends the summary email to every configured recipient, tracking
// progress in the per-recipient delivery ledger so a partially delivered
// episode resumes where it stopped.
type Deliverer struct {
	cfg    *config.Config
	store  *store.Store
	notify notify.Service
	logger *slog.Logger
}

// NewDeliverer constructs the deliver stage handler.
func NewDeliverer(cfg *config.Config, st *store.Store, logger *slog.Logger) *Deliverer {
	return NewDelivererWithService(cfg, st, notify.NewService(cfg, logger), logger)
}

// NewDelivererWithService allows injecting the email service (used in tests).
func NewDelivererWithService(cfg *config.Config, st *store.Store, svc notify.Service, logger *slog.Logger) *Deliverer {
	return &Deliverer{
		cfg:    cfg,
		store:  st,
		notify: svc,
		logger: componentLogger(logger, "deliver"),
	}
}

// SetLogger installs a stage-scoped logger.
func (d *Deliverer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		d.logger = logger
	}
}

func (d *Deliverer) Prepare(_ context.Context, item *store.Item) error {
	if strings.TrimSpace(item.Summary) == "" {
		return services.Wrap(services.ErrValidation, "deliver", "validate", "no summary recorded for episode", nil)
	}
	feedCfg, ok := d.cfg.FeedBySlug(item.PodcastSlug)
	if !ok {
		return services.Wrap(services.ErrConfiguration, "deliver", "validate",
			"feed "+item.PodcastSlug+" no longer configured", nil)
	}
	if len(feedCfg.Recipients) == 0 {
		return services.Wrap(services.ErrConfiguration, "deliver", "validate",
			"feed "+item.PodcastSlug+" has no recipients", nil)
	}
	return nil
}

// Execute sends to each recipient missing from the ledger. Every successful
// send is recorded before the next one starts, so completed sends stay
// durable no matter where the stage stops. A send failure does not abort the
// pass; remaining recipients are still attempted, and the stage reports
// stage.ErrIncomplete so the record stays at its entry status and the next
// invocation retries exactly the recipients still missing from the ledger.
func (d *Deliverer) Execute(ctx context.Context, item *store.Item) (store.StageResult, error) {
	var empty store.StageResult

	feedCfg, _ := d.cfg.FeedBySlug(item.PodcastSlug)
	delivered, err := d.store.DeliveredRecipients(ctx, item.EpisodeID)
	if err != nil {
		return empty, err
	}

	var missing int
	var firstErr error
	for _, recipient := range feedCfg.Recipients {
		if _, done := delivered[recipient]; done {
			d.logger.DebugContext(ctx, "recipient already delivered",
				logging.String("recipient", recipient))
			continue
		}

		emailID, err := d.notify.SendSummary(ctx, notify.SummaryEmail{
			PodcastName:     item.PodcastName,
			EpisodeTitle:    item.Title,
			Published:       derefTime(item.PublishedAt),
			Recipient:       recipient,
			SummaryMarkdown: item.Summary,
		})
		if err != nil {
			d.logger.WarnContext(ctx, "summary send failed",
				logging.String("recipient", recipient),
				logging.Error(err))
			missing++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if err := d.store.RecordDelivery(ctx, item.EpisodeID, recipient, emailID); err != nil {
			if errors.Is(err, store.ErrDuplicateDelivery) {
				continue
			}
			return empty, err
		}
	}

	if missing > 0 {
		return empty, fmt.Errorf("%w: deliver: %d of %d recipients still undelivered: %w",
			stage.ErrIncomplete, missing, len(feedCfg.Recipients), firstErr)
	}
	return empty, nil
}

func (d *Deliverer) HealthCheck(_ context.Context) stage.Health {
	return stage.Healthy("deliver")
}
