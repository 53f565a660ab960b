package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/umangjaipuria/podcast-summary/internal/config"
	"github.com/umangjaipuria/podcast-summary/internal/feed"
	"github.com/umangjaipuria/podcast-summary/internal/logging"
	"github.com/umangjaipuria/podcast-summary/internal/services"
	"github.com/umangjaipuria/podcast-summary/internal/store"
)

// FeedFetcher retrieves and parses one feed. Satisfied by *feed.Fetcher.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (*feed.Channel, error)
}

// Ingestor syncs configured feeds into the store, polls the ones that are
// due, and admits eligible episodes at fetched.
type Ingestor struct {
	store   *store.Store
	fetcher FeedFetcher
	cfg     *config.Config
	logger  *slog.Logger
	now     func() time.Time
}

// New builds an Ingestor. A nil fetcher gets the default HTTP fetcher.
func New(st *store.Store, fetcher FeedFetcher, cfg *config.Config, logger *slog.Logger) *Ingestor {
	if fetcher == nil {
		fetcher = feed.NewFetcher()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Ingestor{
		store:   st,
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger.With(logging.String("component", "ingest")),
		now:     time.Now,
	}
}

// SyncFeeds reconciles the podcasts table with the configured feed list.
// Feeds removed from the config are deactivated, never deleted, so their
// episode history and dedup state survive.
func (i *Ingestor) SyncFeeds(ctx context.Context) error {
	slugs := make([]string, 0, len(i.cfg.Feeds))
	for _, f := range i.cfg.Feeds {
		name := f.Name
		if name == "" {
			name = f.Slug
		}
		if _, err := i.store.UpsertPodcast(ctx, f.Slug, name, f.URL, f.Active); err != nil {
			return services.Wrap(services.ErrValidation, "ingest", "sync", "register feed "+f.Slug, err)
		}
		slugs = append(slugs, f.Slug)
	}

	deactivated, err := i.store.DeactivatePodcastsExcept(ctx, slugs)
	if err != nil {
		return services.Wrap(services.ErrValidation, "ingest", "sync", "deactivate removed feeds", err)
	}
	if deactivated > 0 {
		i.logger.InfoContext(ctx, "deactivated feeds removed from config",
			logging.Int64("count", deactivated))
	}
	return nil
}

// Due reports whether a podcast's poll throttle has elapsed. A podcast that
// has never been checked is always due.
func (i *Ingestor) Due(podcast *store.Podcast) bool {
	if podcast.LastChecked == nil {
		return true
	}
	interval := time.Duration(i.cfg.Limits.PollIntervalMinutes) * time.Minute
	return i.now().Sub(*podcast.LastChecked) >= interval
}

// PollAll fetches every active feed whose throttle has elapsed and admits
// eligible episodes. Per-feed fetch failures are logged and skipped; they
// never block the other feeds. The poll timestamp is stamped after every
// fetch attempt so a broken feed is not retried on each run.
func (i *Ingestor) PollAll(ctx context.Context) ([]*store.Item, error) {
	var admitted []*store.Item
	for _, cfgFeed := range i.cfg.ActiveFeeds() {
		podcast, err := i.store.PodcastBySlug(ctx, cfgFeed.Slug)
		if err != nil {
			return admitted, services.Wrap(services.ErrValidation, "ingest", "poll", "load feed "+cfgFeed.Slug, err)
		}
		if !i.Due(podcast) {
			i.logger.DebugContext(ctx, "feed not due", logging.String("feed", podcast.Slug))
			continue
		}

		items, err := i.pollFeed(ctx, podcast)
		if stampErr := i.store.RecordPoll(ctx, podcast.ID, i.now().UTC()); stampErr != nil {
			return admitted, services.Wrap(services.ErrValidation, "ingest", "poll", "record poll", stampErr)
		}
		if err != nil {
			i.logger.WarnContext(ctx, "feed poll failed",
				logging.String("feed", podcast.Slug),
				logging.Error(err))
			continue
		}
		admitted = append(admitted, items...)
	}
	return admitted, nil
}

// PollFeed fetches a single feed regardless of throttle state and admits
// eligible episodes. The CLI fetch command uses this for forced polls.
func (i *Ingestor) PollFeed(ctx context.Context, slug string) ([]*store.Item, error) {
	podcast, err := i.store.PodcastBySlug(ctx, slug)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "poll", "load feed "+slug, err)
	}
	items, err := i.pollFeed(ctx, podcast)
	if stampErr := i.store.RecordPoll(ctx, podcast.ID, i.now().UTC()); stampErr != nil {
		return items, services.Wrap(services.ErrValidation, "ingest", "poll", "record poll", stampErr)
	}
	return items, err
}

func (i *Ingestor) pollFeed(ctx context.Context, podcast *store.Podcast) ([]*store.Item, error) {
	channel, err := i.fetcher.Fetch(ctx, podcast.URL)
	if err != nil {
		return nil, err
	}

	// Only the newest entries are considered, in feed order. Entries deeper
	// in the backlog are never inspected, even when every newer one is
	// already known.
	candidates := channel.Episodes
	if limit := i.cfg.Limits.CandidatesPerPoll; limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	var admitted []*store.Item
	for _, episode := range candidates {
		verdict := i.evaluate(episode)
		if verdict != admit {
			i.logger.DebugContext(ctx, "episode skipped",
				logging.String("feed", podcast.Slug),
				logging.String("guid", episode.GUID),
				logging.String("reason", string(verdict)))
			continue
		}

		exists, err := i.store.HasEpisode(ctx, episode.GUID)
		if err != nil {
			return admitted, err
		}
		if exists {
			continue
		}

		item, err := i.store.AdmitEpisode(ctx, podcast.ID, store.Candidate{
			GUID:            episode.GUID,
			Title:           episode.Title,
			Description:     episode.Description,
			Link:            episode.Link,
			AudioURL:        episode.AudioURL,
			ImageURL:        episode.ImageURL,
			PublishedAt:     episode.PublishedAt,
			DurationSeconds: episode.DurationSeconds,
			EnclosureBytes:  episode.EnclosureBytes,
			RawFeedJSON:     episode.RawJSON,
		})
		if err != nil {
			if errors.Is(err, store.ErrDuplicateEpisode) {
				continue
			}
			return admitted, err
		}
		i.logger.InfoContext(ctx, "episode admitted",
			logging.String("feed", podcast.Slug),
			logging.Int64(logging.FieldEpisodeID, item.EpisodeID),
			logging.String("title", item.Title))
		admitted = append(admitted, item)
	}
	return admitted, nil
}

type verdict string

const (
	admit          verdict = "admit"
	skipNoAudio    verdict = "no audio enclosure"
	skipTooLong    verdict = "exceeds duration limit"
	skipTooLarge   verdict = "exceeds size limit"
	skipTooOld     verdict = "older than age limit"
	skipNoIdentity verdict = "missing guid"
)

// evaluate applies the admission rules to a feed episode. Unknown duration
// and size are accepted optimistically; the download stage re-checks the
// actual byte count.
func (i *Ingestor) evaluate(episode feed.Episode) verdict {
	if episode.GUID == "" {
		return skipNoIdentity
	}
	if episode.AudioURL == "" {
		return skipNoAudio
	}
	if max := int64(i.cfg.Limits.MaxDurationMinutes) * 60; episode.DurationSeconds > 0 && episode.DurationSeconds > max {
		return skipTooLong
	}
	if max := int64(i.cfg.Limits.MaxAudioMB) * 1024 * 1024; episode.EnclosureBytes > 0 && episode.EnclosureBytes > max {
		return skipTooLarge
	}
	if episode.PublishedAt != nil {
		maxAge := time.Duration(i.cfg.Limits.MaxEpisodeAgeDays) * 24 * time.Hour
		if i.now().Sub(*episode.PublishedAt) > maxAge {
			return skipTooOld
		}
	}
	return admit
}
