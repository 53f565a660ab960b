package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/umangjaipuria/podcast-summary/internal/config"
	"github.com/umangjaipuria/podcast-summary/internal/feed"
	"github.com/umangjaipuria/podcast-summary/internal/store"
	"github.com/umangjaipuria/podcast-summary/internal/testsupport"
)

type stubFetcher struct {
	channels map[string]*feed.Channel
	err      error
	calls    int
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (*feed.Channel, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	channel, ok := f.channels[url]
	if !ok {
		return &feed.Channel{}, nil
	}
	return channel, nil
}

func timePtr(t time.Time) *time.Time { return &t }

func episodeAt(guid string, age time.Duration) feed.Episode {
	return feed.Episode{
		GUID:            guid,
		Title:           "Episode " + guid,
		AudioURL:        "https://example.com/audio/" + guid + ".mp3",
		PublishedAt:     timePtr(time.Now().Add(-age)),
		DurationSeconds: 1800,
	}
}

func newIngestor(t *testing.T, fetcher FeedFetcher, opts ...testsupport.ConfigOption) (*Ingestor, *store.Store, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)
	ing := New(st, fetcher, cfg, nil)
	return ing, st, cfg
}

func TestSyncFeedsRegistersAndDeactivates(t *testing.T) {
	ing, st, cfg := newIngestor(t, &stubFetcher{})
	ctx := context.Background()

	if err := ing.SyncFeeds(ctx); err != nil {
		t.Fatalf("SyncFeeds: %v", err)
	}
	podcast, err := st.PodcastBySlug(ctx, "test-feed")
	if err != nil {
		t.Fatalf("PodcastBySlug: %v", err)
	}
	if !podcast.Active {
		t.Error("podcast should be active")
	}

	// Removing the feed from config deactivates it but keeps the row.
	cfg.Feeds = nil
	if err := ing.SyncFeeds(ctx); err != nil {
		t.Fatalf("SyncFeeds after removal: %v", err)
	}
	podcast, err = st.PodcastBySlug(ctx, "test-feed")
	if err != nil {
		t.Fatalf("PodcastBySlug after removal: %v", err)
	}
	if podcast.Active {
		t.Error("removed feed should be deactivated")
	}
}

func TestPollAllAdmitsEligibleEpisodes(t *testing.T) {
	fetcher := &stubFetcher{channels: map[string]*feed.Channel{
		"https://example.com/feed.xml": {
			Title: "Test Feed",
			Episodes: []feed.Episode{
				episodeAt("ep-new", time.Hour),
				{GUID: "ep-long", Title: "Too Long", AudioURL: "https://example.com/a.mp3",
					PublishedAt: timePtr(time.Now().Add(-time.Hour)), DurationSeconds: 5 * 60 * 60},
				{GUID: "ep-big", Title: "Too Big", AudioURL: "https://example.com/b.mp3",
					PublishedAt: timePtr(time.Now().Add(-time.Hour)), EnclosureBytes: 600 * 1024 * 1024},
				episodeAt("ep-old", 30*24*time.Hour),
				{GUID: "ep-noaudio", Title: "No Audio", PublishedAt: timePtr(time.Now().Add(-time.Hour))},
				episodeAt("ep-second", 2*time.Hour),
			},
		},
	}}
	ing, st, _ := newIngestor(t, fetcher)
	ctx := context.Background()
	if err := ing.SyncFeeds(ctx); err != nil {
		t.Fatalf("SyncFeeds: %v", err)
	}

	admitted, err := ing.PollAll(ctx)
	if err != nil {
		t.Fatalf("PollAll: %v", err)
	}
	if len(admitted) != 2 {
		t.Fatalf("admitted %d episodes, want 2", len(admitted))
	}
	for _, item := range admitted {
		if item.Status != store.StatusFetched {
			t.Errorf("item %s status = %s, want fetched", item.GUID, item.Status)
		}
	}

	// Skipped episodes leave no rows behind.
	for _, guid := range []string{"ep-long", "ep-big", "ep-old", "ep-noaudio"} {
		exists, err := st.HasEpisode(ctx, guid)
		if err != nil {
			t.Fatalf("HasEpisode(%s): %v", guid, err)
		}
		if exists {
			t.Errorf("skipped episode %s should not have a row", guid)
		}
	}

	// A second poll of the same feed admits nothing new.
	ing.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	again, err := ing.PollAll(ctx)
	if err != nil {
		t.Fatalf("second PollAll: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second poll admitted %d episodes, want 0", len(again))
	}
}

func TestPollAllRespectsCandidateCap(t *testing.T) {
	episodes := make([]feed.Episode, 0, 8)
	for i := 0; i < 8; i++ {
		episodes = append(episodes, episodeAt(string(rune('a'+i)), time.Duration(i+1)*time.Hour))
	}
	fetcher := &stubFetcher{channels: map[string]*feed.Channel{
		"https://example.com/feed.xml": {Episodes: episodes},
	}}
	ing, _, cfg := newIngestor(t, fetcher)
	cfg.Limits.CandidatesPerPoll = 3
	ctx := context.Background()
	if err := ing.SyncFeeds(ctx); err != nil {
		t.Fatalf("SyncFeeds: %v", err)
	}

	admitted, err := ing.PollAll(ctx)
	if err != nil {
		t.Fatalf("PollAll: %v", err)
	}
	if len(admitted) != 3 {
		t.Errorf("admitted %d episodes, want 3", len(admitted))
	}
}

func TestPollFeedNeverScansPastCandidateWindow(t *testing.T) {
	episodes := make([]feed.Episode, 0, 8)
	for i := 0; i < 8; i++ {
		episodes = append(episodes, episodeAt(string(rune('a'+i)), time.Duration(i+1)*time.Hour))
	}
	fetcher := &stubFetcher{channels: map[string]*feed.Channel{
		"https://example.com/feed.xml": {Episodes: episodes},
	}}
	ing, st, cfg := newIngestor(t, fetcher)
	cfg.Limits.CandidatesPerPoll = 3
	ctx := context.Background()
	if err := ing.SyncFeeds(ctx); err != nil {
		t.Fatalf("SyncFeeds: %v", err)
	}

	if _, err := ing.PollFeed(ctx, cfg.Feeds[0].Slug); err != nil {
		t.Fatalf("first PollFeed: %v", err)
	}

	// The newest three entries are now known. The next poll inspects the
	// same window and must not admit anything from deeper in the backlog.
	admitted, err := ing.PollFeed(ctx, cfg.Feeds[0].Slug)
	if err != nil {
		t.Fatalf("second PollFeed: %v", err)
	}
	if len(admitted) != 0 {
		t.Errorf("admitted %d episodes from the backlog, want 0", len(admitted))
	}
	for _, guid := range []string{"d", "e", "f", "g", "h"} {
		exists, err := st.HasEpisode(ctx, guid)
		if err != nil {
			t.Fatalf("HasEpisode(%s): %v", guid, err)
		}
		if exists {
			t.Errorf("episode %s admitted from outside the candidate window", guid)
		}
	}
}

func TestPollAllThrottlesRecentlyCheckedFeeds(t *testing.T) {
	fetcher := &stubFetcher{channels: map[string]*feed.Channel{
		"https://example.com/feed.xml": {Episodes: []feed.Episode{episodeAt("ep-1", time.Hour)}},
	}}
	ing, _, _ := newIngestor(t, fetcher)
	ctx := context.Background()
	if err := ing.SyncFeeds(ctx); err != nil {
		t.Fatalf("SyncFeeds: %v", err)
	}

	if _, err := ing.PollAll(ctx); err != nil {
		t.Fatalf("first PollAll: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("fetch calls = %d, want 1", fetcher.calls)
	}

	// Within the interval the feed is not fetched again.
	if _, err := ing.PollAll(ctx); err != nil {
		t.Fatalf("second PollAll: %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1 (throttled)", fetcher.calls)
	}

	// Past the interval it is.
	ing.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := ing.PollAll(ctx); err != nil {
		t.Fatalf("third PollAll: %v", err)
	}
	if fetcher.calls != 2 {
		t.Errorf("fetch calls = %d, want 2", fetcher.calls)
	}
}

func TestPollAllStampsThrottleOnFetchFailure(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("boom")}
	ing, st, _ := newIngestor(t, fetcher)
	ctx := context.Background()
	if err := ing.SyncFeeds(ctx); err != nil {
		t.Fatalf("SyncFeeds: %v", err)
	}

	admitted, err := ing.PollAll(ctx)
	if err != nil {
		t.Fatalf("PollAll should swallow per-feed fetch errors, got %v", err)
	}
	if len(admitted) != 0 {
		t.Errorf("admitted %d episodes from failed fetch", len(admitted))
	}

	podcast, err := st.PodcastBySlug(ctx, "test-feed")
	if err != nil {
		t.Fatalf("PodcastBySlug: %v", err)
	}
	if podcast.LastChecked == nil {
		t.Error("failed fetch should still stamp last_checked")
	}
}

func TestPollFeedIgnoresThrottle(t *testing.T) {
	fetcher := &stubFetcher{channels: map[string]*feed.Channel{
		"https://example.com/feed.xml": {Episodes: []feed.Episode{episodeAt("ep-1", time.Hour)}},
	}}
	ing, _, _ := newIngestor(t, fetcher)
	ctx := context.Background()
	if err := ing.SyncFeeds(ctx); err != nil {
		t.Fatalf("SyncFeeds: %v", err)
	}

	if _, err := ing.PollFeed(ctx, "test-feed"); err != nil {
		t.Fatalf("first PollFeed: %v", err)
	}
	if _, err := ing.PollFeed(ctx, "test-feed"); err != nil {
		t.Fatalf("second PollFeed: %v", err)
	}
	if fetcher.calls != 2 {
		t.Errorf("fetch calls = %d, want 2 (forced polls bypass throttle)", fetcher.calls)
	}
}
