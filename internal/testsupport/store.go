package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/umangjaipuria/podcast-summary/internal/config"
	"github.com/umangjaipuria/podcast-summary/internal/store"
)

// MustOpenStore opens a store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return st
}

// SeedPodcast registers a podcast row for tests.
func SeedPodcast(t testing.TB, st *store.Store, slug string) *store.Podcast {
	t.Helper()

	podcast, err := st.UpsertPodcast(context.Background(), slug, "Podcast "+slug, "https://example.com/"+slug+".xml", true)
	if err != nil {
		t.Fatalf("seed podcast: %v", err)
	}
	return podcast
}

// SeedEpisode admits an episode with sensible defaults and returns its item.
func SeedEpisode(t testing.TB, st *store.Store, podcastID int64, guid string) *store.Item {
	t.Helper()

	published := time.Now().UTC().Add(-24 * time.Hour)
	item, err := st.AdmitEpisode(context.Background(), podcastID, store.Candidate{
		GUID:            guid,
		Title:           "Episode " + guid,
		Description:     "Test episode",
		AudioURL:        "https://example.com/audio/" + guid + ".mp3",
		PublishedAt:     &published,
		DurationSeconds: 1800,
	})
	if err != nil {
		t.Fatalf("seed episode: %v", err)
	}
	return item
}
