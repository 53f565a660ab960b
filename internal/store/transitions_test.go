package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/umangjaipuria/podcast-summary/internal/store"
	"github.com/umangjaipuria/podcast-summary/internal/testsupport"
)

func TestAdvanceFollowsForwardPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	podcast := testsupport.SeedPodcast(t, st, "daily")
	item := testsupport.SeedEpisode(t, st, podcast.ID, "guid-1")

	steps := []struct {
		from, to store.Status
		result   store.StageResult
	}{
		{store.StatusFetched, store.StatusDownloaded, store.StageResult{AudioPath: "/tmp/a.mp3"}},
		{store.StatusDownloaded, store.StatusContextualized, store.StageResult{Context: "hosts and topics"}},
		{store.StatusContextualized, store.StatusTranscribed, store.StageResult{TranscriptPath: "/tmp/a.txt"}},
		{store.StatusTranscribed, store.StatusSummarized, store.StageResult{Summary: "summary text", SummaryPath: "/tmp/a.md"}},
		{store.StatusSummarized, store.StatusDelivered, store.StageResult{}},
		{store.StatusDelivered, store.StatusCompleted, store.StageResult{}},
	}
	for _, step := range steps {
		if err := st.Advance(ctx, item.EpisodeID, step.from, step.to, step.result); err != nil {
			t.Fatalf("advance %s -> %s: %v", step.from, step.to, err)
		}
	}

	final, err := st.GetItem(ctx, item.EpisodeID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if final.Status != store.StatusCompleted {
		t.Fatalf("status = %s", final.Status)
	}
	if final.AudioPath != "/tmp/a.mp3" || final.TranscriptPath != "/tmp/a.txt" || final.SummaryPath != "/tmp/a.md" {
		t.Fatalf("artifacts not retained: %+v", final)
	}
	if final.Context != "hosts and topics" || final.Summary != "summary text" {
		t.Fatalf("stage text not retained: context=%q summary=%q", final.Context, final.Summary)
	}
	if final.CompletedAt == nil {
		t.Fatal("completed_at not stamped")
	}
}

func TestAdvanceRejectsWrongPrecondition(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	podcast := testsupport.SeedPodcast(t, st, "daily")
	item := testsupport.SeedEpisode(t, st, podcast.ID, "guid-1")

	err := st.Advance(ctx, item.EpisodeID, store.StatusDownloaded, store.StatusContextualized, store.StageResult{})
	if !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	after, err := st.GetItem(ctx, item.EpisodeID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if after.Status != store.StatusFetched {
		t.Fatalf("status changed to %s on rejected transition", after.Status)
	}
}

func TestAdvanceRejectsSkippedStage(t *testing.T) {
	if store.CanTransition(store.StatusFetched, store.StatusTranscribed) {
		t.Fatal("fetched -> transcribed should be illegal")
	}
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	podcast := testsupport.SeedPodcast(t, st, "daily")
	item := testsupport.SeedEpisode(t, st, podcast.ID, "guid-1")

	err := st.Advance(context.Background(), item.EpisodeID, store.StatusFetched, store.StatusTranscribed, store.StageResult{})
	if !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestMarkFailedIsAbsorbing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	podcast := testsupport.SeedPodcast(t, st, "daily")
	item := testsupport.SeedEpisode(t, st, podcast.ID, "guid-1")

	changed, err := st.MarkFailed(ctx, item.EpisodeID, "download: connection reset")
	if err != nil || !changed {
		t.Fatalf("mark failed: %v, %v", changed, err)
	}

	failed, err := st.GetItem(ctx, item.EpisodeID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if failed.Status != store.StatusFailed {
		t.Fatalf("status = %s", failed.Status)
	}
	if failed.ErrorMessage != "download: connection reset" {
		t.Fatalf("error message = %q", failed.ErrorMessage)
	}

	// Failed absorbs every further mutation attempt.
	if err := st.Advance(ctx, item.EpisodeID, store.StatusFailed, store.StatusDownloaded, store.StageResult{}); !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("advance out of failed succeeded: %v", err)
	}
	changed, err = st.MarkFailed(ctx, item.EpisodeID, "second failure")
	if err != nil {
		t.Fatalf("second mark failed: %v", err)
	}
	if changed {
		t.Fatal("mark failed mutated a terminal record")
	}
	after, _ := st.GetItem(ctx, item.EpisodeID)
	if after.ErrorMessage != "download: connection reset" {
		t.Fatalf("original error overwritten: %q", after.ErrorMessage)
	}
}

func TestMarkFailedIgnoresCompleted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	podcast := testsupport.SeedPodcast(t, st, "daily")
	item := testsupport.SeedEpisode(t, st, podcast.ID, "guid-1")

	for from, ok := item.Status, true; ok; {
		var to store.Status
		to, ok = store.NextStatus(from)
		if !ok {
			break
		}
		if err := st.Advance(ctx, item.EpisodeID, from, to, store.StageResult{}); err != nil {
			t.Fatalf("advance %s: %v", from, err)
		}
		from = to
	}

	changed, err := st.MarkFailed(ctx, item.EpisodeID, "late failure")
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if changed {
		t.Fatal("completed record was failed")
	}
}

func TestCanTransitionTable(t *testing.T) {
	legal := [][2]store.Status{
		{store.StatusFetched, store.StatusDownloaded},
		{store.StatusSummarized, store.StatusDelivered},
		{store.StatusDelivered, store.StatusCompleted},
		{store.StatusFetched, store.StatusFailed},
		{store.StatusDelivered, store.StatusFailed},
	}
	for _, pair := range legal {
		if !store.CanTransition(pair[0], pair[1]) {
			t.Errorf("CanTransition(%s, %s) = false, want true", pair[0], pair[1])
		}
	}
	illegal := [][2]store.Status{
		{store.StatusDownloaded, store.StatusFetched},
		{store.StatusCompleted, store.StatusFailed},
		{store.StatusFailed, store.StatusFetched},
		{store.StatusFailed, store.StatusFailed},
		{store.StatusFetched, store.StatusSummarized},
	}
	for _, pair := range illegal {
		if store.CanTransition(pair[0], pair[1]) {
			t.Errorf("CanTransition(%s, %s) = true, want false", pair[0], pair[1])
		}
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := store.ParseStatus(" Fetched "); !ok || status != store.StatusFetched {
		t.Fatalf("ParseStatus = %s, %v", status, ok)
	}
	if _, ok := store.ParseStatus("pending"); ok {
		t.Fatal("unknown status accepted")
	}
}
