package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/umangjaipuria/podcast-summary/internal/store"
	"github.com/umangjaipuria/podcast-summary/internal/testsupport"
)

func TestDeliveryLedgerAppendOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	podcast := testsupport.SeedPodcast(t, st, "daily")
	item := testsupport.SeedEpisode(t, st, podcast.ID, "guid-1")

	if err := st.RecordDelivery(ctx, item.EpisodeID, "a@example.com", "email-1"); err != nil {
		t.Fatalf("record delivery: %v", err)
	}
	err := st.RecordDelivery(ctx, item.EpisodeID, "a@example.com", "email-2")
	if !errors.Is(err, store.ErrDuplicateDelivery) {
		t.Fatalf("expected ErrDuplicateDelivery, got %v", err)
	}

	deliveries, err := st.Deliveries(ctx, item.EpisodeID)
	if err != nil {
		t.Fatalf("list deliveries: %v", err)
	}
	if len(deliveries) != 1 {
		t.Fatalf("ledger has %d entries, want 1", len(deliveries))
	}
	if deliveries[0].EmailID != "email-1" {
		t.Fatalf("original entry overwritten: %+v", deliveries[0])
	}
}

func TestDeliveredRecipients(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	podcast := testsupport.SeedPodcast(t, st, "daily")
	item := testsupport.SeedEpisode(t, st, podcast.ID, "guid-1")

	for _, recipient := range []string{"a@example.com", "b@example.com"} {
		if err := st.RecordDelivery(ctx, item.EpisodeID, recipient, ""); err != nil {
			t.Fatalf("record %s: %v", recipient, err)
		}
	}

	recipients, err := st.DeliveredRecipients(ctx, item.EpisodeID)
	if err != nil {
		t.Fatalf("delivered recipients: %v", err)
	}
	if len(recipients) != 2 {
		t.Fatalf("recipients = %v", recipients)
	}
	if _, ok := recipients["a@example.com"]; !ok {
		t.Fatal("missing a@example.com")
	}
}

func TestUnreportedFailuresAndMarkReported(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	podcast := testsupport.SeedPodcast(t, st, "daily")

	a := testsupport.SeedEpisode(t, st, podcast.ID, "guid-a")
	b := testsupport.SeedEpisode(t, st, podcast.ID, "guid-b")
	testsupport.SeedEpisode(t, st, podcast.ID, "guid-c")

	if _, err := st.MarkFailed(ctx, a.EpisodeID, "failure a"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if _, err := st.MarkFailed(ctx, b.EpisodeID, "failure b"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	failures, err := st.UnreportedFailures(ctx)
	if err != nil {
		t.Fatalf("unreported failures: %v", err)
	}
	if len(failures) != 2 {
		t.Fatalf("failures = %d, want 2", len(failures))
	}

	ids := []int64{failures[0].EpisodeID, failures[1].EpisodeID}
	stamped, err := st.MarkReported(ctx, ids, time.Now())
	if err != nil {
		t.Fatalf("mark reported: %v", err)
	}
	if stamped != 2 {
		t.Fatalf("stamped %d rows, want 2", stamped)
	}

	// Reported failures do not show up again.
	failures, err = st.UnreportedFailures(ctx)
	if err != nil {
		t.Fatalf("unreported failures: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("failures after report = %d, want 0", len(failures))
	}

	// Stamping the same ids again is a no-op.
	stamped, err = st.MarkReported(ctx, ids, time.Now())
	if err != nil {
		t.Fatalf("second mark reported: %v", err)
	}
	if stamped != 0 {
		t.Fatalf("restamped %d rows, want 0", stamped)
	}
}
