package stages

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/umangjaipuria/podcast-summary/internal/notify"
	"github.com/umangjaipuria/podcast-summary/internal/services"
	"github.com/umangjaipuria/podcast-summary/internal/stage"
	"github.com/umangjaipuria/podcast-summary/internal/store"
	"github.com/umangjaipuria/podcast-summary/internal/testsupport"
)

type fakeNotifier struct {
	sent    []string
	failFor map[string]error
	nextID  int
}

func (f *fakeNotifier) SendSummary(_ context.Context, email notify.SummaryEmail) (string, error) {
	if err, ok := f.failFor[email.Recipient]; ok {
		return "", err
	}
	f.sent = append(f.sent, email.Recipient)
	f.nextID++
	return fmt.Sprintf("email-%d", f.nextID), nil
}

func (f *fakeNotifier) SendFailureReport(context.Context, []notify.FailureEntry) (string, error) {
	return "", nil
}

func seedSummarized(t *testing.T, recipients ...string) (*Deliverer, *fakeNotifier, *store.Store, *store.Item) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithRecipients(recipients...))
	st := testsupport.MustOpenStore(t, cfg)
	podcast := testsupport.SeedPodcast(t, st, "test-feed")
	item := testsupport.SeedEpisode(t, st, podcast.ID, "ep-1")
	item.Summary = "## Summary\n\nGood episode."

	notifier := &fakeNotifier{failFor: map[string]error{}}
	d := NewDelivererWithService(cfg, st, notifier, nil)
	return d, notifier, st, item
}

func TestDelivererSendsToAllRecipients(t *testing.T) {
	d, notifier, st, item := seedSummarized(t, "one@example.com", "two@example.com")

	if err := d.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, err := d.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(notifier.sent) != 2 {
		t.Fatalf("sent to %d recipients, want 2", len(notifier.sent))
	}

	deliveries, err := st.Deliveries(context.Background(), item.EpisodeID)
	if err != nil {
		t.Fatalf("Deliveries: %v", err)
	}
	if len(deliveries) != 2 {
		t.Errorf("ledger has %d rows, want 2", len(deliveries))
	}
}

func TestDelivererResumesPartialDelivery(t *testing.T) {
	d, notifier, st, item := seedSummarized(t, "one@example.com", "two@example.com", "three@example.com")
	notifier.failFor["two@example.com"] = services.Wrap(services.ErrExternalService, "resend", "send", "mailbox full", nil)

	// A recipient failure does not stop the pass; the other two are sent
	// and recorded, and the stage reports incomplete rather than failed.
	_, err := d.Execute(context.Background(), item)
	if !errors.Is(err, stage.ErrIncomplete) {
		t.Fatalf("expected incomplete delivery, got %v", err)
	}
	delivered, err := st.DeliveredRecipients(context.Background(), item.EpisodeID)
	if err != nil {
		t.Fatalf("DeliveredRecipients: %v", err)
	}
	for _, recipient := range []string{"one@example.com", "three@example.com"} {
		if _, ok := delivered[recipient]; !ok {
			t.Errorf("recipient %s should be recorded despite the failure", recipient)
		}
	}
	if len(delivered) != 2 {
		t.Errorf("ledger has %d rows after partial failure, want 2", len(delivered))
	}

	// Retry sends only to the recipient still missing from the ledger.
	delete(notifier.failFor, "two@example.com")
	notifier.sent = nil
	if _, err := d.Execute(context.Background(), item); err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != "two@example.com" {
		t.Errorf("resume sent to %v, want exactly the missing recipient", notifier.sent)
	}

	deliveries, err := st.Deliveries(context.Background(), item.EpisodeID)
	if err != nil {
		t.Fatalf("Deliveries: %v", err)
	}
	if len(deliveries) != 3 {
		t.Errorf("ledger ends with %d rows, want 3", len(deliveries))
	}
}

func TestDelivererPrepareValidations(t *testing.T) {
	d, _, _, item := seedSummarized(t, "one@example.com")

	noSummary := *item
	noSummary.Summary = ""
	if err := d.Prepare(context.Background(), &noSummary); !errors.Is(err, services.ErrValidation) {
		t.Errorf("missing summary should fail validation, got %v", err)
	}

	unknownFeed := *item
	unknownFeed.PodcastSlug = "gone-feed"
	if err := d.Prepare(context.Background(), &unknownFeed); !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("unknown feed should fail configuration, got %v", err)
	}
}
