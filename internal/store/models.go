package store

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an episode's processing record.
type Status string

const (
	StatusFetched        Status = "fetched"
	StatusDownloaded     Status = "downloaded"
	StatusContextualized Status = "contextualized"
	StatusTranscribed    Status = "transcribed"
	StatusSummarized     Status = "summarized"
	StatusDelivered      Status = "delivered"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
)

var allStatuses = []Status{
	StatusFetched,
	StatusDownloaded,
	StatusContextualized,
	StatusTranscribed,
	StatusSummarized,
	StatusDelivered,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

type statusTransition struct {
	from Status
	to   Status
}

// forwardTransitions enumerates every legal stage advance. Failure is legal
// from any non-terminal status; the terminal statuses accept nothing.
var forwardTransitions = []statusTransition{
	{from: StatusFetched, to: StatusDownloaded},
	{from: StatusDownloaded, to: StatusContextualized},
	{from: StatusContextualized, to: StatusTranscribed},
	{from: StatusTranscribed, to: StatusSummarized},
	{from: StatusSummarized, to: StatusDelivered},
	{from: StatusDelivered, to: StatusCompleted},
}

var transitionSet = func() map[statusTransition]struct{} {
	set := make(map[statusTransition]struct{}, len(forwardTransitions)+len(allStatuses))
	for _, t := range forwardTransitions {
		set[t] = struct{}{}
	}
	for _, status := range allStatuses {
		if status == StatusCompleted || status == StatusFailed {
			continue
		}
		set[statusTransition{from: status, to: StatusFailed}] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	_, ok := transitionSet[statusTransition{from: from, to: to}]
	return ok
}

// IsTerminal reports whether a status accepts no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// NextStatus returns the stage result that follows a status on the forward path.
func NextStatus(from Status) (Status, bool) {
	for _, t := range forwardTransitions {
		if t.from == from {
			return t.to, true
		}
	}
	return "", false
}

// Podcast represents a registered feed persisted in SQLite.
type Podcast struct {
	ID          int64
	Slug        string
	Name        string
	URL         string
	Active      bool
	LastChecked *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Item joins an episode with its processing record and owning podcast. It is
// the unit the pipeline stages operate on.
type Item struct {
	EpisodeID       int64
	PodcastID       int64
	PodcastSlug     string
	PodcastName     string
	GUID            string
	Title           string
	Description     string
	Link            string
	AudioURL        string
	ImageURL        string
	PublishedAt     *time.Time
	DurationSeconds int64
	EnclosureBytes  int64
	Context         string
	Summary         string
	RawFeedJSON     string
	Status          Status
	AudioPath       string
	TranscriptPath  string
	SummaryPath     string
	ErrorMessage    string
	StartedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
	ReportedAt      *time.Time
}

// Delivery is one append-only ledger entry for a sent summary email.
type Delivery struct {
	ID        int64
	EpisodeID int64
	Recipient string
	EmailID   string
	SentAt    time.Time
}

// Candidate carries the feed metadata needed to admit a new episode.
type Candidate struct {
	GUID            string
	Title           string
	Description     string
	Link            string
	AudioURL        string
	ImageURL        string
	PublishedAt     *time.Time
	DurationSeconds int64
	EnclosureBytes  int64
	RawFeedJSON     string
}

// StatusCounts summarizes processing records per status.
type StatusCounts struct {
	Total     int
	Active    int
	Completed int
	Failed    int
}
