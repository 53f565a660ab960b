package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const podcastColumns = "id, slug, name, url, active, last_checked, created_at, updated_at"

func scanPodcast(scanner interface{ Scan(dest ...any) error }) (*Podcast, error) {
	var (
		id          int64
		slug        string
		name        string
		url         string
		active      int64
		checkedRaw  sql.NullString
		createdRaw  string
		updatedRaw  string
	)
	if err := scanner.Scan(&id, &slug, &name, &url, &active, &checkedRaw, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	podcast := &Podcast{
		ID:     id,
		Slug:   slug,
		Name:   name,
		URL:    url,
		Active: active != 0,
	}
	if checkedRaw.Valid {
		if checked, err := parseTimeString(checkedRaw.String); err == nil {
			podcast.LastChecked = &checked
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		podcast.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		podcast.UpdatedAt = updated
	}
	return podcast, nil
}

// UpsertPodcast registers a feed or refreshes its name, url, and active flag.
// The last_checked throttle timestamp is preserved on update.
func (s *Store) UpsertPodcast(ctx context.Context, slug, name, url string, active bool) (*Podcast, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO podcasts (slug, name, url, active, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(slug) DO UPDATE SET
             name = excluded.name,
             url = excluded.url,
             active = excluded.active,
             updated_at = excluded.updated_at`,
		slug, name, url, boolToInt(active), now, now,
	); err != nil {
		return nil, fmt.Errorf("upsert podcast: %w", err)
	}
	return s.PodcastBySlug(ctx, slug)
}

// DeactivatePodcastsExcept marks every podcast not named in slugs inactive.
// Existing episode rows and history are untouched.
func (s *Store) DeactivatePodcastsExcept(ctx context.Context, slugs []string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if len(slugs) == 0 {
		res, err := s.execWithRetry(ctx, `UPDATE podcasts SET active = 0, updated_at = ? WHERE active = 1`, now)
		if err != nil {
			return 0, fmt.Errorf("deactivate podcasts: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(slugs))
	args := make([]any, 0, len(slugs)+1)
	args = append(args, now)
	for _, slug := range slugs {
		args = append(args, slug)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE podcasts SET active = 0, updated_at = ? WHERE active = 1 AND slug NOT IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("deactivate podcasts: %w", err)
	}
	return res.RowsAffected()
}

// PodcastBySlug fetches a podcast by slug.
func (s *Store) PodcastBySlug(ctx context.Context, slug string) (*Podcast, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+podcastColumns+` FROM podcasts WHERE slug = ?`, slug)
	podcast, err := scanPodcast(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get podcast: %w", err)
	}
	return podcast, nil
}

// ListPodcasts returns all registered podcasts ordered by slug.
func (s *Store) ListPodcasts(ctx context.Context) ([]*Podcast, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+podcastColumns+` FROM podcasts ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list podcasts: %w", err)
	}
	defer rows.Close()

	var podcasts []*Podcast
	for rows.Next() {
		podcast, err := scanPodcast(rows)
		if err != nil {
			return nil, err
		}
		podcasts = append(podcasts, podcast)
	}
	return podcasts, rows.Err()
}

// RecordPoll stamps the throttle timestamp after a fetch attempt, successful
// or not, so a failing feed is not hammered on every run.
func (s *Store) RecordPoll(ctx context.Context, podcastID int64, at time.Time) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE podcasts SET last_checked = ?, updated_at = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
		podcastID,
	); err != nil {
		return fmt.Errorf("record poll: %w", err)
	}
	return nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
