package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// HasEpisode reports whether an episode with the given guid already has a row.
func (s *Store) HasEpisode(ctx context.Context, guid string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM episodes WHERE guid = ?`, guid).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check episode guid: %w", err)
	}
	return count > 0, nil
}

// AdmitEpisode inserts the episode row and its processing record in one
// transaction. The processing record starts at fetched. A guid collision
// returns ErrDuplicateEpisode without inserting anything.
func (s *Store) AdmitEpisode(ctx context.Context, podcastID int64, candidate Candidate) (*Item, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin admit tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO episodes (
            podcast_id, guid, title, description, link, audio_url, image_url,
            published_at, duration_seconds, enclosure_bytes, raw_feed_json, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		podcastID,
		candidate.GUID,
		candidate.Title,
		nullableString(candidate.Description),
		nullableString(candidate.Link),
		nullableString(candidate.AudioURL),
		nullableString(candidate.ImageURL),
		nullableTime(candidate.PublishedAt),
		nullableInt64(candidate.DurationSeconds),
		nullableInt64(candidate.EnclosureBytes),
		nullableString(candidate.RawFeedJSON),
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEpisode
		}
		return nil, fmt.Errorf("insert episode: %w", err)
	}

	episodeID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO processing (episode_id, status, started_at, updated_at)
         VALUES (?, ?, ?, ?)`,
		episodeID,
		StatusFetched,
		now,
		now,
	); err != nil {
		return nil, fmt.Errorf("insert processing record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit admit: %w", err)
	}

	return s.GetItem(ctx, episodeID)
}

// GetItem fetches an episode joined with its processing record.
func (s *Store) GetItem(ctx context.Context, episodeID int64) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM `+itemTables+` WHERE e.id = ?`,
		episodeID,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ItemByGUID fetches an episode by its feed guid.
func (s *Store) ItemByGUID(ctx context.Context, guid string) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM `+itemTables+` WHERE e.guid = ?`,
		guid,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item by guid: %w", err)
	}
	return item, nil
}

// ListItems returns items filtered by status set (or all items when no
// status is provided), oldest first.
func (s *Store) ListItems(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM ` + itemTables
	orderClause := ` ORDER BY p.started_at, e.id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE p.status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ActiveItems returns every item still moving through the pipeline.
func (s *Store) ActiveItems(ctx context.Context) ([]*Item, error) {
	return s.ListItems(ctx,
		StatusFetched,
		StatusDownloaded,
		StatusContextualized,
		StatusTranscribed,
		StatusSummarized,
		StatusDelivered,
	)
}

// Counts summarizes processing records across lifecycle groups.
func (s *Store) Counts(ctx context.Context) (StatusCounts, error) {
	var counts StatusCounts
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM processing GROUP BY status`)
	if err != nil {
		return counts, fmt.Errorf("count processing records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			statusStr string
			n         int
		)
		if err := rows.Scan(&statusStr, &n); err != nil {
			return counts, err
		}
		counts.Total += n
		switch Status(statusStr) {
		case StatusCompleted:
			counts.Completed += n
		case StatusFailed:
			counts.Failed += n
		default:
			counts.Active += n
		}
	}
	return counts, rows.Err()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed: UNIQUE")
}
