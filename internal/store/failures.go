package store

import (
	"context"
	"fmt"
	"time"
)

// UnreportedFailures returns failed records that have not yet appeared in a
// consolidated failure report, oldest first.
func (s *Store) UnreportedFailures(ctx context.Context) ([]*Item, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+itemColumns+` FROM `+itemTables+`
         WHERE p.status = ? AND p.reported_at IS NULL
         ORDER BY p.updated_at, e.id`,
		StatusFailed,
	)
	if err != nil {
		return nil, fmt.Errorf("list unreported failures: %w", err)
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

// MarkReported stamps failed records after a successful failure report so the
// next run does not repeat them. Only still-failed rows are stamped.
func (s *Store) MarkReported(ctx context.Context, episodeIDs []int64, at time.Time) (int64, error) {
	if len(episodeIDs) == 0 {
		return 0, nil
	}
	placeholders := makePlaceholders(len(episodeIDs))
	args := make([]any, 0, len(episodeIDs)+2)
	args = append(args, at.UTC().Format(time.RFC3339Nano), StatusFailed)
	for _, id := range episodeIDs {
		args = append(args, id)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE processing SET reported_at = ?
         WHERE status = ? AND reported_at IS NULL AND episode_id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("mark reported: %w", err)
	}
	return res.RowsAffected()
}
