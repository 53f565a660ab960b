package store

import (
	"context"
	"fmt"
	"time"
)

// StageResult carries the artifact references a stage produced. Empty fields
// leave the stored value untouched.
type StageResult struct {
	AudioPath      string
	TranscriptPath string
	SummaryPath    string
	Context        string
	Summary        string
}

// Advance moves a processing record from one status to the next and persists
// the stage's artifacts in the same transaction. The status check and update
// execute as a single compare-and-set; a record observed in any other status
// returns ErrInvalidTransition and nothing changes.
func (s *Store) Advance(ctx context.Context, episodeID int64, from, to Status, result StageResult) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin advance tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		var completedAt any
		if to == StatusCompleted {
			completedAt = now
		}

		res, err := tx.ExecContext(
			ctx,
			`UPDATE processing
             SET status = ?,
                 audio_path = COALESCE(?, audio_path),
                 transcript_path = COALESCE(?, transcript_path),
                 summary_path = COALESCE(?, summary_path),
                 error_message = NULL,
                 updated_at = ?,
                 completed_at = COALESCE(?, completed_at)
             WHERE episode_id = ? AND status = ?`,
			to,
			nullableString(result.AudioPath),
			nullableString(result.TranscriptPath),
			nullableString(result.SummaryPath),
			now,
			completedAt,
			episodeID,
			from,
		)
		if err != nil {
			return fmt.Errorf("advance status: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected != 1 {
			return fmt.Errorf("%w: episode %d is not %s", ErrInvalidTransition, episodeID, from)
		}

		if result.Context != "" || result.Summary != "" {
			if _, err := tx.ExecContext(
				ctx,
				`UPDATE episodes
                 SET context = COALESCE(?, context),
                     summary = COALESCE(?, summary)
                 WHERE id = ?`,
				nullableString(result.Context),
				nullableString(result.Summary),
				episodeID,
			); err != nil {
				return fmt.Errorf("persist stage text: %w", err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit advance: %w", err)
		}
		return nil
	})
}

// MarkFailed moves a record into the absorbing failed status, capturing the
// stage's error message verbatim. Terminal records are left untouched and
// the call reports false.
func (s *Store) MarkFailed(ctx context.Context, episodeID int64, message string) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE processing
         SET status = ?, error_message = ?, updated_at = ?
         WHERE episode_id = ? AND status NOT IN (?, ?)`,
		StatusFailed,
		nullableString(message),
		now,
		episodeID,
		StatusCompleted,
		StatusFailed,
	)
	if err != nil {
		return false, fmt.Errorf("mark failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}

// SetAudioPath updates the tracked audio artifact location without changing
// status. Used when a file moves between lifecycle directories mid-stage.
func (s *Store) SetAudioPath(ctx context.Context, episodeID int64, path string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE processing SET audio_path = ?, updated_at = ? WHERE episode_id = ?`,
		nullableString(path),
		time.Now().UTC().Format(time.RFC3339Nano),
		episodeID,
	); err != nil {
		return fmt.Errorf("set audio path: %w", err)
	}
	return nil
}
