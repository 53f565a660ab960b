package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RecordDelivery appends a ledger entry for one sent summary email. The
// unique (episode, recipient) index rejects duplicates with
// ErrDuplicateDelivery, so a resumed delivery pass cannot double-send.
func (s *Store) RecordDelivery(ctx context.Context, episodeID int64, recipient, emailID string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO deliveries (episode_id, recipient, email_id, sent_at)
         VALUES (?, ?, ?, ?)`,
		episodeID,
		recipient,
		nullableString(emailID),
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateDelivery
		}
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}

// DeliveredRecipients returns the set of recipients already recorded for an
// episode.
func (s *Store) DeliveredRecipients(ctx context.Context, episodeID int64) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT recipient FROM deliveries WHERE episode_id = ?`,
		episodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list delivered recipients: %w", err)
	}
	defer rows.Close()

	recipients := map[string]struct{}{}
	for rows.Next() {
		var recipient string
		if err := rows.Scan(&recipient); err != nil {
			return nil, err
		}
		recipients[recipient] = struct{}{}
	}
	return recipients, rows.Err()
}

// Deliveries returns the full ledger for an episode ordered by send time.
func (s *Store) Deliveries(ctx context.Context, episodeID int64) ([]*Delivery, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, episode_id, recipient, email_id, sent_at
         FROM deliveries WHERE episode_id = ? ORDER BY sent_at, id`,
		episodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*Delivery
	for rows.Next() {
		var (
			delivery Delivery
			emailID  sql.NullString
			sentRaw  string
		)
		if err := rows.Scan(&delivery.ID, &delivery.EpisodeID, &delivery.Recipient, &emailID, &sentRaw); err != nil {
			return nil, err
		}
		delivery.EmailID = emailID.String
		if sent, err := parseTimeString(sentRaw); err == nil {
			delivery.SentAt = sent
		}
		deliveries = append(deliveries, &delivery)
	}
	return deliveries, rows.Err()
}
