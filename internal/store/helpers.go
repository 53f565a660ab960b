package store

import (
	"database/sql"
	"errors"
	"time"
)

const itemColumns = `e.id, e.podcast_id, pc.slug, pc.name, e.guid, e.title, e.description, e.link,
    e.audio_url, e.image_url, e.published_at, e.duration_seconds, e.enclosure_bytes,
    e.context, e.summary, e.raw_feed_json,
    p.status, p.audio_path, p.transcript_path, p.summary_path, p.error_message,
    p.started_at, p.updated_at, p.completed_at, p.reported_at`

const itemTables = `episodes e
    JOIN processing p ON p.episode_id = e.id
    JOIN podcasts pc ON pc.id = e.podcast_id`

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		episodeID      int64
		podcastID      int64
		podcastSlug    string
		podcastName    string
		guid           string
		title          string
		description    sql.NullString
		link           sql.NullString
		audioURL       sql.NullString
		imageURL       sql.NullString
		publishedRaw   sql.NullString
		duration       sql.NullInt64
		enclosure      sql.NullInt64
		episodeContext sql.NullString
		summary        sql.NullString
		rawFeed        sql.NullString
		statusStr      string
		audioPath      sql.NullString
		transcriptPath sql.NullString
		summaryPath    sql.NullString
		errorMessage   sql.NullString
		startedRaw     sql.NullString
		updatedRaw     sql.NullString
		completedRaw   sql.NullString
		reportedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&episodeID,
		&podcastID,
		&podcastSlug,
		&podcastName,
		&guid,
		&title,
		&description,
		&link,
		&audioURL,
		&imageURL,
		&publishedRaw,
		&duration,
		&enclosure,
		&episodeContext,
		&summary,
		&rawFeed,
		&statusStr,
		&audioPath,
		&transcriptPath,
		&summaryPath,
		&errorMessage,
		&startedRaw,
		&updatedRaw,
		&completedRaw,
		&reportedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		EpisodeID:       episodeID,
		PodcastID:       podcastID,
		PodcastSlug:     podcastSlug,
		PodcastName:     podcastName,
		GUID:            guid,
		Title:           title,
		Description:     description.String,
		Link:            link.String,
		AudioURL:        audioURL.String,
		ImageURL:        imageURL.String,
		DurationSeconds: duration.Int64,
		EnclosureBytes:  enclosure.Int64,
		Context:         episodeContext.String,
		Summary:         summary.String,
		RawFeedJSON:     rawFeed.String,
		Status:          Status(statusStr),
		AudioPath:       audioPath.String,
		TranscriptPath:  transcriptPath.String,
		SummaryPath:     summaryPath.String,
		ErrorMessage:    errorMessage.String,
	}

	if publishedRaw.Valid {
		if published, err := parseTimeString(publishedRaw.String); err == nil {
			item.PublishedAt = &published
		}
	}
	if started, err := parseTimeString(startedRaw.String); err == nil {
		item.StartedAt = started
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			item.CompletedAt = &completed
		}
	}
	if reportedRaw.Valid {
		if reported, err := parseTimeString(reportedRaw.String); err == nil {
			item.ReportedAt = &reported
		}
	}

	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt64(value int64) any {
	if value <= 0 {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
