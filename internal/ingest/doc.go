// Package ingest reconciles configured feeds with the store and admits new
// episodes into the pipeline.
//
// Admission is at most once per feed guid. Episodes that fail the duration,
// size, or age limits are skipped silently (no row is written), so a bad
// episode is reconsidered only as long as it stays in the feed. Poll
// timestamps are stamped after every fetch attempt, which throttles broken
// feeds the same as healthy ones.
package ingest
