// Package store persists podcasts, episodes, processing records, and the
// per-recipient delivery ledger in SQLite. Stage transitions execute as
// compare-and-set updates so a crashed or concurrent run can never move a
// record backwards or skip a stage.
package store
