// Package feed fetches podcast RSS documents and extracts the episode
// fields admission policy and the pipeline consume.
package feed
