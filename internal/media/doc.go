// Package media manages the audio artifact lifecycle across the incoming,
// processing, and archive directories, and produces deterministic
// filesystem-safe filenames for episode artifacts.
package media
