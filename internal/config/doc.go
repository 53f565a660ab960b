// Package config loads, normalizes, and validates the TOML configuration
// used by every podsum subsystem.
package config
