// Package notify delivers summary emails and operator failure reports.
//
// The default implementation sends through Resend using the sender configured
// in config.toml and gracefully degrades to a logging dry-run when no API key
// is configured. Workflow code depends only on the Service interface.
package notify
