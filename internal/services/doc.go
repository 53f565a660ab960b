// Package services defines shared error classification and context
// annotations used by pipeline stages and their HTTP collaborators.
package services
