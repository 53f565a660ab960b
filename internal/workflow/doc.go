// Package workflow coordinates the full pipeline run: feed sync, throttled
// polling, sequential stage execution per episode, failed-episode cleanup,
// and the consolidated operator failure report.
package workflow
