// Package stages implements the pipeline stage handlers: download,
// contextualize, transcribe, summarize, deliver, and archive. Each handler
// satisfies the stage.Handler contract and owns exactly one status
// transition.
package stages
