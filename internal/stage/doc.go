// Package stage defines the handler contract pipeline stages implement and
// the executor that runs one stage against one item with compare-and-swap
// status persistence.
package stage
