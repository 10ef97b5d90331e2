// Package history provides the bounded in-memory frame ring that backs
// retrospective clip extraction.
//
// The ring has a single writer (the ingestor) and any number of concurrent
// readers. Eviction is strictly FIFO, so the visible contents are always the
// most recent frames in arrival order. Slicing is permissive: ranges that
// fall outside the buffer yield an empty result instead of an error.
package history
