// Package frame defines the immutable media sample shared across the ingest,
// history, and muxing layers.
package frame
