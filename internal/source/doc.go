// Package source defines the ingestion boundary between hindsight and an
// external capture device, plus a synthetic generator for tests and demo
// runs. Hardware discovery and pipeline construction stay out-of-process.
package source
