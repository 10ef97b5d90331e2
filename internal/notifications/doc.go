// Package notifications delivers clip lifecycle events to an external ntfy
// topic. The daemon's responsibility ends at producing a valid artifact;
// this package is the outbound hand-off.
package notifications
