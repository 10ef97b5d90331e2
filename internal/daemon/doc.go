// Package daemon coordinates the long-running Hindsight process and system
// integration points.
//
// It wires configuration, the frame ring buffer, fan-out registry, ingest
// loop, capture service, and clip catalog into a single lifecycle with
// flock-based locking to prevent multiple instances. The daemon exposes the
// HTTP API for status queries and clip triggers, tracks camera hotplug
// events over udev netlink, and owns notifications for clip completion and
// failure.
//
// Keep orchestration logic here: the extraction protocol lives in the
// capture package while the daemon focuses on startup, shutdown, and high
// level coordination.
package daemon
