// Package preflight provides readiness checks for the muxing backend and
// filesystem paths that Hindsight depends on.
//
// The daemon runs RunAll at startup; the CLI "hindsight status" command
// renders individual results so a missing ffmpeg or unwritable clips
// directory is visible before the first trigger.
package preflight
