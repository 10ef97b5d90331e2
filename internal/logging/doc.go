// Package logging builds the slog loggers used across hindsight.
//
// Two formats are supported: a compact console layout that prefixes messages
// with their component, and standard JSON for machine consumption. Helpers
// exist for attribute construction, component-scoped child loggers, and a
// no-op logger for tests.
package logging
