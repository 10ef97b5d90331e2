// Package api defines wire-format types and converters for the HTTP API
// layer. It translates internal catalog models into transport-friendly DTOs
// that dashboards and scripts can render without coupling to internal types.
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (catalog.Status) are exposed as lowercase strings. Timestamps use
// RFC3339 with milliseconds.
package api
