// Package catalog persists a record of every triggered clip extraction in
// SQLite: requested window, lifecycle status, and the resulting artifact.
// The daemon API and CLI render their clip history from this store.
package catalog
