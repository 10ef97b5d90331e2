// Package capture implements the before/after clip extraction protocol.
//
// A trigger slices the already-buffered history for the "before" half of the
// window, then opens an ephemeral subscription to collect the "after" half
// as it is ingested. The timestamp of the last historical frame is the
// boundary separating the halves: live frames at or before it are discarded
// as duplicates, and a live frame landing on or past boundary+after closes
// the window. Collection is bounded by a per-wait timeout, a total wait
// budget, and context cancellation, so a stalled producer surfaces as
// ErrTimeout and shutdown as ErrCancelled instead of blocking forever.
package capture
