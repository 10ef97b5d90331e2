// Package fanout mirrors ingested frames to ephemeral per-extraction
// subscriptions.
//
// Each in-flight clip extraction owns one subscription for the lifetime of
// its "after" window. Within that lifetime the subscription sees every
// published frame in arrival order, with no loss and no duplication, subject
// to its queue depth. Registry mutations are isolated: subscribing or
// unsubscribing concurrently with a publish never perturbs delivery to
// unrelated subscribers.
package fanout
