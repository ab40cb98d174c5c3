// Package voteengine implements the paid vote commitment engine inside the
// awards-voting context.
//
// A vote starts pending when the voter opens a checkout, and becomes committed
// only after the payment provider confirms settlement for the exact price. The
// commit and the contestant counter increment happen in one ledger
// transaction guarded on the pending state, so a payment reference is counted
// at most once however many callbacks, polls or retries arrive for it.
// Workers reconcile abandoned checkouts, expire stale sessions, audit counters
// and relay outbox events to receipt delivery.
package voteengine
