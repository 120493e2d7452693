// Package manager implements the receiver-side coordinator: it validates
// incoming receipts against a caller-supplied check pipeline, persists them,
// assembles RAV requests over bounded time windows, verifies countersigned
// RAVs against its own locally computed expectation, and garbage-collects
// receipts a stored RAV has superseded.
//
// Clock-skew assumption: this package does not estimate peer clock drift
// itself. The timestampBufferNs argument to CreateRAVRequest is the
// caller's entire skew budget: a receipt whose sender clock runs ahead of
// the receiver's by more than the configured buffer may be excluded from a
// RAV request it should have been part of, and must wait for the next
// request's window to catch it.
package manager
