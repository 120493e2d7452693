// Package storage defines the narrow persistence contracts a Manager needs
// and an in-memory implementation suitable for tests and demos. Concrete
// database-backed adapters are outside this module's scope: the Manager is
// generic over any type satisfying these interfaces.
package storage

import (
	"context"

	"github.com/semiotic-ai/tap-core/eip712"
	"github.com/semiotic-ai/tap-core/receipt"
)

// ReceiptStore persists a newly received, not-yet-checked receipt and
// assigns it a monotonically increasing id.
type ReceiptStore[T receipt.Fields] interface {
	StoreReceipt(ctx context.Context, r *receipt.ReceiptWithState[receipt.Checking, T]) (uint64, error)
}

// ReceiptRead retrieves receipts whose timestamp falls in the half-open
// range [minNs, maxNs). If limit is non-zero, an implementation must never
// return a strict prefix of a timestamp group: either every receipt sharing
// a given timestamp is returned, or none of them are.
type ReceiptRead[T receipt.Fields] interface {
	RetrieveReceiptsInTimestampRange(ctx context.Context, minNs, maxNs uint64, limit uint64) ([]*receipt.ReceiptWithState[receipt.Checking, T], error)
}

// ReceiptDelete removes every receipt with timestamp <= maxNs (inclusive).
// Calling it twice in a row for the same maxNs must be a no-op the second
// time.
type ReceiptDelete interface {
	RemoveReceiptsInTimestampRange(ctx context.Context, maxNs uint64) error
}

// RavStore persists the most recently validated RAV for a sender,
// overwriting whatever was there before.
type RavStore[R receipt.RAVFields] interface {
	UpdateLastRAV(ctx context.Context, rav *eip712.SignedMessage[R]) error
}

// RavRead retrieves the most recently stored RAV, or nil if none exists yet.
type RavRead[R receipt.RAVFields] interface {
	LastRAV(ctx context.Context) (*eip712.SignedMessage[R], error)
}
