package storage

import (
	"sort"

	"github.com/semiotic-ai/tap-core/receipt"
)

// SafeTruncateReceipts truncates receipts to at most limit entries without
// ever returning a strict prefix of a timestamp group: if naive truncation
// would split a timestamp between the kept and dropped halves, every
// receipt at that boundary timestamp is dropped instead of just some of
// them. ReceiptRead implementations backed by a store that cannot express
// this natively (e.g. a plain LIMIT query) can call this after an
// over-fetch to enforce the guarantee.
//
// limit == 0 clears receipts entirely.
func SafeTruncateReceipts[T receipt.Fields](receipts []*receipt.ReceiptWithState[receipt.Checking, T], limit uint64) []*receipt.ReceiptWithState[receipt.Checking, T] {
	if uint64(len(receipts)) <= limit {
		return receipts
	}
	if limit == 0 {
		return receipts[:0]
	}

	sort.SliceStable(receipts, func(i, j int) bool {
		return receipts[i].SignedReceipt.Message.Timestamp() < receipts[j].SignedReceipt.Message.Timestamp()
	})

	lastTimestamp := receipts[limit-1].SignedReceipt.Message.Timestamp()
	afterLastTimestamp := receipts[limit].SignedReceipt.Message.Timestamp()

	truncated := receipts[:limit]

	if lastTimestamp == afterLastTimestamp {
		kept := truncated[:0]
		for _, r := range truncated {
			if r.SignedReceipt.Message.Timestamp() != lastTimestamp {
				kept = append(kept, r)
			}
		}
		return kept
	}

	return truncated
}
