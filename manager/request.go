package manager

import (
	"github.com/semiotic-ai/tap-core/eip712"
	"github.com/semiotic-ai/tap-core/receipt"
)

// RAVRequest is the result of CreateRAVRequest: the receipts that passed
// every check (ready to ship to an aggregator), the receipts that didn't
// (kept only as diagnostics), the RAV this batch supersedes, and the RAV the
// Manager expects an aggregator to return for this exact batch.
type RAVRequest[T receipt.Fields, R receipt.RAVFields] struct {
	ValidReceipts   []*receipt.ReceiptWithState[receipt.Checked, T]
	InvalidReceipts []*receipt.ReceiptWithState[receipt.Failed, T]
	PreviousRAV     *eip712.SignedMessage[R]
	ExpectedRAV     R
}
