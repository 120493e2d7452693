package receipt

import (
	"context"

	"github.com/semiotic-ai/tap-core/eip712"
)

// ReceiptWithState pairs a signed receipt with its position in the
// Checking -> Checked | Failed lifecycle. S is the current state; T is the
// concrete receipt shape (ReceiptV1 or ReceiptV2).
type ReceiptWithState[S State, T Fields] struct {
	SignedReceipt *eip712.SignedMessage[T]
	State         S
}

// NewReceiptWithState wraps a freshly received signed receipt in the
// Checking state, ready for PerformChecks/FinalizeReceiptChecks.
func NewReceiptWithState[T Fields](signed *eip712.SignedMessage[T]) *ReceiptWithState[Checking, T] {
	return &ReceiptWithState[Checking, T]{SignedReceipt: signed, State: Checking{}}
}

// CheckOutcome is the result of running a receipt through its check list:
// exactly one of Checked or Failed is non-nil.
type CheckOutcome[T Fields] struct {
	Checked *ReceiptWithState[Checked, T]
	Failed  *ReceiptWithState[Failed, T]
}

// PerformChecks runs every check in checks against r in order, short
// circuiting on the first error. A Retryable CheckError is returned as-is
// (the caller must abort the whole RAV request); a non-retryable CheckError
// transitions r to Failed and is reported inside the returned CheckOutcome,
// not as a Go error.
func PerformChecks[T Fields](
	ctx context.Context,
	r *ReceiptWithState[Checking, T],
	checks CheckList[T],
	domain *eip712.Domain,
) (*CheckOutcome[T], error) {
	for _, check := range checks {
		if err := check.Check(ctx, r.SignedReceipt, domain); err != nil {
			if err.Retryable {
				return nil, err
			}
			return &CheckOutcome[T]{
				Failed: &ReceiptWithState[Failed, T]{
					SignedReceipt: r.SignedReceipt,
					State:         Failed{Err: err},
				},
			}, nil
		}
	}
	return &CheckOutcome[T]{
		Checked: &ReceiptWithState[Checked, T]{
			SignedReceipt: r.SignedReceipt,
			State:         Checked{},
		},
	}, nil
}

// FinalizeReceiptChecks is PerformChecks plus the Manager-level propagation
// rule: a retryable failure aborts the entire batch assembly, so it is the
// only case reported as a Go error here. A definitive failure or a pass are
// both reported through CheckOutcome so the caller can route the receipt to
// the request's invalid or valid set respectively.
func FinalizeReceiptChecks[T Fields](
	ctx context.Context,
	r *ReceiptWithState[Checking, T],
	checks CheckList[T],
	domain *eip712.Domain,
) (*CheckOutcome[T], error) {
	outcome, checkErr := PerformChecks(ctx, r, checks, domain)
	if checkErr != nil {
		return nil, checkErr
	}
	return outcome, nil
}
