package receipt

import (
	"context"
	"sync"

	"github.com/semiotic-ai/tap-core/eip712"
)

// Check is a single-receipt check run by PerformChecks. Implementations
// return a *CheckError on failure: Retryable aborts the whole RAV request,
// non-retryable fails just this receipt. A nil return means the receipt
// passed.
type Check[T Fields] interface {
	Check(ctx context.Context, signed *eip712.SignedMessage[T], domain *eip712.Domain) *CheckError
}

// CheckBatch is a check that needs visibility into the whole batch at once
// (uniqueness, timestamp-floor) rather than one receipt in isolation. It
// returns one *CheckError per input receipt, aligned by index; a nil entry
// means that receipt passed this batch check.
type CheckBatch[T Fields] interface {
	CheckBatch(ctx context.Context, receipts []*eip712.SignedMessage[T], domain *eip712.Domain) []*CheckError
}

// CheckList is an ordered list of per-receipt checks a Manager runs against
// every incoming receipt, via PerformChecks/FinalizeReceiptChecks. Order
// matters because the first failure, retryable or not, short-circuits the
// remaining checks.
type CheckList[T Fields] []Check[T]

// CheckFunc adapts a plain function to the Check interface.
type CheckFunc[T Fields] func(ctx context.Context, signed *eip712.SignedMessage[T], domain *eip712.Domain) *CheckError

func (f CheckFunc[T]) Check(ctx context.Context, signed *eip712.SignedMessage[T], domain *eip712.Domain) *CheckError {
	return f(ctx, signed, domain)
}

// StatefulTimestampCheck rejects any receipt whose timestamp is at or below
// a floor that only ever moves forward. The Manager advances the floor each
// time a RAV is accepted; the check itself never does.
type StatefulTimestampCheck[T Fields] struct {
	mu  sync.RWMutex
	min uint64
}

// NewStatefulTimestampCheck builds a check with the given initial floor.
func NewStatefulTimestampCheck[T Fields](min uint64) *StatefulTimestampCheck[T] {
	return &StatefulTimestampCheck[T]{min: min}
}

// Update raises the floor to min. Callers must never lower it.
func (c *StatefulTimestampCheck[T]) Update(min uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if min > c.min {
		c.min = min
	}
}

func (c *StatefulTimestampCheck[T]) Check(_ context.Context, signed *eip712.SignedMessage[T], _ *eip712.Domain) *CheckError {
	c.mu.RLock()
	min := c.min
	c.mu.RUnlock()

	ts := signed.Message.Timestamp()
	if ts <= min {
		return FailedErr("receipt timestamp %d is not greater than the floor %d", ts, min)
	}
	return nil
}

var _ Check[Fields] = (*StatefulTimestampCheck[Fields])(nil)

// TimestampCheck is the batch form used once per CreateRAVRequest call: it
// keeps every receipt whose timestamp is at or above min and fails the rest.
// Unlike StatefulTimestampCheck's exclusive floor, this boundary is
// inclusive because min here is the caller-supplied lower bound of the
// retrieval range, not a "strictly after the last RAV" floor.
type TimestampCheck[T Fields] struct {
	Min uint64
}

func (c TimestampCheck[T]) CheckBatch(_ context.Context, receipts []*eip712.SignedMessage[T], _ *eip712.Domain) []*CheckError {
	results := make([]*CheckError, len(receipts))
	for i, r := range receipts {
		ts := r.Message.Timestamp()
		if ts < c.Min {
			results[i] = FailedErr("receipt timestamp %d is below the requested minimum %d", ts, c.Min)
		}
	}
	return results
}

var _ CheckBatch[Fields] = TimestampCheck[Fields]{}

// UniqueCheck fails every receipt in a batch whose normalised signature
// collides with an earlier receipt's, using the signature bytes alone:
// malleable twins normalise to the same unique id and collide too. The
// first occurrence of each signature is kept; only its repeats fail.
type UniqueCheck[T Fields] struct{}

func (c UniqueCheck[T]) CheckBatch(_ context.Context, receipts []*eip712.SignedMessage[T], _ *eip712.Domain) []*CheckError {
	seen := make(map[[65]byte]bool, len(receipts))
	results := make([]*CheckError, len(receipts))

	for i, r := range receipts {
		id := r.UniqueID()
		if seen[id] {
			results[i] = FailedErr("%w", ErrNonUniqueReceipt)
			continue
		}
		seen[id] = true
	}
	return results
}

var _ CheckBatch[Fields] = UniqueCheck[Fields]{}
