// Package aggregator implements the stateless RAV-signing service: it
// validates a batch of receipts (plus an optional prior RAV) and produces a
// newly signed RAV, rejecting replays, forged signatures, timestamp
// regressions, and mixed-allocation/collection batches.
package aggregator

import (
	"context"
	"fmt"

	"github.com/streamingfast/eth-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/semiotic-ai/tap-core/eip712"
	"github.com/semiotic-ai/tap-core/receipt"
)

// Aggregator validates receipts against an accepted-signer set and signs
// new RAVs with its own key. It carries no state between calls: every field
// is fixed at construction and read-only thereafter, so a single Aggregator
// value may serve concurrent CheckAndAggregate calls.
type Aggregator[T receipt.Fields, R receipt.RAVFields] struct {
	domain          *eip712.Domain
	signerKey       *eth.PrivateKey
	acceptedSigners map[string]bool
	aggregate       receipt.AggregateFunc[T, R]
	logger          *zap.Logger
}

// New builds an Aggregator that signs under domain with signerKey, accepts
// receipts/RAVs signed by any address in acceptedSigners, and folds
// validated receipts into a RAV using aggregate.
func New[T receipt.Fields, R receipt.RAVFields](
	domain *eip712.Domain,
	signerKey *eth.PrivateKey,
	acceptedSigners []eth.Address,
	aggregate receipt.AggregateFunc[T, R],
	logger *zap.Logger,
) *Aggregator[T, R] {
	accepted := make(map[string]bool, len(acceptedSigners))
	for _, addr := range acceptedSigners {
		accepted[addr.Pretty()] = true
	}
	return &Aggregator[T, R]{
		domain:          domain,
		signerKey:       signerKey,
		acceptedSigners: accepted,
		aggregate:       aggregate,
		logger:          logger,
	}
}

// CheckAndAggregate validates receipts and previousRAV, then returns a
// freshly signed RAV. previousRAV may be nil.
func (a *Aggregator[T, R]) CheckAndAggregate(
	ctx context.Context,
	receipts []*eip712.SignedMessage[T],
	previousRAV *eip712.SignedMessage[R],
) (*eip712.SignedMessage[R], error) {
	if len(receipts) == 0 {
		return nil, ErrNoValidReceiptsForRAVRequest
	}

	if err := checkSignaturesUnique(receipts); err != nil {
		return nil, err
	}

	if err := a.verifySigners(ctx, receipts, previousRAV); err != nil {
		return nil, err
	}

	if err := checkReceiptTimestamps(receipts, previousRAV); err != nil {
		return nil, err
	}

	if err := checkGroupUniformity(receipts, previousRAV); err != nil {
		return nil, err
	}

	var previousMessage R
	if previousRAV != nil {
		previousMessage = previousRAV.Message
	}

	plainReceipts := make([]T, len(receipts))
	for i, r := range receipts {
		plainReceipts[i] = r.Message
	}

	rav, err := a.aggregate(plainReceipts, previousMessage)
	if err != nil {
		return nil, err
	}

	signed, err := eip712.Sign(a.domain, rav, a.signerKey)
	if err != nil {
		return nil, fmt.Errorf("signing RAV: %w", err)
	}

	if a.logger != nil {
		a.logger.Info("aggregated RAV",
			zap.Int("receipt_count", len(receipts)),
			zap.Uint64("timestamp_ns", signed.Message.Timestamp()),
			zap.String("value_aggregate", signed.Message.Aggregate().String()),
		)
	}

	return signed, nil
}

// checkSignaturesUnique rejects a batch containing two receipts with the
// same normalised signature; a malleable twin of an already-seen receipt
// counts as a duplicate.
func checkSignaturesUnique[T receipt.Fields](receipts []*eip712.SignedMessage[T]) error {
	seen := make(map[[65]byte]bool, len(receipts))
	for _, r := range receipts {
		id := r.UniqueID()
		if seen[id] {
			return &DuplicateReceiptSignatureError{Signature: id}
		}
		seen[id] = true
	}
	return nil
}

// verifySigners recovers the signer of every receipt and of previousRAV (if
// present) in parallel and checks each against the accepted-signer set.
// Signature recovery dominates the cost of large batches and each recovery
// is independent, so the whole step fans out through an errgroup.
func (a *Aggregator[T, R]) verifySigners(
	ctx context.Context,
	receipts []*eip712.SignedMessage[T],
	previousRAV *eip712.SignedMessage[R],
) error {
	group, _ := errgroup.WithContext(ctx)

	for _, r := range receipts {
		r := r
		group.Go(func() error {
			signer, err := r.RecoverSigner(a.domain)
			if err != nil {
				return fmt.Errorf("recovering receipt signer: %w", err)
			}
			if !a.acceptedSigners[signer.Pretty()] {
				return &InvalidRecoveredSignerError{Address: signer}
			}
			return nil
		})
	}

	if previousRAV != nil {
		group.Go(func() error {
			signer, err := previousRAV.RecoverSigner(a.domain)
			if err != nil {
				return fmt.Errorf("recovering previous RAV signer: %w", err)
			}
			if !a.acceptedSigners[signer.Pretty()] {
				return &InvalidRecoveredSignerError{Address: signer}
			}
			return nil
		})
	}

	return group.Wait()
}

// checkReceiptTimestamps enforces the strict timestamp floor: every
// receipt's timestamp must exceed previousRAV's, when one is supplied.
func checkReceiptTimestamps[T receipt.Fields, R receipt.RAVFields](
	receipts []*eip712.SignedMessage[T],
	previousRAV *eip712.SignedMessage[R],
) error {
	if previousRAV == nil {
		return nil
	}
	ravTimestamp := previousRAV.Message.Timestamp()
	for _, r := range receipts {
		ts := r.Message.Timestamp()
		if ts <= ravTimestamp {
			return &ReceiptTimestampLowerThanRAVError{RAVTimestampNs: ravTimestamp, ReceiptTimestampNs: ts}
		}
	}
	return nil
}

// checkGroupUniformity requires every receipt to share the same group key
// (allocation id in v1; collection/payer/data-service/provider quadruple in
// v2), and the previous RAV, if present, to match it.
func checkGroupUniformity[T receipt.Fields, R receipt.RAVFields](
	receipts []*eip712.SignedMessage[T],
	previousRAV *eip712.SignedMessage[R],
) error {
	groupKey := receipts[0].Message.GroupKey()
	for _, r := range receipts[1:] {
		if r.Message.GroupKey() != groupKey {
			return ErrGroupKeyNotUniform
		}
	}
	if previousRAV != nil && previousRAV.Message.GroupKey() != groupKey {
		return ErrGroupKeyMismatch
	}
	return nil
}
