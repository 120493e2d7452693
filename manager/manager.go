package manager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/semiotic-ai/tap-core/eip712"
	"github.com/semiotic-ai/tap-core/escrow"
	"github.com/semiotic-ai/tap-core/receipt"
	"github.com/semiotic-ai/tap-core/storage"
)

// Context is the narrow storage surface a Manager needs: receipt
// store/read/delete and the single-slot RAV store/read. A database-backed
// adapter satisfies this directly; storage.Memory* satisfy it for tests and
// demos.
type Context[T receipt.Fields, R receipt.RAVFields] interface {
	storage.ReceiptStore[T]
	storage.ReceiptRead[T]
	storage.ReceiptDelete
	storage.RavStore[R]
	storage.RavRead[R]
}

// Manager is the receiver-side coordinator: it validates and stores
// incoming receipts, assembles RAV requests over bounded time windows,
// verifies countersigned RAVs against its own expectation, and evicts
// receipts an accepted RAV has superseded.
type Manager[T receipt.Fields, R receipt.RAVFields] struct {
	domain         *eip712.Domain
	ctx            Context[T, R]
	escrowHandler  escrow.Handler
	checks         receipt.CheckList[T]
	aggregate      receipt.AggregateFunc[T, R]
	timestampFloor *receipt.StatefulTimestampCheck[T]
	logger         *zap.Logger
}

// New builds a Manager signing/verifying under domain, backed by storeCtx,
// authorising signers via escrowHandler, running checks (in addition to the
// built-in stateful timestamp floor, which is always run first) against
// every ingressed receipt, and folding valid receipts with aggregate.
func New[T receipt.Fields, R receipt.RAVFields](
	domain *eip712.Domain,
	storeCtx Context[T, R],
	escrowHandler escrow.Handler,
	checks receipt.CheckList[T],
	aggregate receipt.AggregateFunc[T, R],
	logger *zap.Logger,
) *Manager[T, R] {
	floor := receipt.NewStatefulTimestampCheck[T](0)
	full := make(receipt.CheckList[T], 0, len(checks)+1)
	full = append(full, floor)
	full = append(full, checks...)

	return &Manager[T, R]{
		domain:         domain,
		ctx:            storeCtx,
		escrowHandler:  escrowHandler,
		checks:         full,
		aggregate:      aggregate,
		timestampFloor: floor,
		logger:         logger,
	}
}

// Bootstrap hydrates the in-process timestamp floor from whatever RAV is
// already persisted. Callers should invoke it once at startup, before
// serving any traffic, since the floor otherwise starts at zero.
func (m *Manager[T, R]) Bootstrap(ctx context.Context) error {
	lastRAV, err := m.ctx.LastRAV(ctx)
	if err != nil {
		return fmt.Errorf("loading last RAV: %w", err)
	}
	if lastRAV != nil {
		m.timestampFloor.Update(lastRAV.Message.Timestamp())
	}
	return nil
}

// VerifyAndStoreReceipt runs every check in the Manager's list (the stateful
// timestamp floor, then the caller-supplied list) against signed, in order,
// and stores it if every check passes. A retryable check failure is
// returned as-is; a definitive failure becomes a hard error here too, and
// the receipt is never persisted in that case.
func (m *Manager[T, R]) VerifyAndStoreReceipt(ctx context.Context, signed *eip712.SignedMessage[T]) (uint64, error) {
	recv := receipt.NewReceiptWithState(signed)

	outcome, checkErr := receipt.PerformChecks(ctx, recv, m.checks, m.domain)
	if checkErr != nil {
		return 0, checkErr
	}
	if outcome.Failed != nil {
		return 0, outcome.Failed.State.Err
	}

	id, err := m.ctx.StoreReceipt(ctx, recv)
	if err != nil {
		return 0, fmt.Errorf("storing receipt: %w", err)
	}

	if m.logger != nil {
		m.logger.Debug("stored receipt", zap.Uint64("id", id), zap.Uint64("timestamp_ns", signed.Message.Timestamp()))
	}
	return id, nil
}

// CreateRAVRequest assembles a RAV request over receipts timestamped since
// the last RAV. nowNs is the caller's notion of the current wall clock in
// nanoseconds.
func (m *Manager[T, R]) CreateRAVRequest(ctx context.Context, nowNs uint64, timestampBufferNs uint64, limit uint64) (*RAVRequest[T, R], error) {
	previousRAV, err := m.ctx.LastRAV(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading last RAV: %w", err)
	}

	var minTs uint64
	if previousRAV != nil {
		minTs = previousRAV.Message.Timestamp() + 1
	}

	var maxTs uint64
	if timestampBufferNs <= nowNs {
		maxTs = nowNs - timestampBufferNs
	}

	if minTs > maxTs {
		return nil, &TimestampRangeError{Min: minTs, Max: maxTs}
	}

	candidates, err := m.ctx.RetrieveReceiptsInTimestampRange(ctx, minTs, maxTs, limit)
	if err != nil {
		return nil, fmt.Errorf("retrieving receipts: %w", err)
	}

	request := &RAVRequest[T, R]{PreviousRAV: previousRAV}

	signedCandidates := make([]*eip712.SignedMessage[T], len(candidates))
	for i, c := range candidates {
		signedCandidates[i] = c.SignedReceipt
	}

	timestampResults := receipt.TimestampCheck[T]{Min: minTs}.CheckBatch(ctx, signedCandidates, m.domain)
	uniqueResults := receipt.UniqueCheck[T]{}.CheckBatch(ctx, signedCandidates, m.domain)

	var survivors []*receipt.ReceiptWithState[receipt.Checking, T]
	for i, c := range candidates {
		if err := firstOf(timestampResults[i], uniqueResults[i]); err != nil {
			request.InvalidReceipts = append(request.InvalidReceipts, &receipt.ReceiptWithState[receipt.Failed, T]{
				SignedReceipt: c.SignedReceipt,
				State:         receipt.Failed{Err: err},
			})
			continue
		}
		survivors = append(survivors, c)
	}

	for _, c := range survivors {
		outcome, checkErr := receipt.FinalizeReceiptChecks(ctx, c, m.checks, m.domain)
		if checkErr != nil {
			return nil, checkErr
		}
		if outcome.Checked != nil {
			request.ValidReceipts = append(request.ValidReceipts, outcome.Checked)
		} else {
			request.InvalidReceipts = append(request.InvalidReceipts, outcome.Failed)
		}
	}

	validMessages := make([]T, len(request.ValidReceipts))
	for i, r := range request.ValidReceipts {
		validMessages[i] = r.SignedReceipt.Message
	}

	var previousMessage R
	if previousRAV != nil {
		previousMessage = previousRAV.Message
	}

	expected, err := m.aggregate(validMessages, previousMessage)
	if err != nil {
		return nil, err
	}
	request.ExpectedRAV = expected

	return request, nil
}

// firstOf returns the first non-nil error among errs.
func firstOf(errs ...*receipt.CheckError) *receipt.CheckError {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// VerifyAndStoreRAV re-verifies the signer of signedRAV, byte-compares its
// message against expectedRAV, and persists it, raising the stateful
// timestamp floor to the RAV's timestamp so that only receipts at least one
// nanosecond past it pass.
func (m *Manager[T, R]) VerifyAndStoreRAV(ctx context.Context, expectedRAV R, signedRAV *eip712.SignedMessage[R]) error {
	if _, err := escrow.CheckSignature(ctx, m.escrowHandler, signedRAV, m.domain); err != nil {
		return fmt.Errorf("verifying RAV signer: %w", err)
	}

	expectedBytes, err := json.Marshal(expectedRAV)
	if err != nil {
		return fmt.Errorf("marshalling expected RAV: %w", err)
	}
	receivedBytes, err := json.Marshal(signedRAV.Message)
	if err != nil {
		return fmt.Errorf("marshalling received RAV: %w", err)
	}
	if !bytes.Equal(expectedBytes, receivedBytes) {
		return &InvalidReceivedRAVError[R]{Received: signedRAV.Message, Expected: expectedRAV}
	}

	if err := m.ctx.UpdateLastRAV(ctx, signedRAV); err != nil {
		return fmt.Errorf("storing RAV: %w", err)
	}

	m.timestampFloor.Update(signedRAV.Message.Timestamp())

	if m.logger != nil {
		m.logger.Info("stored new RAV",
			zap.Uint64("timestamp_ns", signedRAV.Message.Timestamp()),
			zap.String("value_aggregate", signedRAV.Message.Aggregate().String()),
		)
	}
	return nil
}

// RemoveObsoleteReceipts deletes every receipt whose timestamp does not
// exceed the stored RAV's. Idempotent: calling it twice for the same RAV
// is a no-op the second time.
func (m *Manager[T, R]) RemoveObsoleteReceipts(ctx context.Context) error {
	lastRAV, err := m.ctx.LastRAV(ctx)
	if err != nil {
		return fmt.Errorf("loading last RAV: %w", err)
	}
	if lastRAV == nil {
		return nil
	}
	return m.ctx.RemoveReceiptsInTimestampRange(ctx, lastRAV.Message.Timestamp())
}

// nowUnixNano is the Manager's own wall-clock read, used by Scheduler; callers
// assembling a RAVRequest directly supply their own nowNs so the call stays
// deterministic and testable.
func nowUnixNano() uint64 {
	return uint64(time.Now().UnixNano())
}
