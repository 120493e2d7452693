package aggregator

import (
	"errors"
	"fmt"

	"github.com/streamingfast/eth-go"
)

// ErrNoValidReceiptsForRAVRequest is returned when CheckAndAggregate is
// called with an empty receipt batch.
var ErrNoValidReceiptsForRAVRequest = errors.New("no valid receipts for RAV request")

// ErrGroupKeyNotUniform is returned when receipts in a batch do not all
// share the same group key (allocation id, or collection/payer/data-service/
// provider quadruple).
var ErrGroupKeyNotUniform = errors.New("receipts do not share a uniform group key")

// ErrGroupKeyMismatch is returned when the previous RAV's group key does not
// match the receipt batch's.
var ErrGroupKeyMismatch = errors.New("previous RAV group key does not match receipt batch")

// DuplicateReceiptSignatureError is returned when two receipts in a batch
// share the same normalised signature.
type DuplicateReceiptSignatureError struct {
	Signature [65]byte
}

func (e *DuplicateReceiptSignatureError) Error() string {
	return fmt.Sprintf("duplicate receipt signature: %x", e.Signature)
}

// InvalidRecoveredSignerError is returned when a recovered receipt or RAV
// signer is not in the accepted-signer set.
type InvalidRecoveredSignerError struct {
	Address eth.Address
}

func (e *InvalidRecoveredSignerError) Error() string {
	return fmt.Sprintf("recovered signer %s is not an authorised signer", e.Address.Pretty())
}

// ReceiptTimestampLowerThanRAVError is returned when a receipt's timestamp
// does not strictly exceed the previous RAV's.
type ReceiptTimestampLowerThanRAVError struct {
	RAVTimestampNs     uint64
	ReceiptTimestampNs uint64
}

func (e *ReceiptTimestampLowerThanRAVError) Error() string {
	return fmt.Sprintf("receipt timestamp %d is not greater than previous RAV timestamp %d",
		e.ReceiptTimestampNs, e.RAVTimestampNs)
}
