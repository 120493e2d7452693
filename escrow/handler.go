// Package escrow defines the narrow escrow-balance and signer-authorisation
// contract a Manager consults while checking and storing receipts, plus an
// in-memory fixture and an on-chain-backed implementation.
package escrow

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/streamingfast/eth-go"

	"github.com/semiotic-ai/tap-core/eip712"
)

// ErrInsufficientEscrow is returned by SubtractEscrow when debiting value
// would take a sender's balance below zero.
var ErrInsufficientEscrow = errors.New("subtracting receipt value from escrow balance would underflow")

// Handler is the escrow/signer-verification contract the Manager's checks
// consult: available balance per sender, atomic debits, and whether a
// recovered signer address is one the receiver accepts.
type Handler interface {
	// GetAvailableEscrow returns the sender's current remaining balance.
	GetAvailableEscrow(ctx context.Context, sender eth.Address) (*big.Int, error)

	// SubtractEscrow debits value from sender's balance. It must be atomic
	// with respect to concurrent calls for the same sender and must fail
	// with ErrInsufficientEscrow rather than letting the balance go
	// negative.
	SubtractEscrow(ctx context.Context, sender eth.Address, value *big.Int) error

	// VerifySigner reports whether address is an authorised sender-signer.
	VerifySigner(ctx context.Context, address eth.Address) (bool, error)
}

// InvalidRecoveredSignerError is returned by CheckSignature when the
// recovered signer is not in the accepted set.
type InvalidRecoveredSignerError struct {
	Address eth.Address
}

func (e *InvalidRecoveredSignerError) Error() string {
	return fmt.Sprintf("recovered signer %s is not an authorised signer", e.Address.Pretty())
}

// FailedToVerifySignerError wraps an adapter-level error encountered while
// consulting Handler.VerifySigner.
type FailedToVerifySignerError struct {
	Err error
}

func (e *FailedToVerifySignerError) Error() string {
	return fmt.Sprintf("failed to verify signer: %v", e.Err)
}

func (e *FailedToVerifySignerError) Unwrap() error { return e.Err }

// CheckSignature recovers the signer of signed under domain, consults
// handler.VerifySigner, and returns the recovered address or an error: a
// recovery failure, an InvalidRecoveredSignerError if the signer is not
// accepted, or a FailedToVerifySignerError wrapping any adapter failure.
func CheckSignature[T eip712.EIP712Encodable](
	ctx context.Context,
	handler Handler,
	signed *eip712.SignedMessage[T],
	domain *eip712.Domain,
) (eth.Address, error) {
	signer, err := signed.RecoverSigner(domain)
	if err != nil {
		return eth.Address{}, fmt.Errorf("recovering signer: %w", err)
	}

	ok, err := handler.VerifySigner(ctx, signer)
	if err != nil {
		return eth.Address{}, &FailedToVerifySignerError{Err: err}
	}
	if !ok {
		return eth.Address{}, &InvalidRecoveredSignerError{Address: signer}
	}
	return signer, nil
}
