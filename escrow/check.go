package escrow

import (
	"context"
	"errors"

	"github.com/semiotic-ai/tap-core/eip712"
	"github.com/semiotic-ai/tap-core/receipt"
)

// Check is a receipt.Check that recovers a receipt's signer and reserves its
// value against that sender's escrow balance, failing the receipt if the
// reservation would underflow. It is a caller-supplied entry in a Manager's
// check list, not a built-in the Manager runs automatically.
type Check[T receipt.Fields] struct {
	Handler Handler
}

// NewCheck builds an escrow availability check backed by handler.
func NewCheck[T receipt.Fields](handler Handler) *Check[T] {
	return &Check[T]{Handler: handler}
}

func (c *Check[T]) Check(ctx context.Context, signed *eip712.SignedMessage[T], domain *eip712.Domain) *receipt.CheckError {
	signer, err := signed.RecoverSigner(domain)
	if err != nil {
		return receipt.FailedErr("recovering signer: %v", err)
	}

	if err := c.Handler.SubtractEscrow(ctx, signer, signed.Message.Amount()); err != nil {
		if errors.Is(err, ErrInsufficientEscrow) {
			return receipt.FailedErr("%w", receipt.ErrSubtractEscrowFailed)
		}
		return receipt.RetryableErr("checking escrow balance: %v", err)
	}
	return nil
}

var _ receipt.Check[receipt.Fields] = (*Check[receipt.Fields])(nil)
