package escrow

import (
	"context"
	"math/big"
	"sync"

	"github.com/streamingfast/eth-go"
)

// MemoryHandler is an in-memory Handler fixture: a sender-address -> balance
// map plus a caller-supplied accepted-signer set. Concurrent SubtractEscrow
// calls for the same sender are serialised by mu, so two receipts racing
// against the same balance can never both succeed past a shared deficit.
type MemoryHandler struct {
	mu              sync.Mutex
	balances        map[string]*big.Int
	acceptedSigners map[string]bool
}

// NewMemoryHandler builds a MemoryHandler with the given accepted signers.
// Balances start at zero and are populated with Deposit. Maps are keyed by
// the canonical hex form since eth.Address is a byte slice.
func NewMemoryHandler(acceptedSigners []eth.Address) *MemoryHandler {
	accepted := make(map[string]bool, len(acceptedSigners))
	for _, addr := range acceptedSigners {
		accepted[addr.Pretty()] = true
	}
	return &MemoryHandler{
		balances:        make(map[string]*big.Int),
		acceptedSigners: accepted,
	}
}

// Deposit credits amount to sender's balance. This models an external
// on-chain deposit; it is not part of the Handler interface because real
// deposits happen on-chain, not through the receiver's own code path.
func (h *MemoryHandler) Deposit(sender eth.Address, amount *big.Int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := sender.Pretty()
	current, ok := h.balances[key]
	if !ok {
		current = big.NewInt(0)
	}
	h.balances[key] = new(big.Int).Add(current, amount)
}

func (h *MemoryHandler) GetAvailableEscrow(_ context.Context, sender eth.Address) (*big.Int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	balance, ok := h.balances[sender.Pretty()]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(balance), nil
}

func (h *MemoryHandler) SubtractEscrow(_ context.Context, sender eth.Address, value *big.Int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := sender.Pretty()
	balance, ok := h.balances[key]
	if !ok {
		balance = big.NewInt(0)
	}

	remainder := new(big.Int).Sub(balance, value)
	if remainder.Sign() < 0 {
		return ErrInsufficientEscrow
	}
	h.balances[key] = remainder
	return nil
}

func (h *MemoryHandler) VerifySigner(_ context.Context, address eth.Address) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.acceptedSigners[address.Pretty()], nil
}

var _ Handler = (*MemoryHandler)(nil)
