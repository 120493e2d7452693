package escrow

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/streamingfast/eth-go"
	"github.com/streamingfast/eth-go/rpc"
)

// RPCHandler is a Handler backed by the PaymentsEscrow on-chain contract: it
// queries available balance over JSON-RPC and tracks in-process debits
// against it so that repeated SubtractEscrow calls within a RAV-granting
// window don't require a fresh chain read each time. VerifySigner consults a
// caller-supplied accepted-signer set, same as MemoryHandler.
type RPCHandler struct {
	rpcClient  *rpc.Client
	escrowAddr eth.Address
	collector  eth.Address
	receiver   eth.Address

	mu              sync.Mutex
	reserved        map[string]*big.Int
	acceptedSigners map[string]bool
}

// NewRPCHandler builds an RPCHandler querying escrowAddr's PaymentsEscrow
// contract for the (collector, receiver) pair this receiver operates under.
func NewRPCHandler(rpcEndpoint string, escrowAddr, collector, receiver eth.Address, acceptedSigners []eth.Address) *RPCHandler {
	accepted := make(map[string]bool, len(acceptedSigners))
	for _, addr := range acceptedSigners {
		accepted[addr.Pretty()] = true
	}
	return &RPCHandler{
		rpcClient:       rpc.NewClient(rpcEndpoint),
		escrowAddr:      escrowAddr,
		collector:       collector,
		receiver:        receiver,
		reserved:        make(map[string]*big.Int),
		acceptedSigners: accepted,
	}
}

// getBalanceSelector is keccak256("getBalance(address,address,address)")[:4].
var getBalanceSelector = []byte{0xd6, 0xbd, 0x60, 0x3c}

// onChainBalance calls PaymentsEscrow.getBalance(payer, collector, receiver).
func (h *RPCHandler) onChainBalance(ctx context.Context, payer eth.Address) (*big.Int, error) {
	data := make([]byte, 4+32*3)
	copy(data[:4], getBalanceSelector)
	copy(data[4+12:4+32], payer[:])
	copy(data[4+32+12:4+64], h.collector[:])
	copy(data[4+64+12:4+96], h.receiver[:])

	params := rpc.CallParams{
		To:   h.escrowAddr,
		Data: data,
	}

	resultHex, err := h.rpcClient.Call(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("calling getBalance: %w", err)
	}

	resultHex = strings.TrimPrefix(resultHex, "0x")
	resultBytes, err := hex.DecodeString(resultHex)
	if err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	if len(resultBytes) != 32 {
		return nil, fmt.Errorf("unexpected result length: %d", len(resultBytes))
	}

	return new(big.Int).SetBytes(resultBytes), nil
}

// GetAvailableEscrow returns the on-chain balance minus the total this
// process has reserved for sender; reservations are never released.
func (h *RPCHandler) GetAvailableEscrow(ctx context.Context, sender eth.Address) (*big.Int, error) {
	onChain, err := h.onChainBalance(ctx, sender)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	reserved, ok := h.reserved[sender.Pretty()]
	if !ok {
		return onChain, nil
	}
	return new(big.Int).Sub(onChain, reserved), nil
}

// SubtractEscrow reads the on-chain balance, then atomically checks it
// against what this process has already reserved for sender and reserves
// value on top, all under a single lock so two concurrent debits for the
// same sender can never both succeed against the same chain read.
func (h *RPCHandler) SubtractEscrow(ctx context.Context, sender eth.Address, value *big.Int) error {
	onChain, err := h.onChainBalance(ctx, sender)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	key := sender.Pretty()
	reserved, ok := h.reserved[key]
	if !ok {
		reserved = big.NewInt(0)
	}

	available := new(big.Int).Sub(onChain, reserved)
	if available.Cmp(value) < 0 {
		return ErrInsufficientEscrow
	}

	h.reserved[key] = new(big.Int).Add(reserved, value)
	return nil
}

func (h *RPCHandler) VerifySigner(_ context.Context, address eth.Address) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.acceptedSigners[address.Pretty()], nil
}

var _ Handler = (*RPCHandler)(nil)
