package main

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/streamingfast/cli/sflags"
	"github.com/streamingfast/eth-go"
	. "github.com/streamingfast/cli"

	"github.com/semiotic-ai/tap-core/aggregator"
	"github.com/semiotic-ai/tap-core/eip712"
	"github.com/semiotic-ai/tap-core/escrow"
	"github.com/semiotic-ai/tap-core/manager"
	"github.com/semiotic-ai/tap-core/receipt"
	"github.com/semiotic-ai/tap-core/storage"
)

type demoStoreCtx struct {
	*storage.MemoryReceiptStorage[*receipt.ReceiptV1]
	*storage.MemoryRAVStorage[*receipt.RAVv1]
}

var demoCmd = Command(
	runDemo,
	"demo",
	"Run an in-memory end-to-end v1 receipt/RAV scenario",
	Description(`
		Generates a sender key and an aggregator key, issues a batch of
		signed v1 receipts against an in-memory escrow balance, assembles a
		RAV request with a Manager, aggregates and signs it with an
		Aggregator, and verifies and stores the result back on the Manager.

		This mirrors the receiver/aggregator split the protocol describes,
		without any network transport between them.
	`),
	Flags(func(flags *pflag.FlagSet) {
		flags.Uint64("receipt-count", 10, "Number of receipts to issue")
		flags.Uint64("value-per-receipt", 45, "Value of each receipt")
		flags.Uint64("escrow-balance", 1_000_000, "Initial escrow balance for the sender")
	}),
)

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	runID := uuid.New()
	fmt.Printf("run: %s\n", runID)

	receiptCount := sflags.MustGetUint64(cmd, "receipt-count")
	valuePerReceipt := sflags.MustGetUint64(cmd, "value-per-receipt")
	escrowBalance := sflags.MustGetUint64(cmd, "escrow-balance")

	verifyingContract := eth.MustNewAddress("0x1234567890123456789012345678901234567890")
	allocationID := eth.MustNewAddress("0xabababababababababababababababababababab")
	domain := receipt.NewDomainV1(1, verifyingContract)

	senderKey, err := eth.NewRandomPrivateKey()
	if err != nil {
		return fmt.Errorf("generating sender key: %w", err)
	}
	aggregatorKey, err := eth.NewRandomPrivateKey()
	if err != nil {
		return fmt.Errorf("generating aggregator key: %w", err)
	}
	senderAddr := senderKey.PublicKey().Address()
	aggregatorAddr := aggregatorKey.PublicKey().Address()

	fmt.Printf("sender:     %s\n", senderAddr.Pretty())
	fmt.Printf("aggregator: %s\n", aggregatorAddr.Pretty())

	escrowHandler := escrow.NewMemoryHandler([]eth.Address{senderAddr, aggregatorAddr})
	escrowHandler.Deposit(senderAddr, new(big.Int).SetUint64(escrowBalance))

	mgr := manager.New[*receipt.ReceiptV1, *receipt.RAVv1](
		domain,
		&demoStoreCtx{
			storage.NewMemoryReceiptStorage[*receipt.ReceiptV1](),
			storage.NewMemoryRAVStorage[*receipt.RAVv1](),
		},
		escrowHandler,
		receipt.CheckList[*receipt.ReceiptV1]{escrow.NewCheck[*receipt.ReceiptV1](escrowHandler)},
		receipt.AggregateReceiptsV1,
		nil,
	)

	baseTs := uint64(time.Now().UnixNano())
	var maxTs uint64
	for i := uint64(0); i < receiptCount; i++ {
		ts := baseTs + i
		maxTs = ts
		r := &receipt.ReceiptV1{
			AllocationID: allocationID,
			TimestampNs:  ts,
			Nonce:        ts,
			Value:        new(big.Int).SetUint64(valuePerReceipt),
		}
		signed, err := eip712.Sign(domain, r, senderKey)
		if err != nil {
			return fmt.Errorf("signing receipt %d: %w", i, err)
		}
		if _, err := mgr.VerifyAndStoreReceipt(ctx, signed); err != nil {
			return fmt.Errorf("storing receipt %d: %w", i, err)
		}
	}
	fmt.Printf("issued %d receipts of value %d each\n", receiptCount, valuePerReceipt)

	request, err := mgr.CreateRAVRequest(ctx, maxTs+1, 0, 0)
	if err != nil {
		return fmt.Errorf("creating RAV request: %w", err)
	}
	fmt.Printf("RAV request: %d valid, %d invalid\n", len(request.ValidReceipts), len(request.InvalidReceipts))

	agg := aggregator.NewV1(domain, aggregatorKey, []eth.Address{senderAddr, aggregatorAddr}, nil)

	signedReceipts := make([]*eip712.SignedMessage[*receipt.ReceiptV1], len(request.ValidReceipts))
	for i, r := range request.ValidReceipts {
		signedReceipts[i] = r.SignedReceipt
	}

	signedRAV, err := agg.CheckAndAggregate(ctx, signedReceipts, request.PreviousRAV)
	if err != nil {
		return fmt.Errorf("aggregating: %w", err)
	}

	if err := mgr.VerifyAndStoreRAV(ctx, request.ExpectedRAV, signedRAV); err != nil {
		return fmt.Errorf("verifying and storing RAV: %w", err)
	}

	if err := mgr.RemoveObsoleteReceipts(ctx); err != nil {
		return fmt.Errorf("evicting obsolete receipts: %w", err)
	}

	fmt.Printf("RAV accepted: value_aggregate=%s timestamp_ns=%d\n",
		signedRAV.Message.ValueAggregate.String(), signedRAV.Message.TimestampNs)
	return nil
}
