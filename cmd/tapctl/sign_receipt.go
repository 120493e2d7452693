package main

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/streamingfast/cli"
	. "github.com/streamingfast/cli"
	"github.com/streamingfast/cli/sflags"
	"github.com/streamingfast/eth-go"

	"github.com/semiotic-ai/tap-core/eip712"
	"github.com/semiotic-ai/tap-core/receipt"
)

var signReceiptCmd = Command(
	runSignReceipt,
	"sign-receipt",
	"Sign a v1 (allocation-keyed) receipt and print the signed JSON",
	Description(`
		Builds a fresh v1 receipt for the given allocation and value, signs it
		under the given EIP-712 domain with a freshly generated key, and
		prints both the signer address and the signed receipt as JSON.
	`),
	Flags(func(flags *pflag.FlagSet) {
		flags.Uint64("chain-id", 1, "Chain ID for the EIP-712 domain")
		flags.String("verifying-contract", "", "Verifying contract address for the EIP-712 domain (required)")
		flags.String("allocation-id", "", "Allocation ID for the receipt (required)")
		flags.Uint64("value", 0, "Receipt value")
	}),
)

func runSignReceipt(cmd *cobra.Command, args []string) error {
	chainID := sflags.MustGetUint64(cmd, "chain-id")
	verifyingContractHex := sflags.MustGetString(cmd, "verifying-contract")
	allocationHex := sflags.MustGetString(cmd, "allocation-id")
	value := sflags.MustGetUint64(cmd, "value")

	cli.Ensure(verifyingContractHex != "", "<verifying-contract> is required")
	verifyingContract, err := eth.NewAddress(verifyingContractHex)
	cli.NoError(err, "invalid <verifying-contract> %q", verifyingContractHex)

	cli.Ensure(allocationHex != "", "<allocation-id> is required")
	allocationID, err := eth.NewAddress(allocationHex)
	cli.NoError(err, "invalid <allocation-id> %q", allocationHex)

	key, err := eth.NewRandomPrivateKey()
	if err != nil {
		return fmt.Errorf("generating signer key: %w", err)
	}

	domain := receipt.NewDomainV1(chainID, verifyingContract)
	r, err := receipt.NewReceiptV1(allocationID, new(big.Int).SetUint64(value))
	if err != nil {
		return fmt.Errorf("building receipt: %w", err)
	}

	signed, err := eip712.Sign(domain, r, key)
	if err != nil {
		return fmt.Errorf("signing receipt: %w", err)
	}

	out, err := json.MarshalIndent(signed, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling signed receipt: %w", err)
	}

	fmt.Printf("signer: %s\n", key.PublicKey().Address().Pretty())
	fmt.Println(string(out))
	return nil
}
