package escrow

import (
	"context"
	"math/big"
	"testing"

	"github.com/streamingfast/eth-go"
	"github.com/stretchr/testify/require"

	"github.com/semiotic-ai/tap-core/eip712"
	"github.com/semiotic-ai/tap-core/receipt"
)

func TestCheck_PassesWithSufficientEscrow(t *testing.T) {
	verifyingContract := eth.MustNewAddress("0x1234567890123456789012345678901234567890")
	domain := receipt.NewDomainV1(1, verifyingContract)

	senderKey, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)
	sender := senderKey.PublicKey().Address()

	handler := NewMemoryHandler(nil)
	handler.Deposit(sender, big.NewInt(1000))

	r, err := receipt.NewReceiptV1(eth.MustNewAddress("0xabababababababababababababababababababab"), big.NewInt(500))
	require.NoError(t, err)
	signed, err := eip712.Sign(domain, r, senderKey)
	require.NoError(t, err)

	check := NewCheck[*receipt.ReceiptV1](handler)
	checkErr := check.Check(context.Background(), signed, domain)
	require.Nil(t, checkErr)

	balance, err := handler.GetAvailableEscrow(context.Background(), sender)
	require.NoError(t, err)
	require.Equal(t, int64(500), balance.Int64())
}

func TestCheck_FailsOnEscrowExhaustion(t *testing.T) {
	verifyingContract := eth.MustNewAddress("0x1234567890123456789012345678901234567890")
	domain := receipt.NewDomainV1(1, verifyingContract)

	senderKey, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)
	sender := senderKey.PublicKey().Address()

	handler := NewMemoryHandler(nil)
	handler.Deposit(sender, big.NewInt(500))

	r, err := receipt.NewReceiptV1(eth.MustNewAddress("0xabababababababababababababababababababab"), big.NewInt(501))
	require.NoError(t, err)
	signed, err := eip712.Sign(domain, r, senderKey)
	require.NoError(t, err)

	check := NewCheck[*receipt.ReceiptV1](handler)
	checkErr := check.Check(context.Background(), signed, domain)
	require.NotNil(t, checkErr)
	require.False(t, checkErr.Retryable)
	require.ErrorIs(t, checkErr, receipt.ErrSubtractEscrowFailed)
}
