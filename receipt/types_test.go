package receipt

import (
	"math/big"
	"testing"

	"github.com/streamingfast/eth-go"
	"github.com/stretchr/testify/require"
)

func TestNewReceiptV1(t *testing.T) {
	allocationID := eth.MustNewAddress("0xabababababababababababababababababababab")
	r1, err := NewReceiptV1(allocationID, big.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, allocationID, r1.AllocationID)
	require.NotZero(t, r1.TimestampNs)

	r2, err := NewReceiptV1(allocationID, big.NewInt(100))
	require.NoError(t, err)
	require.NotEqual(t, r1.Nonce, r2.Nonce, "nonces should be randomly distinct across calls")
}

func TestNewReceiptV2(t *testing.T) {
	var collectionID CollectionID
	collectionID[0] = 0x11
	payer := eth.MustNewAddress("0x1111111111111111111111111111111111111111")
	dataService := eth.MustNewAddress("0x2222222222222222222222222222222222222222")
	serviceProvider := eth.MustNewAddress("0x3333333333333333333333333333333333333333")

	r, err := NewReceiptV2(collectionID, payer, dataService, serviceProvider, big.NewInt(50))
	require.NoError(t, err)
	require.Equal(t, payer, r.Payer)
	require.Equal(t, dataService, r.DataService)
	require.Equal(t, serviceProvider, r.ServiceProvider)
	require.NotZero(t, r.TimestampNs)
}

func TestGroupKey_V1(t *testing.T) {
	allocA := eth.MustNewAddress("0xabababababababababababababababababababab")
	allocB := eth.MustNewAddress("0xcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcd")

	r1 := &ReceiptV1{AllocationID: allocA, TimestampNs: 1, Nonce: 1, Value: big.NewInt(1)}
	r2 := &ReceiptV1{AllocationID: allocA, TimestampNs: 2, Nonce: 2, Value: big.NewInt(2)}
	r3 := &ReceiptV1{AllocationID: allocB, TimestampNs: 3, Nonce: 3, Value: big.NewInt(3)}

	require.Equal(t, r1.GroupKey(), r2.GroupKey())
	require.NotEqual(t, r1.GroupKey(), r3.GroupKey())
}

func TestGroupKey_V2(t *testing.T) {
	payer := eth.MustNewAddress("0x1111111111111111111111111111111111111111")
	dataService := eth.MustNewAddress("0x2222222222222222222222222222222222222222")
	serviceProvider := eth.MustNewAddress("0x3333333333333333333333333333333333333333")
	otherPayer := eth.MustNewAddress("0x4444444444444444444444444444444444444444")

	var cid CollectionID
	cid[0] = 1

	r1 := &ReceiptV2{CollectionID: cid, Payer: payer, DataService: dataService, ServiceProvider: serviceProvider, TimestampNs: 1, Value: big.NewInt(1)}
	r2 := &ReceiptV2{CollectionID: cid, Payer: payer, DataService: dataService, ServiceProvider: serviceProvider, TimestampNs: 2, Value: big.NewInt(2)}
	r3 := &ReceiptV2{CollectionID: cid, Payer: otherPayer, DataService: dataService, ServiceProvider: serviceProvider, TimestampNs: 3, Value: big.NewInt(3)}

	require.Equal(t, r1.GroupKey(), r2.GroupKey())
	require.NotEqual(t, r1.GroupKey(), r3.GroupKey())
}
