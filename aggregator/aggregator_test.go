package aggregator

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/streamingfast/eth-go"
	"github.com/stretchr/testify/require"

	"github.com/semiotic-ai/tap-core/eip712"
	"github.com/semiotic-ai/tap-core/receipt"
)

func v2Fixture(t *testing.T) (*eip712.Domain, *eth.PrivateKey, eth.Address, *eth.PrivateKey) {
	t.Helper()
	verifyingContract := eth.MustNewAddress("0x1234567890123456789012345678901234567890")
	domain := receipt.NewDomainV2(1, verifyingContract)

	senderKey, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)
	aggregatorKey, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)

	return domain, senderKey, senderKey.PublicKey().Address(), aggregatorKey
}

func TestAggregator_SimpleAggregation(t *testing.T) {
	domain, senderKey, senderAddr, aggregatorKey := v2Fixture(t)
	agg := NewV2(domain, aggregatorKey, []eth.Address{senderAddr}, nil)

	var collectionID receipt.CollectionID
	dataService := eth.MustNewAddress("0x2222222222222222222222222222222222222222")
	serviceProvider := eth.MustNewAddress("0x3333333333333333333333333333333333333333")

	var signed []*eip712.SignedMessage[*receipt.ReceiptV2]
	totalValue := big.NewInt(0)
	base := uint64(time.Now().UnixNano())

	for i := 0; i < 5; i++ {
		value := big.NewInt(int64(100 + i*10))
		r := &receipt.ReceiptV2{
			CollectionID:    collectionID,
			Payer:           senderAddr,
			DataService:     dataService,
			ServiceProvider: serviceProvider,
			TimestampNs:     base + uint64(i),
			Nonce:           uint64(i),
			Value:           value,
		}
		s, err := eip712.Sign(domain, r, senderKey)
		require.NoError(t, err)
		signed = append(signed, s)
		totalValue.Add(totalValue, value)
	}

	rav, err := agg.CheckAndAggregate(context.Background(), signed, nil)
	require.NoError(t, err)
	require.Equal(t, 0, totalValue.Cmp(rav.Message.ValueAggregate))

	ravSigner, err := rav.RecoverSigner(domain)
	require.NoError(t, err)
	require.Equal(t, aggregatorKey.PublicKey().Address(), ravSigner)
}

func TestAggregator_IncrementalAggregation(t *testing.T) {
	domain, senderKey, senderAddr, aggregatorKey := v2Fixture(t)
	agg := NewV2(domain, aggregatorKey, []eth.Address{senderAddr, aggregatorKey.PublicKey().Address()}, nil)

	var collectionID receipt.CollectionID
	dataService := eth.MustNewAddress("0x2222222222222222222222222222222222222222")
	serviceProvider := eth.MustNewAddress("0x3333333333333333333333333333333333333333")
	base := uint64(time.Now().UnixNano())

	var batch1 []*eip712.SignedMessage[*receipt.ReceiptV2]
	for i := 0; i < 3; i++ {
		r := &receipt.ReceiptV2{
			CollectionID: collectionID, Payer: senderAddr, DataService: dataService, ServiceProvider: serviceProvider,
			TimestampNs: base + uint64(i), Nonce: uint64(i), Value: big.NewInt(100),
		}
		s, err := eip712.Sign(domain, r, senderKey)
		require.NoError(t, err)
		batch1 = append(batch1, s)
	}

	rav1, err := agg.CheckAndAggregate(context.Background(), batch1, nil)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(300), rav1.Message.ValueAggregate)

	var batch2 []*eip712.SignedMessage[*receipt.ReceiptV2]
	for i := 0; i < 2; i++ {
		r := &receipt.ReceiptV2{
			CollectionID: collectionID, Payer: senderAddr, DataService: dataService, ServiceProvider: serviceProvider,
			TimestampNs: rav1.Message.TimestampNs + uint64(i) + 1, Nonce: uint64(100 + i), Value: big.NewInt(200),
		}
		s, err := eip712.Sign(domain, r, senderKey)
		require.NoError(t, err)
		batch2 = append(batch2, s)
	}

	rav2, err := agg.CheckAndAggregate(context.Background(), batch2, rav1)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(700), rav2.Message.ValueAggregate)
	require.Greater(t, rav2.Message.TimestampNs, rav1.Message.TimestampNs)
}

func TestAggregator_MalleableSignatureReplay(t *testing.T) {
	// A receipt and its malleable twin (r, n-s, v^1) must normalise to the
	// same unique id and be rejected as a duplicate, even though the raw
	// signature bytes differ.
	domain, senderKey, senderAddr, aggregatorKey := v2Fixture(t)
	agg := NewV2(domain, aggregatorKey, []eth.Address{senderAddr}, nil)

	var collectionID receipt.CollectionID
	r := &receipt.ReceiptV2{
		CollectionID:    collectionID,
		Payer:           senderAddr,
		DataService:     eth.MustNewAddress("0x2222222222222222222222222222222222222222"),
		ServiceProvider: eth.MustNewAddress("0x3333333333333333333333333333333333333333"),
		TimestampNs:     uint64(time.Now().UnixNano()),
		Nonce:           1,
		Value:           big.NewInt(100),
	}
	signed, err := eip712.Sign(domain, r, senderKey)
	require.NoError(t, err)

	malleable := *signed
	malleable.Signature = malleableTwin(signed.Signature)

	_, err = agg.CheckAndAggregate(context.Background(), []*eip712.SignedMessage[*receipt.ReceiptV2]{signed, &malleable}, nil)
	require.Error(t, err)
	var dup *DuplicateReceiptSignatureError
	require.ErrorAs(t, err, &dup)
}

func TestAggregator_InvalidTimestampRegression(t *testing.T) {
	domain, senderKey, senderAddr, aggregatorKey := v2Fixture(t)
	agg := NewV2(domain, aggregatorKey, []eth.Address{senderAddr, aggregatorKey.PublicKey().Address()}, nil)

	var collectionID receipt.CollectionID
	dataService := eth.MustNewAddress("0x2222222222222222222222222222222222222222")
	serviceProvider := eth.MustNewAddress("0x3333333333333333333333333333333333333333")
	base := uint64(time.Now().UnixNano())

	r1 := &receipt.ReceiptV2{CollectionID: collectionID, Payer: senderAddr, DataService: dataService, ServiceProvider: serviceProvider,
		TimestampNs: base, Nonce: 1, Value: big.NewInt(100)}
	s1, err := eip712.Sign(domain, r1, senderKey)
	require.NoError(t, err)

	rav1, err := agg.CheckAndAggregate(context.Background(), []*eip712.SignedMessage[*receipt.ReceiptV2]{s1}, nil)
	require.NoError(t, err)

	r2 := &receipt.ReceiptV2{CollectionID: collectionID, Payer: senderAddr, DataService: dataService, ServiceProvider: serviceProvider,
		TimestampNs: rav1.Message.TimestampNs, Nonce: 2, Value: big.NewInt(100)}
	s2, err := eip712.Sign(domain, r2, senderKey)
	require.NoError(t, err)

	_, err = agg.CheckAndAggregate(context.Background(), []*eip712.SignedMessage[*receipt.ReceiptV2]{s2}, rav1)
	var tsErr *ReceiptTimestampLowerThanRAVError
	require.ErrorAs(t, err, &tsErr)
}

func TestAggregator_UnauthorizedSigner(t *testing.T) {
	domain, _, _, aggregatorKey := v2Fixture(t)
	authorizedKey, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)
	unauthorizedKey, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)

	agg := NewV2(domain, aggregatorKey, []eth.Address{authorizedKey.PublicKey().Address()}, nil)

	r := &receipt.ReceiptV2{
		Payer:           unauthorizedKey.PublicKey().Address(),
		DataService:     eth.MustNewAddress("0x2222222222222222222222222222222222222222"),
		ServiceProvider: eth.MustNewAddress("0x3333333333333333333333333333333333333333"),
		TimestampNs:     uint64(time.Now().UnixNano()),
		Nonce:           1,
		Value:           big.NewInt(100),
	}
	signed, err := eip712.Sign(domain, r, unauthorizedKey)
	require.NoError(t, err)

	_, err = agg.CheckAndAggregate(context.Background(), []*eip712.SignedMessage[*receipt.ReceiptV2]{signed}, nil)
	var sigErr *InvalidRecoveredSignerError
	require.ErrorAs(t, err, &sigErr)
}

func TestAggregator_GroupKeyNotUniform(t *testing.T) {
	domain, senderKey, senderAddr, aggregatorKey := v2Fixture(t)
	agg := NewV2(domain, aggregatorKey, []eth.Address{senderAddr}, nil)

	var collectionID1, collectionID2 receipt.CollectionID
	copy(collectionID1[:], eth.MustNewHash("0x1111111111111111111111111111111111111111111111111111111111111111")[:])
	copy(collectionID2[:], eth.MustNewHash("0x2222222222222222222222222222222222222222222222222222222222222222")[:])

	dataService := eth.MustNewAddress("0x2222222222222222222222222222222222222222")
	serviceProvider := eth.MustNewAddress("0x3333333333333333333333333333333333333333")
	base := uint64(time.Now().UnixNano())

	r1 := &receipt.ReceiptV2{CollectionID: collectionID1, Payer: senderAddr, DataService: dataService, ServiceProvider: serviceProvider,
		TimestampNs: base, Nonce: 1, Value: big.NewInt(100)}
	r2 := &receipt.ReceiptV2{CollectionID: collectionID2, Payer: senderAddr, DataService: dataService, ServiceProvider: serviceProvider,
		TimestampNs: base + 1, Nonce: 2, Value: big.NewInt(100)}

	s1, err := eip712.Sign(domain, r1, senderKey)
	require.NoError(t, err)
	s2, err := eip712.Sign(domain, r2, senderKey)
	require.NoError(t, err)

	_, err = agg.CheckAndAggregate(context.Background(), []*eip712.SignedMessage[*receipt.ReceiptV2]{s1, s2}, nil)
	require.ErrorIs(t, err, ErrGroupKeyNotUniform)
}

func TestAggregator_AggregateOverflow(t *testing.T) {
	domain, senderKey, senderAddr, aggregatorKey := v2Fixture(t)
	agg := NewV2(domain, aggregatorKey, []eth.Address{senderAddr}, nil)

	var collectionID receipt.CollectionID
	dataService := eth.MustNewAddress("0x2222222222222222222222222222222222222222")
	serviceProvider := eth.MustNewAddress("0x3333333333333333333333333333333333333333")
	base := uint64(time.Now().UnixNano())

	r1 := &receipt.ReceiptV2{CollectionID: collectionID, Payer: senderAddr, DataService: dataService, ServiceProvider: serviceProvider,
		TimestampNs: base, Nonce: 1, Value: new(big.Int).Set(receipt.MaxUint128)}
	r2 := &receipt.ReceiptV2{CollectionID: collectionID, Payer: senderAddr, DataService: dataService, ServiceProvider: serviceProvider,
		TimestampNs: base + 1, Nonce: 2, Value: big.NewInt(1)}

	s1, err := eip712.Sign(domain, r1, senderKey)
	require.NoError(t, err)
	s2, err := eip712.Sign(domain, r2, senderKey)
	require.NoError(t, err)

	_, err = agg.CheckAndAggregate(context.Background(), []*eip712.SignedMessage[*receipt.ReceiptV2]{s1, s2}, nil)
	require.ErrorIs(t, err, receipt.ErrAggregateOverflow)
}

func TestAggregator_NoReceipts(t *testing.T) {
	domain, _, senderAddr, aggregatorKey := v2Fixture(t)
	agg := NewV2(domain, aggregatorKey, []eth.Address{senderAddr}, nil)

	_, err := agg.CheckAndAggregate(context.Background(), []*eip712.SignedMessage[*receipt.ReceiptV2]{}, nil)
	require.ErrorIs(t, err, ErrNoValidReceiptsForRAVRequest)
}

// malleableTwin returns sig's malleable counterpart (r, n-s, v^1): the same
// message validates under both, but the raw bytes differ. eth.Signature is
// laid out V || R || S.
func malleableTwin(sig eth.Signature) eth.Signature {
	var secp256k1N, _ = new(big.Int).SetString(
		"FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)

	var out eth.Signature
	copy(out[:], sig[:])

	s := new(big.Int).SetBytes(sig[33:65])
	newS := new(big.Int).Sub(secp256k1N, s)

	for i := 33; i < 65; i++ {
		out[i] = 0
	}
	sBytes := newS.Bytes()
	copy(out[65-len(sBytes):65], sBytes)
	out[0] ^= 1

	return out
}
