// Package receipt defines the signed receipt and RAV wire shapes for both
// protocol versions, their typestate lifecycle, and the check framework a
// Manager runs against them before folding a batch into a RAV.
package receipt

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/streamingfast/eth-go"

	"github.com/semiotic-ai/tap-core/eip712"
)

// MaxUint128 is the maximum value representable in the protocol's u128
// fields. Aggregation that would exceed it fails with ErrAggregateOverflow.
var MaxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// CollectionID is the 32-byte v2 grouping key, derived on-chain from an
// allocation id but opaque to this package.
type CollectionID [32]byte

func (c CollectionID) MarshalJSON() ([]byte, error) {
	return json.Marshal(eth.Hash(c[:]).Pretty())
}

func (c *CollectionID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	h := eth.MustNewHash(s)
	copy(c[:], h)
	return nil
}

// ReceiptV1 is the allocation-keyed receipt shape.
type ReceiptV1 struct {
	AllocationID eth.Address `json:"allocation_id"`
	TimestampNs  uint64      `json:"timestamp_ns"`
	Nonce        uint64      `json:"nonce"`
	Value        *big.Int    `json:"value"`
}

// NewReceiptV1 stamps the current wall clock and a fresh random nonce onto a
// new receipt for allocationID. Returns ErrInvalidSystemTime if the system
// clock reports a time before the Unix epoch.
func NewReceiptV1(allocationID eth.Address, value *big.Int) (*ReceiptV1, error) {
	ts, err := nowUnixNano()
	if err != nil {
		return nil, err
	}
	return &ReceiptV1{
		AllocationID: allocationID,
		TimestampNs:  ts,
		Nonce:        randomUint64(),
		Value:        new(big.Int).Set(value),
	}, nil
}

// RAVv1 is the allocation-keyed Receipt Aggregate Voucher.
type RAVv1 struct {
	AllocationID   eth.Address `json:"allocationId"`
	TimestampNs    uint64      `json:"timestampNs"`
	ValueAggregate *big.Int    `json:"valueAggregate"`
}

// ReceiptV2 is the collection-keyed ("Horizon") receipt shape.
type ReceiptV2 struct {
	CollectionID    CollectionID `json:"collection_id"`
	Payer           eth.Address  `json:"payer"`
	DataService     eth.Address  `json:"data_service"`
	ServiceProvider eth.Address  `json:"service_provider"`
	TimestampNs     uint64       `json:"timestamp_ns"`
	Nonce           uint64       `json:"nonce"`
	Value           *big.Int     `json:"value"`
}

// NewReceiptV2 stamps the current wall clock and a fresh random nonce onto a
// new v2 receipt.
func NewReceiptV2(
	collectionID CollectionID,
	payer, dataService, serviceProvider eth.Address,
	value *big.Int,
) (*ReceiptV2, error) {
	ts, err := nowUnixNano()
	if err != nil {
		return nil, err
	}
	return &ReceiptV2{
		CollectionID:    collectionID,
		Payer:           payer,
		DataService:     dataService,
		ServiceProvider: serviceProvider,
		TimestampNs:     ts,
		Nonce:           randomUint64(),
		Value:           new(big.Int).Set(value),
	}, nil
}

// RAVv2 is the collection-keyed Receipt Aggregate Voucher. Metadata is
// opaque to this package; only its keccak256 digest is EIP-712 encoded.
type RAVv2 struct {
	CollectionID    CollectionID `json:"collectionId"`
	Payer           eth.Address  `json:"payer"`
	ServiceProvider eth.Address  `json:"serviceProvider"`
	DataService     eth.Address  `json:"dataService"`
	TimestampNs     uint64       `json:"timestampNs"`
	ValueAggregate  *big.Int     `json:"valueAggregate"`
	Metadata        []byte       `json:"metadata"`
}

func nowUnixNano() (uint64, error) {
	now := time.Now().UnixNano()
	if now < 0 {
		return 0, fmt.Errorf("%w: system clock reports a time before the Unix epoch", ErrInvalidSystemTime)
	}
	return uint64(now), nil
}

func randomUint64() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}

var _ eip712.EIP712Encodable = (*ReceiptV1)(nil)
var _ eip712.EIP712Encodable = (*RAVv1)(nil)
var _ eip712.EIP712Encodable = (*ReceiptV2)(nil)
var _ eip712.EIP712Encodable = (*RAVv2)(nil)
