package receipt

import (
	"github.com/streamingfast/eth-go"

	"github.com/semiotic-ai/tap-core/eip712"
)

// EIP-712 type hashes, pre-computed once per process. Field order here is
// the wire order: it must match EIP712EncodeData exactly or signatures will
// fail to recover against an off-chain verifier using the canonical strings.
var (
	receiptV1TypeHash = eip712.Keccak256([]byte(
		"Receipt(address allocation_id,uint64 timestamp_ns,uint64 nonce,uint128 value)"))

	ravV1TypeHash = eip712.Keccak256([]byte(
		"ReceiptAggregateVoucher(address allocationId,uint64 timestampNs,uint128 valueAggregate)"))

	receiptV2TypeHash = eip712.Keccak256([]byte(
		"Receipt(bytes32 collection_id,address payer,address data_service,address service_provider,uint64 timestamp_ns,uint64 nonce,uint128 value)"))

	ravV2TypeHash = eip712.Keccak256([]byte(
		"ReceiptAggregateVoucher(bytes32 collectionId,address payer,address serviceProvider,address dataService,uint64 timestampNs,uint128 valueAggregate,bytes metadata)"))
)

// NewDomainV1 builds the EIP-712 domain for v1 (allocation-keyed) receipts
// and RAVs. The protocol pins the domain name to "TAP".
func NewDomainV1(chainID uint64, verifyingContract eth.Address) *eip712.Domain {
	return eip712.NewDomain("TAP", "1", chainID, verifyingContract)
}

// NewDomainV2 builds the EIP-712 domain for v2 (collection-keyed) receipts
// and RAVs. The domain name stays "TAP"; only the version distinguishes the
// wire shapes.
func NewDomainV2(chainID uint64, verifyingContract eth.Address) *eip712.Domain {
	return eip712.NewDomain("TAP", "2", chainID, verifyingContract)
}

func (r *ReceiptV1) EIP712TypeHash() eth.Hash { return receiptV1TypeHash }

func (r *ReceiptV1) EIP712EncodeData() []byte {
	encoded := make([]byte, 0, 32*4)
	encoded = append(encoded, eip712.PadLeft(r.AllocationID[:], 32)...)
	encoded = append(encoded, eip712.EncodeUint64(r.TimestampNs)...)
	encoded = append(encoded, eip712.EncodeUint64(r.Nonce)...)
	encoded = append(encoded, eip712.EncodeUint128(r.Value)...)
	return encoded
}

func (r *RAVv1) EIP712TypeHash() eth.Hash { return ravV1TypeHash }

func (r *RAVv1) EIP712EncodeData() []byte {
	encoded := make([]byte, 0, 32*3)
	encoded = append(encoded, eip712.PadLeft(r.AllocationID[:], 32)...)
	encoded = append(encoded, eip712.EncodeUint64(r.TimestampNs)...)
	encoded = append(encoded, eip712.EncodeUint128(r.ValueAggregate)...)
	return encoded
}

func (r *ReceiptV2) EIP712TypeHash() eth.Hash { return receiptV2TypeHash }

func (r *ReceiptV2) EIP712EncodeData() []byte {
	encoded := make([]byte, 0, 32*7)
	encoded = append(encoded, r.CollectionID[:]...)
	encoded = append(encoded, eip712.PadLeft(r.Payer[:], 32)...)
	encoded = append(encoded, eip712.PadLeft(r.DataService[:], 32)...)
	encoded = append(encoded, eip712.PadLeft(r.ServiceProvider[:], 32)...)
	encoded = append(encoded, eip712.EncodeUint64(r.TimestampNs)...)
	encoded = append(encoded, eip712.EncodeUint64(r.Nonce)...)
	encoded = append(encoded, eip712.EncodeUint128(r.Value)...)
	return encoded
}

func (r *RAVv2) EIP712TypeHash() eth.Hash { return ravV2TypeHash }

func (r *RAVv2) EIP712EncodeData() []byte {
	encoded := make([]byte, 0, 32*7)
	encoded = append(encoded, r.CollectionID[:]...)
	encoded = append(encoded, eip712.PadLeft(r.Payer[:], 32)...)
	encoded = append(encoded, eip712.PadLeft(r.ServiceProvider[:], 32)...)
	encoded = append(encoded, eip712.PadLeft(r.DataService[:], 32)...)
	encoded = append(encoded, eip712.EncodeUint64(r.TimestampNs)...)
	encoded = append(encoded, eip712.EncodeUint128(r.ValueAggregate)...)
	encoded = append(encoded, eip712.Keccak256(r.Metadata)[:]...)
	return encoded
}
