package receipt

import (
	"math/big"

	"github.com/semiotic-ai/tap-core/eip712"
)

// Fields is the common surface the Manager and check framework need from any
// receipt version, without caring which version it is. GroupKey returns a
// comparable value identifying the service relationship the receipt belongs
// to (an allocation id in v1, the collection/payer/data-service/provider
// quadruple in v2); the Manager and UniqueCheck never need to know its shape.
type Fields interface {
	eip712.EIP712Encodable
	Timestamp() uint64
	Amount() *big.Int
	GroupKey() any
}

// RAVFields is the RAV-side equivalent of Fields.
type RAVFields interface {
	eip712.EIP712Encodable
	Timestamp() uint64
	Aggregate() *big.Int
	GroupKey() any
}

// groupKeyV1 is the comparable group key for allocation-keyed receipts/RAVs.
// eth.Address is a byte slice, so addresses are folded in as their canonical
// hex form to keep the key usable with ==.
type groupKeyV1 struct {
	AllocationID string
}

// groupKeyV2 is the comparable group key for collection-keyed receipts/RAVs.
type groupKeyV2 struct {
	CollectionID    CollectionID
	Payer           string
	DataService     string
	ServiceProvider string
}

func (r *ReceiptV1) Timestamp() uint64 { return r.TimestampNs }
func (r *ReceiptV1) Amount() *big.Int  { return r.Value }
func (r *ReceiptV1) GroupKey() any     { return groupKeyV1{AllocationID: r.AllocationID.Pretty()} }

func (r *RAVv1) Timestamp() uint64   { return r.TimestampNs }
func (r *RAVv1) Aggregate() *big.Int { return r.ValueAggregate }
func (r *RAVv1) GroupKey() any       { return groupKeyV1{AllocationID: r.AllocationID.Pretty()} }

func (r *ReceiptV2) Timestamp() uint64 { return r.TimestampNs }
func (r *ReceiptV2) Amount() *big.Int  { return r.Value }
func (r *ReceiptV2) GroupKey() any {
	return groupKeyV2{
		CollectionID:    r.CollectionID,
		Payer:           r.Payer.Pretty(),
		DataService:     r.DataService.Pretty(),
		ServiceProvider: r.ServiceProvider.Pretty(),
	}
}

func (r *RAVv2) Timestamp() uint64   { return r.TimestampNs }
func (r *RAVv2) Aggregate() *big.Int { return r.ValueAggregate }
func (r *RAVv2) GroupKey() any {
	return groupKeyV2{
		CollectionID:    r.CollectionID,
		Payer:           r.Payer.Pretty(),
		DataService:     r.DataService.Pretty(),
		ServiceProvider: r.ServiceProvider.Pretty(),
	}
}

var _ Fields = (*ReceiptV1)(nil)
var _ Fields = (*ReceiptV2)(nil)
var _ RAVFields = (*RAVv1)(nil)
var _ RAVFields = (*RAVv2)(nil)
