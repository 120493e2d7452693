package receipt

import "math/big"

// AggregateReceiptsV1 folds valid v1 receipts and an optional previous RAV
// into a new RAV: value_aggregate is the checked sum of every contributing
// value on top of the previous aggregate, timestamp_ns is the max timestamp
// seen. Callers must already have validated group-key uniformity; this
// function assumes every receipt and the previous RAV (if any) share the
// same allocation id. An empty receipt batch is an error even when a
// previous RAV exists: a RAV that adds nothing supersedes nothing.
func AggregateReceiptsV1(receipts []*ReceiptV1, previousRAV *RAVv1) (*RAVv1, error) {
	if len(receipts) == 0 {
		return nil, ErrNoValidReceiptsForRAVRequest
	}

	valueAggregate := big.NewInt(0)
	var timestampMax uint64
	allocationID := receipts[0].AllocationID

	if previousRAV != nil {
		valueAggregate = new(big.Int).Set(previousRAV.ValueAggregate)
		timestampMax = previousRAV.TimestampNs
		allocationID = previousRAV.AllocationID
	}

	for _, r := range receipts {
		next := new(big.Int).Add(valueAggregate, r.Value)
		if next.Cmp(MaxUint128) > 0 {
			return nil, ErrAggregateOverflow
		}
		valueAggregate = next

		if r.TimestampNs > timestampMax {
			timestampMax = r.TimestampNs
		}
	}

	return &RAVv1{
		AllocationID:   allocationID,
		TimestampNs:    timestampMax,
		ValueAggregate: valueAggregate,
	}, nil
}

// AggregateReceiptsV2 is the v2 (collection-keyed) equivalent of
// AggregateReceiptsV1. The new RAV's Metadata is always empty: the protocol
// leaves metadata semantics to the caller/aggregator, and this Manager-side
// expectation never originates one.
func AggregateReceiptsV2(receipts []*ReceiptV2, previousRAV *RAVv2) (*RAVv2, error) {
	if len(receipts) == 0 {
		return nil, ErrNoValidReceiptsForRAVRequest
	}

	valueAggregate := big.NewInt(0)
	var timestampMax uint64
	first := *receipts[0]

	if previousRAV != nil {
		valueAggregate = new(big.Int).Set(previousRAV.ValueAggregate)
		timestampMax = previousRAV.TimestampNs
		first.CollectionID = previousRAV.CollectionID
		first.Payer = previousRAV.Payer
		first.DataService = previousRAV.DataService
		first.ServiceProvider = previousRAV.ServiceProvider
	}

	for _, r := range receipts {
		next := new(big.Int).Add(valueAggregate, r.Value)
		if next.Cmp(MaxUint128) > 0 {
			return nil, ErrAggregateOverflow
		}
		valueAggregate = next

		if r.TimestampNs > timestampMax {
			timestampMax = r.TimestampNs
		}
	}

	return &RAVv2{
		CollectionID:    first.CollectionID,
		Payer:           first.Payer,
		DataService:     first.DataService,
		ServiceProvider: first.ServiceProvider,
		TimestampNs:     timestampMax,
		ValueAggregate:  valueAggregate,
		Metadata:        []byte{},
	}, nil
}

var (
	_ AggregateFunc[*ReceiptV1, *RAVv1] = AggregateReceiptsV1
	_ AggregateFunc[*ReceiptV2, *RAVv2] = AggregateReceiptsV2
)
