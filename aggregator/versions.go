package aggregator

import (
	"github.com/streamingfast/eth-go"
	"go.uber.org/zap"

	"github.com/semiotic-ai/tap-core/eip712"
	"github.com/semiotic-ai/tap-core/receipt"
)

// V1 is the allocation-keyed aggregator entry point.
type V1 = Aggregator[*receipt.ReceiptV1, *receipt.RAVv1]

// V2 is the collection-keyed ("Horizon") aggregator entry point. v1 and v2
// are never mixed in a single call: each gets its own Aggregator value
// parameterised over its own receipt/RAV types.
type V2 = Aggregator[*receipt.ReceiptV2, *receipt.RAVv2]

// NewV1 builds a v1 aggregator signing under domain with signerKey.
func NewV1(domain *eip712.Domain, signerKey *eth.PrivateKey, acceptedSigners []eth.Address, logger *zap.Logger) *V1 {
	return New[*receipt.ReceiptV1, *receipt.RAVv1](domain, signerKey, acceptedSigners, receipt.AggregateReceiptsV1, logger)
}

// NewV2 builds a v2 ("Horizon") aggregator signing under domain with
// signerKey.
func NewV2(domain *eip712.Domain, signerKey *eth.PrivateKey, acceptedSigners []eth.Address, logger *zap.Logger) *V2 {
	return New[*receipt.ReceiptV2, *receipt.RAVv2](domain, signerKey, acceptedSigners, receipt.AggregateReceiptsV2, logger)
}
