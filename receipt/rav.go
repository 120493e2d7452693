package receipt

import "errors"

// ErrAggregateOverflow is returned when a u128 aggregate sum would exceed
// MaxUint128.
var ErrAggregateOverflow = errors.New("aggregate value exceeds uint128 range")

// ErrNoValidReceiptsForRAVRequest is returned when an aggregation is
// attempted over an empty receipt batch, whether or not a previous RAV
// exists.
var ErrNoValidReceiptsForRAVRequest = errors.New("no valid receipts to aggregate")

// AggregateFunc computes a new RAV of type R from a batch of receipts of
// type T and an optional previous RAV. It stands in for the single-method
// Aggregate trait the protocol describes: a plain function value is enough
// here, and it lets v1 and v2 share every other piece of the Manager and
// Aggregator without an extra interface. R is itself a pointer type
// (*RAVv1/*RAVv2), so previousRAV == nil is how "no previous RAV" is spelled.
type AggregateFunc[T Fields, R RAVFields] func(receipts []T, previousRAV R) (R, error)
