package manager

import "fmt"

// TimestampRangeError is returned by CreateRAVRequest when the computed
// lower bound of the retrieval window exceeds its upper bound: the
// timestamp buffer is larger than the time elapsed since the last RAV, so
// no window can be safely assembled yet.
type TimestampRangeError struct {
	Min uint64
	Max uint64
}

func (e *TimestampRangeError) Error() string {
	return fmt.Sprintf("invalid timestamp range: min %d is greater than max %d", e.Min, e.Max)
}

// InvalidReceivedRAVError is returned by VerifyAndStoreRAV when the RAV
// returned by the aggregator does not byte-match the Manager's own expected
// RAV.
type InvalidReceivedRAVError[R any] struct {
	Received R
	Expected R
}

func (e *InvalidReceivedRAVError[R]) Error() string {
	return fmt.Sprintf("received RAV %+v does not match expected RAV %+v", e.Received, e.Expected)
}
