package receipt

// State is the marker type parameter of ReceiptWithState: Checking, Checked,
// or Failed. It carries no behaviour; it exists purely so the compiler
// tracks which lifecycle stage a receipt is in.
type State interface {
	isReceiptState()
}

// Checking marks a receipt that has been received but not yet committed to
// Checked or Failed. Receipts are stored in this state.
type Checking struct{}

func (Checking) isReceiptState() {}

// Checked marks a receipt that passed every check in its pipeline and is
// eligible to be folded into a RAV.
type Checked struct{}

func (Checked) isReceiptState() {}

// Failed marks a receipt that failed at least one check. Err records the
// first failure encountered.
type Failed struct {
	Err error
}

func (Failed) isReceiptState() {}
