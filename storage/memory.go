package storage

import (
	"context"
	"sync"

	"github.com/semiotic-ai/tap-core/eip712"
	"github.com/semiotic-ai/tap-core/receipt"
)

// MemoryReceiptStorage is an in-memory ReceiptStore/ReceiptRead/ReceiptDelete
// fixture, the kind of thing a database-backed adapter replaces in
// production. Receipt ids are monotonically increasing and never reused,
// matching the `receipts(id u64 primary, ...)` layout the protocol assumes.
type MemoryReceiptStorage[T receipt.Fields] struct {
	mu       sync.RWMutex
	nextID   uint64
	receipts map[uint64]*receipt.ReceiptWithState[receipt.Checking, T]
}

func NewMemoryReceiptStorage[T receipt.Fields]() *MemoryReceiptStorage[T] {
	return &MemoryReceiptStorage[T]{
		receipts: make(map[uint64]*receipt.ReceiptWithState[receipt.Checking, T]),
	}
}

func (s *MemoryReceiptStorage[T]) StoreReceipt(_ context.Context, r *receipt.ReceiptWithState[receipt.Checking, T]) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.receipts[id] = r
	return id, nil
}

func (s *MemoryReceiptStorage[T]) RetrieveReceiptsInTimestampRange(_ context.Context, minNs, maxNs uint64, limit uint64) ([]*receipt.ReceiptWithState[receipt.Checking, T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]*receipt.ReceiptWithState[receipt.Checking, T], 0, len(s.receipts))
	for _, r := range s.receipts {
		ts := r.SignedReceipt.Message.Timestamp()
		if ts >= minNs && ts < maxNs {
			matches = append(matches, r)
		}
	}

	if limit > 0 {
		matches = SafeTruncateReceipts(matches, limit)
	}
	return matches, nil
}

func (s *MemoryReceiptStorage[T]) RemoveReceiptsInTimestampRange(_ context.Context, maxNs uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.receipts {
		if r.SignedReceipt.Message.Timestamp() <= maxNs {
			delete(s.receipts, id)
		}
	}
	return nil
}

// MemoryRAVStorage is an in-memory single-slot RavStore/RavRead fixture:
// one RAV per sender, matching the `rav_slot(sender primary, ...)` layout.
type MemoryRAVStorage[R receipt.RAVFields] struct {
	mu  sync.RWMutex
	rav *eip712.SignedMessage[R]
}

func NewMemoryRAVStorage[R receipt.RAVFields]() *MemoryRAVStorage[R] {
	return &MemoryRAVStorage[R]{}
}

func (s *MemoryRAVStorage[R]) UpdateLastRAV(_ context.Context, rav *eip712.SignedMessage[R]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rav = rav
	return nil
}

func (s *MemoryRAVStorage[R]) LastRAV(_ context.Context) (*eip712.SignedMessage[R], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rav, nil
}

var (
	_ ReceiptStore[receipt.Fields] = (*MemoryReceiptStorage[receipt.Fields])(nil)
	_ ReceiptRead[receipt.Fields]  = (*MemoryReceiptStorage[receipt.Fields])(nil)
	_ ReceiptDelete                = (*MemoryReceiptStorage[receipt.Fields])(nil)
	_ RavStore[receipt.RAVFields]  = (*MemoryRAVStorage[receipt.RAVFields])(nil)
	_ RavRead[receipt.RAVFields]   = (*MemoryRAVStorage[receipt.RAVFields])(nil)
)
