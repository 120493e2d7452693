package eip712

import (
	"fmt"

	"github.com/streamingfast/eth-go"
)

// SignedMessage pairs a message with its 65-byte EIP-712 signature over that
// message under some domain. T is whatever a caller wants signed: a receipt
// or a RAV, in either protocol version.
type SignedMessage[T EIP712Encodable] struct {
	Message   T             `json:"message"`
	Signature eth.Signature `json:"signature"`
}

// Sign computes the EIP-712 signing hash of message under domain and signs
// it with key.
func Sign[T EIP712Encodable](domain *Domain, message T, key *eth.PrivateKey) (*SignedMessage[T], error) {
	messageHash := HashTypedData(domain, message)

	sig, err := key.Sign(messageHash)
	if err != nil {
		return nil, fmt.Errorf("signing message: %w", err)
	}

	return &SignedMessage[T]{
		Message:   message,
		Signature: sig,
	}, nil
}

// RecoverSigner recomputes the signing hash under domain and recovers the
// address that produced sm.Signature.
func (sm *SignedMessage[T]) RecoverSigner(domain *Domain) (eth.Address, error) {
	messageHash := HashTypedData(domain, sm.Message)
	return sm.Signature.Recover(messageHash)
}

// UniqueID returns the normalised (low-S) signature bytes. This is the only
// comparison used to detect duplicate/replayed receipts and RAVs.
func (sm *SignedMessage[T]) UniqueID() [65]byte {
	return normalizeSignature(sm.Signature)
}
