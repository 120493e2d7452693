package eip712

import (
	"encoding/binary"
	"math/big"

	"github.com/streamingfast/eth-go"
)

// EIP712Encodable is implemented by any message that can be EIP-712 hashed:
// a receipt or a RAV, in either protocol version.
type EIP712Encodable interface {
	EIP712TypeHash() eth.Hash
	EIP712EncodeData() []byte
}

// HashTypedData computes the EIP-712 signing hash:
// keccak256(0x1901 || domainSeparator || hashStruct(message)).
func HashTypedData(domain *Domain, message EIP712Encodable) eth.Hash {
	structHash := hashStruct(message)
	domainSep := domain.Separator()

	data := make([]byte, 0, 2+32+32)
	data = append(data, 0x19, 0x01)
	data = append(data, domainSep[:]...)
	data = append(data, structHash[:]...)

	return keccak256(data)
}

func hashStruct(message EIP712Encodable) eth.Hash {
	typeHash := message.EIP712TypeHash()
	encodedData := message.EIP712EncodeData()

	data := make([]byte, 0, 32+len(encodedData))
	data = append(data, typeHash[:]...)
	data = append(data, encodedData...)

	return keccak256(data)
}

func keccak256(data []byte) eth.Hash {
	return eth.Keccak256(data)
}

// PadLeft left-pads b with zero bytes to size, or returns the rightmost
// `size` bytes of b if it is already longer. Exported because receipt's
// EIP712EncodeData implementations use it for every address/bytes32 field.
func PadLeft(b []byte, size int) []byte {
	return padLeft(b, size)
}

func padLeft(b []byte, size int) []byte {
	if len(b) >= size {
		return b[len(b)-size:]
	}
	result := make([]byte, size)
	copy(result[size-len(b):], b)
	return result
}

// EncodeUint64 ABI-encodes a uint64 as a 32-byte big-endian word.
func EncodeUint64(v uint64) []byte {
	result := make([]byte, 32)
	binary.BigEndian.PutUint64(result[24:], v)
	return result
}

// EncodeUint128 ABI-encodes a uint128 (represented as *big.Int) as a 32-byte
// big-endian word. A nil value encodes as zero.
func EncodeUint128(v *big.Int) []byte {
	result := make([]byte, 32)
	if v != nil {
		b := v.Bytes()
		copy(result[32-len(b):], b)
	}
	return result
}

// Keccak256 hashes arbitrary bytes; exposed for callers that need the
// keccak256(bytes) encoding rule for a `bytes` field (e.g. v2 RAV metadata).
func Keccak256(data []byte) eth.Hash {
	return keccak256(data)
}
