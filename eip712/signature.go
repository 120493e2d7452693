package eip712

import (
	"math/big"

	"github.com/streamingfast/eth-go"
)

// secp256k1 curve order N
var secp256k1N, _ = new(big.Int).SetString(
	"FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)
var secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)

// normalizeSignature returns sig in low-S canonical form. secp256k1 admits
// two valid signatures per message, (r, s, v) and (r, n-s, v^1); comparing
// raw signature bytes would let a replaying attacker dodge a uniqueness
// check by resubmitting the malleable twin.
//
// eth.Signature lays out its 65 bytes as V || R || S: the recovery id is
// byte 0, R is bytes 1..33, S is bytes 33..65.
func normalizeSignature(sig eth.Signature) [65]byte {
	var result [65]byte
	copy(result[:], sig[:])

	s := new(big.Int).SetBytes(sig[33:65])

	// If S > N/2, replace with N - S and flip V
	if s.Cmp(secp256k1HalfN) > 0 {
		s = new(big.Int).Sub(secp256k1N, s)
		sBytes := s.Bytes()
		for i := 33; i < 65; i++ {
			result[i] = 0
		}
		copy(result[65-len(sBytes):65], sBytes)
		result[0] ^= 1
	}

	return result
}

// SignaturesEqual compares two signatures after low-S normalisation.
func SignaturesEqual(a, b eth.Signature) bool {
	return normalizeSignature(a) == normalizeSignature(b)
}
