package eip712

import (
	"math/big"
	"testing"

	"github.com/streamingfast/eth-go"
	"github.com/stretchr/testify/require"
)

func TestSignAndRecoverSigner(t *testing.T) {
	verifyingContract := eth.MustNewAddress("0x1234567890123456789012345678901234567890")
	domain := NewDomain("TAP", "1", 1, verifyingContract)

	key, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)
	expectedSigner := key.PublicKey().Address()

	signed, err := Sign(domain, &testMessage{value: big.NewInt(1000)}, key)
	require.NoError(t, err)

	recoveredSigner, err := signed.RecoverSigner(domain)
	require.NoError(t, err)
	require.Equal(t, expectedSigner, recoveredSigner)
}

func TestNormalizeSignature(t *testing.T) {
	// Build a signature with a high-S value by hand: V at byte 0, R at
	// bytes 1..33, S at bytes 33..65.
	var highSSig eth.Signature
	highSSig[0] = 0

	r := big.NewInt(12345)
	rBytes := r.Bytes()
	copy(highSSig[33-len(rBytes):33], rBytes)

	s := new(big.Int).Add(secp256k1HalfN, big.NewInt(100))
	sBytes := s.Bytes()
	copy(highSSig[65-len(sBytes):65], sBytes)

	normalized := normalizeSignature(highSSig)

	expectedS := new(big.Int).Sub(secp256k1N, s)
	normalizedS := new(big.Int).SetBytes(normalized[33:65])
	require.Equal(t, 0, expectedS.Cmp(normalizedS))

	require.Equal(t, byte(1), normalized[0])
	require.Equal(t, highSSig[1:33], normalized[1:33])
}

func TestUniqueID_MalleableTwinsCollide(t *testing.T) {
	verifyingContract := eth.MustNewAddress("0x1234567890123456789012345678901234567890")
	domain := NewDomain("TAP", "1", 1, verifyingContract)

	key, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)

	signed, err := Sign(domain, &testMessage{value: big.NewInt(42)}, key)
	require.NoError(t, err)

	twin := *signed
	s := new(big.Int).SetBytes(signed.Signature[33:65])
	flipped := new(big.Int).Sub(secp256k1N, s)
	for i := 33; i < 65; i++ {
		twin.Signature[i] = 0
	}
	fBytes := flipped.Bytes()
	copy(twin.Signature[65-len(fBytes):65], fBytes)
	twin.Signature[0] ^= 1

	require.NotEqual(t, signed.Signature, twin.Signature)
	require.Equal(t, signed.UniqueID(), twin.UniqueID())
	require.True(t, SignaturesEqual(signed.Signature, twin.Signature))
}

func TestSignaturesEqual_DistinctMessagesDiffer(t *testing.T) {
	verifyingContract := eth.MustNewAddress("0x1234567890123456789012345678901234567890")
	domain := NewDomain("TAP", "1", 1, verifyingContract)

	key, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)

	s1, err := Sign(domain, &testMessage{value: big.NewInt(1)}, key)
	require.NoError(t, err)
	s2, err := Sign(domain, &testMessage{value: big.NewInt(2)}, key)
	require.NoError(t, err)

	require.False(t, SignaturesEqual(s1.Signature, s2.Signature))
}
