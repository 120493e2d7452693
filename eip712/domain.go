// Package eip712 implements the EIP-712 typed-data signing and recovery
// machinery shared by every receipt and RAV version the protocol defines.
package eip712

import (
	"math/big"

	"github.com/streamingfast/eth-go"
)

// Domain is an EIP-712 domain separator. The protocol pins name to "TAP";
// version ("1" or "2") distinguishes the receipt/RAV wire shape, not the
// software release.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract eth.Address
}

// NewDomain builds a domain separator for the given chain and verifying
// contract. Most callers should use the version-specific constructors in
// package receipt (NewDomainV1/NewDomainV2) instead of calling this directly.
func NewDomain(name, version string, chainID uint64, verifyingContract eth.Address) *Domain {
	return &Domain{
		Name:              name,
		Version:           version,
		ChainID:           new(big.Int).SetUint64(chainID),
		VerifyingContract: verifyingContract,
	}
}

var eip712DomainTypeHash = keccak256([]byte(
	"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))

// Separator computes the EIP-712 domain separator hash.
func (d *Domain) Separator() eth.Hash {
	encoded := make([]byte, 0, 32*5)
	encoded = append(encoded, eip712DomainTypeHash[:]...)
	encoded = append(encoded, keccak256([]byte(d.Name))[:]...)
	encoded = append(encoded, keccak256([]byte(d.Version))[:]...)
	encoded = append(encoded, padLeft(d.ChainID.Bytes(), 32)...)
	encoded = append(encoded, padLeft(d.VerifyingContract[:], 32)...)
	return keccak256(encoded)
}
