// Package config loads the YAML configuration a Manager or Aggregator
// deployment needs at startup: domain separator parameters, the accepted
// signer set, and the tunables governing RAV request assembly.
package config

import (
	"fmt"
	"os"

	"github.com/streamingfast/eth-go"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for a tap-core deployment. Fields
// are YAML-tagged with snake_case names; AcceptedSigners and
// VerifyingContract are hex-string addresses on disk, parsed into
// eth.Address at Load time.
type Config struct {
	// ChainID is the EIP-712 domain's chainId.
	ChainID uint64 `yaml:"chain_id"`

	// VerifyingContractStr is the domain's verifyingContract, as a hex
	// string; use VerifyingContract after Load.
	VerifyingContractStr string      `yaml:"verifying_contract"`
	VerifyingContract    eth.Address `yaml:"-"`

	// AcceptedSignerStrs lists hex addresses authorised to sign receipts
	// (senders) or RAVs (aggregators); use AcceptedSigners after Load.
	AcceptedSignerStrs []string      `yaml:"accepted_signers"`
	AcceptedSigners    []eth.Address `yaml:"-"`

	// TimestampBufferNs is subtracted from the current wall clock to get
	// CreateRAVRequest's upper timestamp bound, giving in-flight receipts
	// time to land before a window closes over them.
	TimestampBufferNs uint64 `yaml:"timestamp_buffer_ns"`

	// ReceiptLimit bounds how many receipts a single CreateRAVRequest call
	// retrieves; zero means unbounded.
	ReceiptLimit uint64 `yaml:"receipt_limit"`

	// RAVRequestInterval is how often a Scheduler assembles and ships a RAV
	// request, expressed in seconds.
	RAVRequestIntervalSeconds uint64 `yaml:"rav_request_interval_seconds"`
}

// Load reads and parses a Config from the YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse parses a Config from YAML bytes, resolving hex address strings into
// eth.Address values.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.VerifyingContractStr != "" {
		addr, err := eth.NewAddress(cfg.VerifyingContractStr)
		if err != nil {
			return nil, fmt.Errorf("invalid verifying_contract: %w", err)
		}
		cfg.VerifyingContract = addr
	}

	cfg.AcceptedSigners = make([]eth.Address, 0, len(cfg.AcceptedSignerStrs))
	for _, s := range cfg.AcceptedSignerStrs {
		addr, err := eth.NewAddress(s)
		if err != nil {
			return nil, fmt.Errorf("invalid accepted signer %q: %w", s, err)
		}
		cfg.AcceptedSigners = append(cfg.AcceptedSigners, addr)
	}

	return &cfg, nil
}
