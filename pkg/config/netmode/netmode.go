package netmode

import (
	"fmt"

	"github.com/nspcc-dev/ckb-multisig/pkg/encoding/address"
)

const (
	// MainNet is the CKB main network (Mirana).
	MainNet Network = "mainnet"
	// TestNet is the CKB testing network (Pudge).
	TestNet Network = "testnet"
)

// Network describes the CKB network addresses are generated for.
type Network string

// String implements the stringer interface.
func (n Network) String() string {
	return string(n)
}

// AddressPrefix returns the human-readable part of addresses used in the
// network.
func (n Network) AddressPrefix() string {
	if n == MainNet {
		return address.PrefixMainnet
	}
	return address.PrefixTestnet
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (n *Network) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return n.Set(s)
}

// Set parses the network name.
func (n *Network) Set(s string) error {
	switch Network(s) {
	case MainNet, TestNet:
		*n = Network(s)
		return nil
	default:
		return fmt.Errorf("unknown network %q", s)
	}
}
