package netmode

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestAddressPrefix(t *testing.T) {
	require.Equal(t, "ckb", MainNet.AddressPrefix())
	require.Equal(t, "ckt", TestNet.AddressPrefix())
}

func TestUnmarshalYAML(t *testing.T) {
	var cfg struct {
		Network Network `yaml:"Network"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("Network: mainnet"), &cfg))
	require.Equal(t, MainNet, cfg.Network)

	require.Error(t, yaml.Unmarshal([]byte("Network: devnet"), &cfg))
}
