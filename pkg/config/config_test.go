package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nspcc-dev/ckb-multisig/pkg/config/netmode"
	"github.com/nspcc-dev/ckb-multisig/pkg/core/storage/dbconfig"
	"github.com/stretchr/testify/require"
)

const testConfigPath = "../../config"

func TestUnexpectedNetwork(t *testing.T) {
	_, err := Load(testConfigPath, netmode.Network("devnet"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	for _, net := range []netmode.Network{netmode.MainNet, netmode.TestNet} {
		cfg, err := Load(testConfigPath, net)
		require.NoError(t, err, net)
		require.Equal(t, net, cfg.ApplicationConfiguration.Network)
		require.Equal(t, dbconfig.BoltDB, cfg.ApplicationConfiguration.DBConfiguration.Type)
		require.NotEmpty(t, cfg.ApplicationConfiguration.RPC.Endpoint)
	}
}

func writeConfig(t *testing.T, content string) string {
	p := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, `ApplicationConfiguration:
  Network: testnet
  RPC:
    Endpoint: "http://node:8114"
`))
	require.NoError(t, err)
	a := cfg.ApplicationConfiguration
	require.Equal(t, netmode.TestNet, a.Network)
	require.Equal(t, "http://node:8114", a.RPC.Endpoint)
	require.Equal(t, DefaultRPCTimeout, a.RPC.Timeout)
	require.Equal(t, DefaultPollInterval, a.RPC.PollInterval)
	require.Equal(t, DefaultCacheSize, a.CacheSize)
	require.Equal(t, "info", a.LogLevel)
}

func TestLoadFileOverrides(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, `ApplicationConfiguration:
  LogLevel: debug
  CacheSize: 8
  DBConfiguration:
    Type: inmemory
  RPC:
    Timeout: 30s
    PollInterval: 1s
`))
	require.NoError(t, err)
	a := cfg.ApplicationConfiguration
	require.Equal(t, "debug", a.LogLevel)
	require.Equal(t, 8, a.CacheSize)
	require.Equal(t, dbconfig.InMemoryDB, a.DBConfiguration.Type)
	require.Equal(t, 30*time.Second, a.RPC.Timeout)
	require.Equal(t, time.Second, a.RPC.PollInterval)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)

	_, err = LoadFile(writeConfig(t, "ApplicationConfiguration:\n  Unknown: 1\n"))
	require.Error(t, err)

	_, err = LoadFile(writeConfig(t, "ApplicationConfiguration:\n  Network: devnet\n"))
	require.Error(t, err)

	_, err = LoadFile(writeConfig(t, "ApplicationConfiguration:\n  DBConfiguration:\n    Type: leveldb\n"))
	require.Error(t, err)

	_, err = LoadFile(writeConfig(t, "ApplicationConfiguration:\n  CacheSize: -1\n"))
	require.Error(t, err)
}
