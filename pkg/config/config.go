package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nspcc-dev/ckb-multisig/pkg/config/netmode"
	"github.com/nspcc-dev/ckb-multisig/pkg/core/storage/dbconfig"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is the default path to the config directory.
	DefaultConfigPath = "./config"

	// DefaultRPCTimeout is the default RPC request timeout.
	DefaultRPCTimeout = 10 * time.Second
	// DefaultPollInterval is the default interval between transaction status
	// requests.
	DefaultPollInterval = 3 * time.Second
	// DefaultCacheSize is the default number of envelopes kept in memory.
	DefaultCacheSize = 64
)

// Version is the version of the tool, set at build time.
var Version string

// Config is the top-level struct representing the config file.
type Config struct {
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// ApplicationConfiguration contains settings of the application.
type ApplicationConfiguration struct {
	DBConfiguration dbconfig.DBConfiguration `yaml:"DBConfiguration"`
	LogLevel        string                   `yaml:"LogLevel"`
	LogPath         string                   `yaml:"LogPath"`
	Network         netmode.Network          `yaml:"Network"`
	RPC             RPC                      `yaml:"RPC"`
	// CacheSize is the number of envelopes kept in memory by the co-signing
	// service.
	CacheSize int `yaml:"CacheSize"`
}

// RPC is the CKB node connection configuration.
type RPC struct {
	Endpoint     string        `yaml:"Endpoint"`
	Timeout      time.Duration `yaml:"Timeout"`
	PollInterval time.Duration `yaml:"PollInterval"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ApplicationConfiguration: ApplicationConfiguration{
			DBConfiguration: dbconfig.DBConfiguration{
				Type: dbconfig.BoltDB,
				BoltDBOptions: dbconfig.BoltDBOptions{
					FilePath: "./data/multisig.bolt",
				},
			},
			LogLevel:  "info",
			Network:   netmode.MainNet,
			CacheSize: DefaultCacheSize,
			RPC: RPC{
				Endpoint:     "http://127.0.0.1:8114",
				Timeout:      DefaultRPCTimeout,
				PollInterval: DefaultPollInterval,
			},
		},
	}
}

// Load attempts to load the config from the given path for the given network.
func Load(path string, net netmode.Network) (Config, error) {
	return LoadFile(filepath.Join(path, fmt.Sprintf("ckb.%s.yml", net)))
}

// LoadFile loads config from the provided path. Missing settings get their
// default values.
func LoadFile(configPath string) (Config, error) {
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}

	config := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(configData))
	decoder.KnownFields(true)
	err = decoder.Decode(&config)
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	err = config.ApplicationConfiguration.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks ApplicationConfiguration for internal consistency and
// returns an error if any invalid settings are found.
func (a *ApplicationConfiguration) Validate() error {
	switch a.DBConfiguration.Type {
	case dbconfig.BoltDB:
		if a.DBConfiguration.BoltDBOptions.FilePath == "" {
			return fmt.Errorf("invalid DBConfiguration: empty BoltDB file path")
		}
	case dbconfig.InMemoryDB:
	default:
		return fmt.Errorf("invalid DBConfiguration: unknown type %q", a.DBConfiguration.Type)
	}
	if a.CacheSize <= 0 {
		return fmt.Errorf("invalid CacheSize: %d", a.CacheSize)
	}
	if a.RPC.Timeout < 0 || a.RPC.PollInterval < 0 {
		return fmt.Errorf("invalid RPC: negative duration")
	}
	return nil
}
