/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nspcc-dev/ckb-multisig/cli/input"
	"github.com/nspcc-dev/ckb-multisig/pkg/config"
	"github.com/nspcc-dev/ckb-multisig/pkg/config/netmode"
	"github.com/nspcc-dev/ckb-multisig/pkg/core/dao"
	"github.com/nspcc-dev/ckb-multisig/pkg/core/storage"
	"github.com/nspcc-dev/ckb-multisig/pkg/crypto/keys"
	"github.com/nspcc-dev/ckb-multisig/pkg/rpcclient"
	"github.com/nspcc-dev/ckb-multisig/pkg/services/cosigner"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RPCEndpointFlag is a long flag name for an RPC endpoint. It can be used to
// check for flag presence in the context.
const RPCEndpointFlag = "rpc-endpoint"

// Network is a set of flags for choosing the network to operate on
// (mainnet/testnet).
var Network = []cli.Flag{
	cli.BoolFlag{Name: "mainnet, m", Usage: "use mainnet network configuration (if --config-file option is not specified)"},
	cli.BoolFlag{Name: "testnet, t", Usage: "use testnet network configuration (if --config-file option is not specified)"},
}

// RPC is a set of flags used for RPC connections (endpoint and timeout).
var RPC = []cli.Flag{
	cli.StringFlag{
		Name:  RPCEndpointFlag + ", r",
		Usage: "RPC node address (overrides configuration)",
	},
	cli.DurationFlag{
		Name:  "timeout, s",
		Usage: "Timeout for a single RPC request (overrides configuration)",
	},
}

// Config is a flag for commands that use configuration.
var Config = cli.StringFlag{
	Name:  "config-path",
	Usage: "path to directory with per-network configuration files (may be overridden by --config-file option for the configuration file)",
}

// ConfigFile is a flag for commands that use configuration and provide
// path to the specific config file instead of config path.
var ConfigFile = cli.StringFlag{
	Name:  "config-file",
	Usage: "path to the configuration file (overrides --config-path option)",
}

// Debug is a flag for commands that allow debug logging.
var Debug = cli.BoolFlag{
	Name:  "debug, d",
	Usage: "enable debug logging (overrides configuration)",
}

// KeyFile is a flag for commands that sign with a private key.
var KeyFile = cli.StringFlag{
	Name:  "key-file, k",
	Usage: "file with hex-encoded private key (prompted for if not given)",
}

// Common is a set of flags used by all commands working with the database.
var Common = append([]cli.Flag{Config, ConfigFile, Debug}, Network...)

var errNoNetwork = errors.New("--mainnet and --testnet flags conflict")

// GetNetwork examines Context's flags and returns the appropriate network. It
// defaults to MainNet if no flags are given.
func GetNetwork(ctx *cli.Context) (netmode.Network, error) {
	if ctx.Bool("testnet") && ctx.Bool("mainnet") {
		return "", errNoNetwork
	}
	if ctx.Bool("testnet") {
		return netmode.TestNet, nil
	}
	return netmode.MainNet, nil
}

// GetConfigFromContext looks at the path and the mode flags in the given
// context and returns an appropriate config. Defaults are used if there is no
// configuration file for the network.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	net, err := GetNetwork(ctx)
	if err != nil {
		return config.Config{}, err
	}
	var cfg config.Config
	if configFile := ctx.String("config-file"); len(configFile) != 0 {
		cfg, err = config.LoadFile(configFile)
	} else {
		var configPath = config.DefaultConfigPath
		if argCp := ctx.String("config-path"); argCp != "" {
			configPath = argCp
		}
		cfg, err = config.Load(configPath, net)
		if errors.Is(err, os.ErrNotExist) && !ctx.IsSet("config-path") {
			cfg = config.Default()
			cfg.ApplicationConfiguration.Network = net
			err = nil
		}
	}
	if err != nil {
		return config.Config{}, err
	}
	if ctx.Bool("testnet") {
		cfg.ApplicationConfiguration.Network = netmode.TestNet
	}
	if ctx.Bool("mainnet") {
		cfg.ApplicationConfiguration.Network = netmode.MainNet
	}
	if endpoint := ctx.String(RPCEndpointFlag); endpoint != "" {
		cfg.ApplicationConfiguration.RPC.Endpoint = endpoint
	}
	if timeout := ctx.Duration("timeout"); timeout != 0 {
		cfg.ApplicationConfiguration.RPC.Timeout = timeout
	}
	return cfg, nil
}

// HandleLoggingParams reads logging parameters.
// If a user selected debug level -- function enables it.
// If logPath is configured -- function creates a dir and a file for logging.
func HandleLoggingParams(debug bool, cfg config.ApplicationConfiguration) (*zap.Logger, *zap.AtomicLevel, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)
	if len(cfg.LogLevel) > 0 {
		level, err = zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil

	if logPath := cfg.LogPath; logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("could not create dir for logger: %w", err)
		}
		cc.OutputPaths = []string{logPath}
	}

	log, err := cc.Build()
	return log, &cc.Level, err
}

// GetTimeoutContext returns a context.Context with the user-set overall
// timeout, it's not limited if no timeout is given.
func GetTimeoutContext(dur time.Duration) (context.Context, func()) {
	if dur == 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), dur)
}

// Service is the co-signing service along with its resources.
type Service struct {
	*cosigner.Service
	Config config.ApplicationConfiguration
	Log    *zap.Logger

	store  storage.Store
	client *rpcclient.Client
}

// Close releases resources of the service.
func (s *Service) Close() {
	if s.client != nil {
		s.client.Close()
	}
	if err := s.store.Close(); err != nil {
		s.Log.Warn("failed to close the DB", zap.Error(err))
	}
	_ = s.Log.Sync()
}

// GetService creates the co-signing service using the configuration from the
// context.
func GetService(ctx *cli.Context) (*Service, cli.ExitCoder) {
	cfg, err := GetConfigFromContext(ctx)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	appCfg := cfg.ApplicationConfiguration
	log, _, err := HandleLoggingParams(ctx.Bool("debug"), appCfg)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	store, err := storage.NewStore(appCfg.DBConfiguration)
	if err != nil {
		return nil, cli.NewExitError(fmt.Errorf("could not initialize storage: %w", err), 1)
	}
	d, err := dao.NewSimple(store)
	if err != nil {
		_ = store.Close()
		return nil, cli.NewExitError(err, 1)
	}
	s := &Service{Config: appCfg, Log: log, store: store}
	svcCfg := cosigner.Config{
		Log:           log,
		CacheSize:     appCfg.CacheSize,
		AddressPrefix: appCfg.Network.AddressPrefix(),
	}
	if appCfg.RPC.Endpoint != "" {
		s.client, err = rpcclient.New(context.Background(), appCfg.RPC.Endpoint, rpcclient.Options{
			RequestTimeout: appCfg.RPC.Timeout,
			PollInterval:   appCfg.RPC.PollInterval,
		})
		if err != nil {
			_ = store.Close()
			return nil, cli.NewExitError(err, 1)
		}
		svcCfg.Node = s.client
	}
	s.Service = cosigner.New(svcCfg, d)
	return s, nil
}

// ParseHash parses the transaction hash given as the first command argument.
func ParseHash(ctx *cli.Context) (util.Uint256, cli.ExitCoder) {
	if ctx.NArg() != 1 {
		return util.Uint256{}, cli.NewExitError("transaction hash is expected as the only argument", 1)
	}
	h, err := util.Uint256DecodeString(ctx.Args().First())
	if err != nil {
		return util.Uint256{}, cli.NewExitError(fmt.Errorf("invalid transaction hash: %w", err), 1)
	}
	return h, nil
}

// GetPrivateKey reads the private key from the file given in the context or
// asks for it.
func GetPrivateKey(ctx *cli.Context) (*keys.PrivateKey, error) {
	var (
		s   string
		err error
	)
	if path := ctx.String("key-file"); path != "" {
		var data []byte
		data, err = os.ReadFile(path)
		s = string(data)
	} else {
		s, err = input.ReadPassword("Enter private key > ")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}
	priv, err := keys.NewPrivateKeyFromHex(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return priv, nil
}
