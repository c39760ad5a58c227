package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/nspcc-dev/ckb-multisig/pkg/core/transaction"
	"github.com/nspcc-dev/ckb-multisig/pkg/encoding/address"
	"github.com/nspcc-dev/ckb-multisig/pkg/envelope"
	"github.com/nspcc-dev/ckb-multisig/pkg/multisig"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

// CkbCliTx is the transaction file of ckb-cli (tx.json). It records
// signatures by lock args without telling who made them.
type CkbCliTx struct {
	Transaction     *transaction.Transaction              `json:"transaction"`
	MultisigConfigs map[util.Uint160]CkbCliMultisigConfig `json:"multisig_configs"`
	Signatures      map[util.Uint160][]multisig.Signature `json:"signatures"`
}

// CkbCliMultisigConfig is a multisig config of ckb-cli, signers are given by
// their secp256k1 addresses.
type CkbCliMultisigConfig struct {
	SighashAddresses []string `json:"sighash_addresses"`
	RequireFirstN    byte     `json:"require_first_n"`
	Threshold        byte     `json:"threshold"`
}

// Config converts c into multisig config.
func (c *CkbCliMultisigConfig) Config() (multisig.Config, error) {
	cfg := multisig.Config{
		RequireFirstN: c.RequireFirstN,
		Threshold:     c.Threshold,
		Signers:       make([]util.Uint160, len(c.SighashAddresses)),
	}
	for i, addr := range c.SighashAddresses {
		pkh, err := address.DecodeSecp256k1(addr)
		if err != nil {
			return cfg, fmt.Errorf("signer #%d: %w", i, err)
		}
		cfg.Signers[i] = pkh
	}
	return cfg, cfg.Validate()
}

func decodeCkbCli(data []byte) (*CkbCliTx, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for _, k := range []string{"transaction", "multisig_configs", "signatures"} {
		if _, ok := fields[k]; !ok {
			return nil, fmt.Errorf("no %q field", k)
		}
	}
	tx := new(CkbCliTx)
	if err := json.Unmarshal(data, tx); err != nil {
		return nil, err
	}
	if tx.Transaction == nil {
		return nil, errors.New("null transaction")
	}
	return tx, nil
}

// ParseCkbCli decodes ckb-cli tx.json. Multisig configs become lock actions,
// signatures go to the pending pool as they are not attributed.
func ParseCkbCli(data []byte) (*envelope.Envelope, error) {
	ctx, err := decodeCkbCli(data)
	if err != nil {
		return nil, err
	}
	e := envelope.New(ctx.Transaction)
	cfgs, err := ctx.configs()
	if err != nil {
		return nil, err
	}
	for _, cfg := range cfgs {
		if err := e.AddMultisigConfig(cfg); err != nil {
			return nil, err
		}
	}
	for _, args := range sortedArgs(ctx.Signatures) {
		for _, sig := range ctx.Signatures[args] {
			e.Pending.Add(args, sig)
		}
	}
	return e, nil
}

func (c *CkbCliTx) configs() ([]multisig.Config, error) {
	var res []multisig.Config
	for _, args := range sortedArgs(c.MultisigConfigs) {
		v := c.MultisigConfigs[args]
		cfg, err := v.Config()
		if err != nil {
			return nil, fmt.Errorf("multisig config %s: %w", args.StringPrefixed(), err)
		}
		if actual := cfg.Args(); actual != args {
			return nil, fmt.Errorf("multisig config %s has args %s", args.StringPrefixed(), actual.StringPrefixed())
		}
		res = append(res, cfg)
	}
	return res, nil
}

// ImportMultisigConfigs returns multisig configs found in ckb-cli tx.json.
func ImportMultisigConfigs(data []byte) ([]multisig.Config, error) {
	ctx, err := decodeCkbCli(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownFormat, err)
	}
	cfgs, err := ctx.configs()
	if err != nil {
		return nil, err
	}
	if len(cfgs) == 0 {
		return nil, errors.New("no multisig configs found")
	}
	return cfgs, nil
}

// ExportCkbCli converts the envelope into ckb-cli tx.json. Signatures of
// lock actions and pending ones are exported together, signer addresses use
// the given prefix.
func ExportCkbCli(e *envelope.Envelope, prefix string) (*CkbCliTx, error) {
	res := &CkbCliTx{
		Transaction:     e.Payload.Copy(),
		MultisigConfigs: make(map[util.Uint160]CkbCliMultisigConfig),
		Signatures:      make(map[util.Uint160][]multisig.Signature),
	}
	actions, err := e.MultisigActions()
	if err != nil {
		return nil, err
	}
	for _, a := range actions {
		args := a.Config.Args()
		c := CkbCliMultisigConfig{
			RequireFirstN:    a.Config.RequireFirstN,
			Threshold:        a.Config.Threshold,
			SighashAddresses: make([]string, len(a.Config.Signers)),
		}
		for i, pkh := range a.Config.Signers {
			c.SighashAddresses[i], err = address.Encode(transaction.NewSecp256k1Lock(pkh), prefix)
			if err != nil {
				return nil, err
			}
		}
		res.MultisigConfigs[args] = c
		for _, p := range a.Signed {
			res.Signatures[args] = append(res.Signatures[args], p.Signature)
		}
	}
	for _, args := range e.Pending.Args() {
		for _, sig := range e.Pending[args] {
			if !slices.Contains(res.Signatures[args], sig) {
				res.Signatures[args] = append(res.Signatures[args], sig)
			}
		}
	}
	return res, nil
}

func sortedArgs[V any](m map[util.Uint160]V) []util.Uint160 {
	res := make([]util.Uint160, 0, len(m))
	for args := range m {
		res = append(res, args)
	}
	slices.SortFunc(res, func(a, b util.Uint160) int {
		return bytes.Compare(a[:], b[:])
	})
	return res
}
