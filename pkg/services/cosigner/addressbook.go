package cosigner

import (
	"github.com/nspcc-dev/ckb-multisig/pkg/encoding/address"
	"github.com/nspcc-dev/ckb-multisig/pkg/importer"
	"github.com/nspcc-dev/ckb-multisig/pkg/multisig"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
	"go.uber.org/zap"
)

// AddAddress adds the multisig config to the address book and returns its
// address.
func (s *Service) AddAddress(cfg multisig.Config) (string, error) {
	if err := s.dao.PutMultisigConfig(&cfg); err != nil {
		return "", err
	}
	addr, err := address.Encode(cfg.Lock(), s.AddressPrefix)
	if err != nil {
		return "", err
	}
	s.Log.Info("multisig address added",
		zap.String("address", addr),
		zap.Stringer("args", cfg.Args()),
		zap.Uint8("threshold", cfg.Threshold),
		zap.Int("signers", len(cfg.Signers)))
	return addr, nil
}

// Addresses returns all configs of the address book.
func (s *Service) Addresses() ([]multisig.Config, error) {
	return s.dao.MultisigConfigs()
}

// DeleteAddress removes the multisig address with the given lock args.
func (s *Service) DeleteAddress(args util.Uint160) error {
	if _, err := s.dao.GetMultisigConfig(args); err != nil {
		return err
	}
	if err := s.dao.DeleteMultisigConfig(args); err != nil {
		return err
	}
	s.Log.Info("multisig address deleted", zap.Stringer("args", args))
	return nil
}

// ImportAddresses adds multisig configs found in ckb-cli tx.json to the
// address book.
func (s *Service) ImportAddresses(data []byte) ([]string, error) {
	cfgs, err := importer.ImportMultisigConfigs(data)
	if err != nil {
		return nil, err
	}
	res := make([]string, 0, len(cfgs))
	for i := range cfgs {
		addr, err := s.AddAddress(cfgs[i])
		if err != nil {
			return nil, err
		}
		res = append(res, addr)
	}
	return res, nil
}
