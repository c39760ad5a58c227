/*
Package dao provides typed access to the store: envelopes keyed by
transaction hash and the multisig address book keyed by lock args. Both are
kept in the JSON form they're exchanged in.
*/
package dao

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nspcc-dev/ckb-multisig/pkg/core/storage"
	"github.com/nspcc-dev/ckb-multisig/pkg/envelope"
	"github.com/nspcc-dev/ckb-multisig/pkg/multisig"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

// Version is the current DB schema version.
const Version = "0.1.0"

// ErrNotFound is returned for missing entries.
var ErrNotFound = storage.ErrKeyNotFound

// Simple is a DAO on top of a Store.
type Simple struct {
	Store storage.Store
}

// NewSimple creates new simple dao using provided backend store. The version
// is written into an empty store and checked otherwise.
func NewSimple(backend storage.Store) (*Simple, error) {
	v, err := storage.Version(backend)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		if err := storage.PutVersion(backend, Version); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case v != Version:
		return nil, fmt.Errorf("incompatible DB version %q (expected %q)", v, Version)
	}
	return &Simple{Store: backend}, nil
}

// GetAndDecode gets the value of the key and unmarshals it into v.
func (dao *Simple) GetAndDecode(v any, key []byte) error {
	data, err := dao.Store.Get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Put marshals v and stores it under the key.
func (dao *Simple) Put(v any, key []byte) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return dao.Store.Put(key, data)
}

// -- start envelopes.

// GetEnvelope returns the envelope of the transaction.
func (dao *Simple) GetEnvelope(h util.Uint256) (*envelope.Envelope, error) {
	e := new(envelope.Envelope)
	if err := dao.GetAndDecode(e, storage.DataEnvelope.Key(h[:])); err != nil {
		return nil, err
	}
	return e, nil
}

// PutEnvelope stores the envelope replacing the previous version.
func (dao *Simple) PutEnvelope(e *envelope.Envelope) error {
	h := e.Hash()
	return dao.Put(e, storage.DataEnvelope.Key(h[:]))
}

// DeleteEnvelope removes the envelope.
func (dao *Simple) DeleteEnvelope(h util.Uint256) error {
	return dao.Store.Delete(storage.DataEnvelope.Key(h[:]))
}

// EnvelopeHashes returns hashes of all stored envelopes in ascending order.
func (dao *Simple) EnvelopeHashes() ([]util.Uint256, error) {
	var (
		res []util.Uint256
		err error
	)
	dao.Store.Seek(storage.DataEnvelope.Bytes(), func(k, _ []byte) bool {
		var h util.Uint256
		h, err = util.Uint256DecodeBytes(k[1:])
		if err != nil {
			return false
		}
		res = append(res, h)
		return true
	})
	return res, err
}

// -- end envelopes.

// -- start address book.

// GetMultisigConfig returns the config of the multisig address with the
// given lock args.
func (dao *Simple) GetMultisigConfig(args util.Uint160) (*multisig.Config, error) {
	cfg := new(multisig.Config)
	if err := dao.GetAndDecode(cfg, storage.DataAddress.Key(args[:])); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PutMultisigConfig adds the config to the address book.
func (dao *Simple) PutMultisigConfig(cfg *multisig.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	args := cfg.Args()
	return dao.Put(cfg, storage.DataAddress.Key(args[:]))
}

// DeleteMultisigConfig removes the address from the address book.
func (dao *Simple) DeleteMultisigConfig(args util.Uint160) error {
	return dao.Store.Delete(storage.DataAddress.Key(args[:]))
}

// MultisigConfigs returns all configs of the address book ordered by args.
func (dao *Simple) MultisigConfigs() ([]multisig.Config, error) {
	var (
		res []multisig.Config
		err error
	)
	dao.Store.Seek(storage.DataAddress.Bytes(), func(_, v []byte) bool {
		var cfg multisig.Config
		if err = json.Unmarshal(v, &cfg); err != nil {
			return false
		}
		res = append(res, cfg)
		return true
	})
	return res, err
}

// -- end address book.
