package storage

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/ckb-multisig/pkg/core/storage/dbconfig"
)

// KeyPrefix constants.
const (
	// DataEnvelope is used for envelopes identified by transaction hash.
	DataEnvelope KeyPrefix = 0x01
	// DataAddress is used for multisig address book entries identified by
	// lock args.
	DataAddress KeyPrefix = 0x02
	SYSVersion  KeyPrefix = 0xf0
)

// ErrKeyNotFound is an error returned by Store implementations
// when a certain key is not found.
var ErrKeyNotFound = errors.New("key not found")

type (
	// Store is the underlying KV backend.
	Store interface {
		Get([]byte) ([]byte, error)
		Put(k, v []byte) error
		Delete(k []byte) error
		// PutChangeSet allows to push prepared changeset to the Store
		// atomically, nil values are deletions.
		PutChangeSet(puts map[string][]byte) error
		// Seek can guarantee that provided key (k) and value (v) are the only valid until the next call to f.
		// Seek continues iteration until false is returned from f.
		// Key and value slices should not be modified.
		// Seek guarantees that key-value items are sorted by key in ascending way.
		Seek(prefix []byte, f func(k, v []byte) bool)
		Close() error
	}

	// KeyPrefix is a constant byte added as a prefix for each key
	// stored.
	KeyPrefix uint8

	// KeyValue represents a key-value pair.
	KeyValue struct {
		Key   []byte
		Value []byte
	}
)

// Bytes returns the bytes representation of KeyPrefix.
func (k KeyPrefix) Bytes() []byte {
	return []byte{byte(k)}
}

// Key returns the key of the item with the given id.
func (k KeyPrefix) Key(id []byte) []byte {
	return append([]byte{byte(k)}, id...)
}

// NewStore creates storage with preselected in configuration database type.
func NewStore(cfg dbconfig.DBConfiguration) (Store, error) {
	var store Store
	var err error
	switch cfg.Type {
	case dbconfig.InMemoryDB:
		store = NewMemoryStore()
	case dbconfig.BoltDB:
		store, err = NewBoltDBStore(cfg.BoltDBOptions)
	default:
		return nil, fmt.Errorf("unknown storage: %s", cfg.Type)
	}
	return store, err
}

// Version attempts to get the current version stored in the
// underlying store.
func Version(s Store) (string, error) {
	version, err := s.Get(SYSVersion.Bytes())
	return string(version), err
}

// PutVersion stores the given version in the underlying store.
func PutVersion(s Store, v string) error {
	return s.Put(SYSVersion.Bytes(), []byte(v))
}
