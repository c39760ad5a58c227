/*
Package cosigner implements the co-signing service. It keeps envelopes in the
store, merges documents received from other participants into them, resolves
inputs and pending signatures, signs with local keys and broadcasts ready
transactions. Operations on the same transaction are serialized, different
transactions are processed concurrently.
*/
package cosigner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/ckb-multisig/pkg/ckbrpc"
	"github.com/nspcc-dev/ckb-multisig/pkg/core/dao"
	"github.com/nspcc-dev/ckb-multisig/pkg/core/transaction"
	"github.com/nspcc-dev/ckb-multisig/pkg/envelope"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
	"go.uber.org/zap"
)

// DefaultCacheSize is the number of envelopes cached when no size is given.
const DefaultCacheSize = 64

var (
	// ErrNotFound is returned for unknown transactions and addresses.
	ErrNotFound = dao.ErrNotFound
	// ErrNotReady is returned when a transaction lacking signatures is
	// broadcasted.
	ErrNotReady = errors.New("transaction is not ready")
	// ErrNoNode is returned when a node is needed but not configured.
	ErrNoNode = errors.New("no CKB node configured")
)

type (
	// Node is the CKB node interface sufficient for the service.
	Node interface {
		ResolveInputs(ctx context.Context, tx *transaction.Transaction) (map[transaction.OutPoint]transaction.CellWithData, error)
		WaitTransaction(ctx context.Context, tx *transaction.Transaction) (*ckbrpc.TxStatus, error)
	}

	// Config represents external configuration for the service.
	Config struct {
		Log *zap.Logger
		// Node is optional, inputs can't be resolved and transactions
		// can't be broadcasted without it.
		Node      Node
		CacheSize int
		// AddressPrefix is used to encode addresses in exported documents.
		AddressPrefix string
	}

	// Service is the co-signing service.
	Service struct {
		Config

		dao   *dao.Simple
		cache *lru.Cache

		// locksMtx protects locks.
		locksMtx sync.Mutex
		locks    map[util.Uint256]*txLock
	}

	txLock struct {
		sync.Mutex
		refs int
	}
)

// New creates a service on top of the given DAO.
func New(cfg Config, d *dao.Simple) *Service {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	cache, _ := lru.New(cfg.CacheSize) // Never errors for positive size.
	return &Service{
		Config: cfg,
		dao:    d,
		cache:  cache,
		locks:  make(map[util.Uint256]*txLock),
	}
}

// lock acquires the lock of the transaction, the returned function releases
// it.
func (s *Service) lock(h util.Uint256) func() {
	s.locksMtx.Lock()
	l, ok := s.locks[h]
	if !ok {
		l = new(txLock)
		s.locks[h] = l
	}
	l.refs++
	s.locksMtx.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.locksMtx.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, h)
		}
		s.locksMtx.Unlock()
	}
}

// load returns the stored envelope, it must not be modified.
func (s *Service) load(h util.Uint256) (*envelope.Envelope, error) {
	if e, ok := s.cache.Get(h); ok {
		return e.(*envelope.Envelope), nil
	}
	e, err := s.dao.GetEnvelope(h)
	if err != nil {
		return nil, err
	}
	s.cache.Add(h, e)
	return e, nil
}

func (s *Service) store(e *envelope.Envelope) error {
	if err := s.dao.PutEnvelope(e); err != nil {
		return err
	}
	s.cache.Add(e.Hash(), e)
	return nil
}

// update applies f to a copy of the stored envelope and stores the result if
// f succeeds.
func (s *Service) update(h util.Uint256, f func(e *envelope.Envelope) error) (*envelope.Envelope, error) {
	defer s.lock(h)()

	e, err := s.load(h)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", h.StringPrefixed(), err)
	}
	e = e.Clone()
	if err := f(e); err != nil {
		return nil, err
	}
	if err := s.store(e); err != nil {
		return nil, err
	}
	return e.Clone(), nil
}

// Get returns the envelope of the transaction.
func (s *Service) Get(h util.Uint256) (*envelope.Envelope, error) {
	e, err := s.load(h)
	if err != nil {
		return nil, err
	}
	return e.Clone(), nil
}

// List returns hashes of all known transactions.
func (s *Service) List() ([]util.Uint256, error) {
	return s.dao.EnvelopeHashes()
}

// Delete forgets the transaction.
func (s *Service) Delete(h util.Uint256) error {
	defer s.lock(h)()

	if _, err := s.load(h); err != nil {
		return err
	}
	s.cache.Remove(h)
	if err := s.dao.DeleteEnvelope(h); err != nil {
		return err
	}
	s.Log.Info("transaction deleted", zap.Stringer("hash", h))
	return nil
}
