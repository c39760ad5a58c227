package cosigner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nspcc-dev/ckb-multisig/pkg/ckbrpc"
	"github.com/nspcc-dev/ckb-multisig/pkg/core/dao"
	"github.com/nspcc-dev/ckb-multisig/pkg/crypto/keys"
	"github.com/nspcc-dev/ckb-multisig/pkg/envelope"
	"github.com/nspcc-dev/ckb-multisig/pkg/importer"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
	"go.uber.org/zap"
)

// Import decodes the document and merges it into the stored envelope of the
// same transaction, a new envelope is created for unknown transactions.
// Pending signatures are resolved if inputs are known. Resolution failures
// don't prevent the merged envelope from being stored, they're returned
// along with it.
func (s *Service) Import(data []byte) (*envelope.Envelope, error) {
	incoming, format, err := importer.Import(data)
	if err != nil {
		return nil, err
	}
	h := incoming.Hash()
	defer s.lock(h)()

	e, err := s.load(h)
	switch {
	case errors.Is(err, dao.ErrNotFound):
		e = incoming
	case err != nil:
		return nil, err
	default:
		e = e.Clone()
		if err := e.Merge(incoming); err != nil {
			return nil, err
		}
	}
	s.attachKnownConfigs(e)
	resErr := s.resolvePending(e)
	if err := s.store(e); err != nil {
		return nil, err
	}
	s.Log.Info("document imported",
		zap.Stringer("hash", h),
		zap.String("format", format),
		zap.Stringer("state", e.State),
		zap.Int("pending", e.Pending.Len()))
	return e.Clone(), resErr
}

// attachKnownConfigs adds lock actions for multisig locks of the address
// book used by the transaction inputs or having pending signatures.
func (s *Service) attachKnownConfigs(e *envelope.Envelope) {
	var args []util.Uint160
	for i := range e.ResolvedInputs.Outputs {
		lock := &e.ResolvedInputs.Outputs[i].Lock
		if lock.IsMultisigLock() {
			if a, err := util.Uint160DecodeBytes(lock.Args); err == nil {
				args = append(args, a)
			}
		}
	}
	args = append(args, e.Pending.Args()...)
	for _, a := range args {
		cfg, err := s.dao.GetMultisigConfig(a)
		if err != nil {
			continue
		}
		if err := e.AddMultisigConfig(*cfg); err != nil {
			s.Log.Warn("bad multisig config in the address book", zap.Stringer("args", a), zap.Error(err))
		}
	}
}

// resolvePending attributes pending and witness signatures and re-evaluates
// readiness once inputs are resolved.
func (s *Service) resolvePending(e *envelope.Envelope) error {
	if !e.IsResolved() {
		return nil
	}
	err := e.ResolvePendingSignatures()
	if err != nil {
		s.Log.Warn("pending signatures are not resolved",
			zap.Stringer("hash", e.Hash()),
			zap.Error(err))
	}
	return err
}

// ResolveInputs fetches cells consumed by the transaction from the node and
// resolves pending signatures.
func (s *Service) ResolveInputs(ctx context.Context, h util.Uint256) (*envelope.Envelope, error) {
	if s.Node == nil {
		return nil, ErrNoNode
	}
	var resErr error
	e, err := s.update(h, func(e *envelope.Envelope) error {
		cells, err := s.Node.ResolveInputs(ctx, e.Payload)
		if err != nil {
			return fmt.Errorf("failed to resolve inputs: %w", err)
		}
		if err := e.SetResolvedInputs(cells); err != nil {
			return err
		}
		s.attachKnownConfigs(e)
		resErr = s.resolvePending(e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("inputs resolved", zap.Stringer("hash", h), zap.Int("inputs", len(e.Payload.Inputs)))
	return e, resErr
}

// Sign signs the transaction with the key and returns the number of multisig
// locks signed.
func (s *Service) Sign(h util.Uint256, priv *keys.PrivateKey) (*envelope.Envelope, int, error) {
	var n int
	e, err := s.update(h, func(e *envelope.Envelope) error {
		var err error
		n, err = e.AddSignature(priv)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	s.Log.Info("transaction signed",
		zap.Stringer("hash", h),
		zap.Stringer("signer", priv.PubkeyHash()),
		zap.Int("locks", n),
		zap.Stringer("state", e.State))
	return e, n, nil
}

// Broadcast sends the ready transaction and waits for it to be committed or
// rejected, the outcome is stored.
func (s *Service) Broadcast(ctx context.Context, h util.Uint256) (*ckbrpc.TxStatus, error) {
	if s.Node == nil {
		return nil, ErrNoNode
	}
	e, err := s.Get(h)
	if err != nil {
		return nil, err
	}
	if e.State != envelope.StateReady && e.State != envelope.StateRejected {
		return nil, fmt.Errorf("%w: %s", ErrNotReady, e.State)
	}
	s.Log.Info("broadcasting transaction", zap.Stringer("hash", h))
	st, err := s.Node.WaitTransaction(ctx, e.Payload)
	if err != nil {
		return nil, err
	}
	outcome := envelope.StateRejected
	if st.Status == ckbrpc.TxStatusCommitted {
		outcome = envelope.StateCommitted
	}
	_, err = s.update(h, func(e *envelope.Envelope) error {
		return e.SetOutcome(outcome)
	})
	if err != nil {
		return nil, err
	}
	fields := []zap.Field{zap.Stringer("hash", h), zap.String("status", st.Status)}
	if st.Reason != nil {
		fields = append(fields, zap.String("reason", *st.Reason))
	}
	s.Log.Info("transaction processed", fields...)
	return st, nil
}

// Export encodes the envelope in the given format.
func (s *Service) Export(h util.Uint256, format string) ([]byte, error) {
	e, err := s.Get(h)
	if err != nil {
		return nil, err
	}
	switch format {
	case importer.FormatEnvelope:
		return importer.ExportEnvelope(e)
	case importer.FormatCkbCli:
		tx, err := importer.ExportCkbCli(e, s.AddressPrefix)
		if err != nil {
			return nil, err
		}
		return json.MarshalIndent(tx, "", "  ")
	default:
		return nil, fmt.Errorf("%w: %s", importer.ErrUnknownFormat, format)
	}
}
