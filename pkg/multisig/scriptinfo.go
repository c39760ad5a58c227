package multisig

import (
	"github.com/nspcc-dev/ckb-multisig/pkg/core/transaction"
	"github.com/nspcc-dev/ckb-multisig/pkg/crypto/hash"
	"github.com/nspcc-dev/ckb-multisig/pkg/encoding/molecule"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

// Schema is the molecule schema of MultisigAction.
const Schema = `array PubkeyHash [byte; 20];
vector PubkeyHashVec <PubkeyHash>;
table MultisigConfig {
    require_first_n: byte,
    threshold: byte,
    signer_pubkey_hashes: PubkeyHashVec,
}
array Signature [byte; 65];
struct PubkeyHashSignaturePair {
    pubkey_hash: PubkeyHash,
    signature: Signature,
}
vector PubkeyHashSignaturePairVec <PubkeyHashSignaturePair>;
table MultisigAction {
    config: MultisigConfig,
    signed: PubkeyHashSignaturePairVec,
}`

// ScriptInfo describes the script a lock action is meant for.
type ScriptInfo struct {
	Name        string       `json:"name"`
	URL         string       `json:"url"`
	ScriptHash  util.Uint256 `json:"script_hash"`
	Schema      string       `json:"schema"`
	MessageType string       `json:"message_type"`
}

// Bytes returns molecule ScriptInfo encoding.
func (s *ScriptInfo) Bytes() []byte {
	return molecule.Table(
		molecule.Bytes([]byte(s.Name)),
		molecule.Bytes([]byte(s.URL)),
		s.ScriptHash[:],
		molecule.Bytes([]byte(s.Schema)),
		molecule.Bytes([]byte(s.MessageType)),
	)
}

// Hash returns the hash of the encoded info.
func (s *ScriptInfo) Hash() util.Uint256 {
	return hash.Hash(s.Bytes())
}

// NewScriptInfo returns the info of the multisig lock. Its script hash is
// computed with empty args, so it's the same for every config.
func NewScriptInfo() ScriptInfo {
	empty := transaction.NewMultisigLock(util.Uint160{})
	empty.Args = nil
	return ScriptInfo{
		Name:        "secp256k1_blake160_multisig_all",
		URL:         "https://github.com/nervosnetwork/ckb-system-scripts/blob/master/c/secp256k1_blake160_multisig_all.c",
		ScriptHash:  empty.Hash(),
		Schema:      Schema,
		MessageType: "MultisigAction",
	}
}

// ScriptInfoHash is the hash of the multisig script info, it tells multisig
// lock actions from all the others.
var ScriptInfoHash = func() util.Uint256 {
	info := NewScriptInfo()
	return info.Hash()
}()
