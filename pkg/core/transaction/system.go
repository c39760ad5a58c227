package transaction

import "github.com/nspcc-dev/ckb-multisig/pkg/util"

// Code hashes of the system lock scripts (hash_type "type").
var (
	// Secp256k1Blake160CodeHash is secp256k1_blake160_sighash_all.
	Secp256k1Blake160CodeHash = mustUint256("9bd7e06f3ecf4be0f2fcd2188b23f1b9fcc88e5d4b65a8637b17723bbda3cce8")
	// MultisigCodeHash is secp256k1_blake160_multisig_all.
	MultisigCodeHash = mustUint256("5c5069eb0857efc65e1bca0c07df34c31663b3622fd3876c876320fc9634e2a8")
)

// NewSecp256k1Lock returns a single-signature lock for the pubkey hash.
func NewSecp256k1Lock(pubkeyHash util.Uint160) *Script {
	return &Script{
		CodeHash: Secp256k1Blake160CodeHash,
		HashType: HashTypeType,
		Args:     append(util.Bytes(nil), pubkeyHash[:]...),
	}
}

// NewMultisigLock returns a multisig lock for the given args.
func NewMultisigLock(args util.Uint160) *Script {
	return &Script{
		CodeHash: MultisigCodeHash,
		HashType: HashTypeType,
		Args:     append(util.Bytes(nil), args[:]...),
	}
}

// IsMultisigLock checks whether the script is a multisig lock.
func (s *Script) IsMultisigLock() bool {
	return s.CodeHash == MultisigCodeHash && s.HashType == HashTypeType && len(s.Args) == util.Uint160Size
}

// IsSecp256k1Lock checks whether the script is a single-signature lock.
func (s *Script) IsSecp256k1Lock() bool {
	return s.CodeHash == Secp256k1Blake160CodeHash && s.HashType == HashTypeType && len(s.Args) == util.Uint160Size
}

func mustUint256(s string) util.Uint256 {
	u, err := util.Uint256DecodeString(s)
	if err != nil {
		panic(err)
	}
	return u
}
