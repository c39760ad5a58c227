package envelope

import (
	"slices"

	"github.com/nspcc-dev/ckb-multisig/pkg/multisig"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

// PendingPool holds signatures that are not attributed to signers yet, keyed
// by multisig lock args. Lists keep insertion order and have no duplicates.
type PendingPool map[util.Uint160][]multisig.Signature

// Add appends sig to the list of args unless it's already there.
func (p PendingPool) Add(args util.Uint160, sig multisig.Signature) bool {
	if slices.Contains(p[args], sig) {
		return false
	}
	p[args] = append(p[args], sig)
	return true
}

// Merge adds all signatures of other preserving their order.
func (p PendingPool) Merge(other PendingPool) {
	for _, args := range other.Args() {
		for _, sig := range other[args] {
			p.Add(args, sig)
		}
	}
}

// Args returns sorted lock args having pending signatures.
func (p PendingPool) Args() []util.Uint160 {
	res := make([]util.Uint160, 0, len(p))
	for args, sigs := range p {
		if len(sigs) != 0 {
			res = append(res, args)
		}
	}
	slices.SortFunc(res, func(a, b util.Uint160) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return res
}

// Len returns the number of pending signatures.
func (p PendingPool) Len() int {
	var n int
	for _, sigs := range p {
		n += len(sigs)
	}
	return n
}

// Copy returns a deep copy of the pool.
func (p PendingPool) Copy() PendingPool {
	res := make(PendingPool, len(p))
	for args, sigs := range p {
		res[args] = slices.Clone(sigs)
	}
	return res
}
