package multisig

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/ckb-multisig/pkg/core/transaction"
	"github.com/nspcc-dev/ckb-multisig/pkg/crypto/hash"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

// MaxSigners is the maximum number of signers in a config, every counter is
// a single byte.
const MaxSigners = 255

// ErrInvalidConfig is returned (wrapped) when config invariants are violated.
var ErrInvalidConfig = errors.New("invalid multisig config")

// Config is an M-of-N multisig policy with an optional required subset: the
// first RequireFirstN signers must always sign.
type Config struct {
	RequireFirstN byte           `json:"require_first_n"`
	Threshold     byte           `json:"threshold"`
	Signers       []util.Uint160 `json:"signer_pubkey_hashes"`
}

// Validate checks 0 <= R <= M <= N <= 255 and M >= 1.
func (c *Config) Validate() error {
	n := len(c.Signers)
	switch {
	case n == 0:
		return fmt.Errorf("%w: no signers", ErrInvalidConfig)
	case n > MaxSigners:
		return fmt.Errorf("%w: too many signers (%d)", ErrInvalidConfig, n)
	case c.Threshold == 0:
		return fmt.Errorf("%w: zero threshold", ErrInvalidConfig)
	case int(c.Threshold) > n:
		return fmt.Errorf("%w: threshold %d exceeds signer count %d", ErrInvalidConfig, c.Threshold, n)
	case c.RequireFirstN > c.Threshold:
		return fmt.Errorf("%w: require_first_n %d exceeds threshold %d", ErrInvalidConfig, c.RequireFirstN, c.Threshold)
	}
	return nil
}

// ScriptBytes returns the multisig script body: reserved | R | M | N header
// followed by pubkey hashes in config order.
func (c *Config) ScriptBytes() []byte {
	return (&Lock{Config: *c}).Bytes()
}

// Args returns lock args of the config, blake160 of the script body.
func (c *Config) Args() util.Uint160 {
	return hash.Blake160(c.ScriptBytes())
}

// Lock returns the multisig lock script of the config.
func (c *Config) Lock() *transaction.Script {
	return transaction.NewMultisigLock(c.Args())
}

// IndexOf returns the position of the signer in the config or -1.
func (c *Config) IndexOf(pkh util.Uint160) int {
	for i := range c.Signers {
		if c.Signers[i] == pkh {
			return i
		}
	}
	return -1
}

// Contains checks whether pkh is a configured signer.
func (c *Config) Contains(pkh util.Uint160) bool {
	return c.IndexOf(pkh) >= 0
}

// Required returns the signers that must always sign.
func (c *Config) Required() []util.Uint160 {
	return c.Signers[:c.RequireFirstN]
}

// Copy returns a deep copy of the config.
func (c *Config) Copy() Config {
	return Config{
		RequireFirstN: c.RequireFirstN,
		Threshold:     c.Threshold,
		Signers:       append([]util.Uint160(nil), c.Signers...),
	}
}

// Equals checks whether two configs are identical.
func (c *Config) Equals(other *Config) bool {
	if c.RequireFirstN != other.RequireFirstN || c.Threshold != other.Threshold ||
		len(c.Signers) != len(other.Signers) {
		return false
	}
	for i := range c.Signers {
		if c.Signers[i] != other.Signers[i] {
			return false
		}
	}
	return true
}
