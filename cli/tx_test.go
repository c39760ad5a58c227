package main

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/ckb-multisig/pkg/core/transaction"
	"github.com/nspcc-dev/ckb-multisig/pkg/crypto/keys"
	"github.com/nspcc-dev/ckb-multisig/pkg/envelope"
	"github.com/nspcc-dev/ckb-multisig/pkg/importer"
	"github.com/nspcc-dev/ckb-multisig/pkg/multisig"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
	"github.com/stretchr/testify/require"
)

// txSetup is a transaction spending two cells of a 2-of-3 multisig address
// with the first signer required.
type txSetup struct {
	privs []*keys.PrivateKey
	addrs []string
	cfg   multisig.Config
	tx    *transaction.Transaction
	dir   string
}

func newTxSetup(t *testing.T, e *executor) *txSetup {
	s := &txSetup{cfg: multisig.Config{RequireFirstN: 1, Threshold: 2}, dir: t.TempDir()}
	s.privs, s.addrs = generateKeys(t, 3)
	for _, p := range s.privs {
		s.cfg.Signers = append(s.cfg.Signers, p.PubkeyHash())
	}
	ops := []transaction.OutPoint{{TxHash: util.Uint256{0xaa}, Index: 0}, {TxHash: util.Uint256{0xaa}, Index: 1}}
	s.tx = &transaction.Transaction{
		CellDeps: []transaction.CellDep{{
			OutPoint: transaction.OutPoint{TxHash: util.Uint256{0xdd}},
			DepType:  transaction.DepTypeDepGroup,
		}},
		Inputs:      []transaction.CellInput{{PreviousOutput: ops[0]}, {PreviousOutput: ops[1]}},
		Outputs:     []transaction.CellOutput{{Capacity: 600, Lock: *transaction.NewSecp256k1Lock(util.Uint160{1})}},
		OutputsData: []util.Bytes{{}},
	}
	for _, op := range ops {
		e.Node.cells[op] = transaction.CellWithData{Output: transaction.CellOutput{Capacity: 400, Lock: *s.cfg.Lock()}}
	}
	return s
}

func (s *txSetup) keyFile(t *testing.T, i int) string {
	p := filepath.Join(s.dir, "key"+string(rune('0'+i)))
	require.NoError(t, os.WriteFile(p, []byte(hex.EncodeToString(s.privs[i].Bytes())), 0o600))
	return p
}

func (s *txSetup) envelopeFile(t *testing.T) string {
	data, err := importer.ExportEnvelope(envelope.New(s.tx))
	require.NoError(t, err)
	p := filepath.Join(s.dir, "envelope.json")
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestTxWorkflow(t *testing.T) {
	e := newExecutor(t)
	s := newTxSetup(t, e)
	h := s.tx.Hash().StringPrefixed()

	e.Run(t, "address", "new", "--threshold", "2", "--require-first-n", "1", s.addrs[0], s.addrs[1], s.addrs[2])

	e.Run(t, "tx", "import", s.envelopeFile(t))
	e.checkNextLine(t, "^"+h+" pending$")
	e.checkEOF(t)

	e.Run(t, "tx", "list")
	e.checkNextLine(t, "^"+h+" pending$")
	e.checkEOF(t)

	e.RunWithError(t, "tx", "sign", "--key-file", s.keyFile(t, 1), h)

	e.Run(t, "tx", "resolve", h)
	e.checkNextLine(t, "^"+h+" pending$")

	e.Run(t, "tx", "show", h)
	out := e.Out.String()
	require.Contains(t, out, "State:\tpending")
	require.Contains(t, out, "Inputs:\t2 (resolved: true)")
	require.Contains(t, out, "Status:\tunsigned (0 of 2)")
	require.Contains(t, out, "[ ] "+s.cfg.Signers[0].StringPrefixed()+" (required)")

	e.Run(t, "tx", "sign", "--key-file", s.keyFile(t, 1), h)
	e.checkNextLine(t, "^Signed 1 lock\\(s\\), "+h+" pending$")

	e.RunWithError(t, "tx", "broadcast", h)
	require.Empty(t, e.Node.sent)

	// The key is prompted for without a file.
	e.In.WriteString(hex.EncodeToString(s.privs[0].Bytes()) + "\r")
	e.Run(t, "tx", "sign", h)
	e.checkNextLine(t, "^Signed 1 lock\\(s\\), "+h+" ready$")

	e.Run(t, "tx", "show", h)
	out = e.Out.String()
	require.Contains(t, out, "Status:\tready (2 of 2)")
	require.Contains(t, out, "[+] "+s.cfg.Signers[0].StringPrefixed())
	require.Contains(t, out, "[ ] "+s.cfg.Signers[2].StringPrefixed())

	exported := filepath.Join(s.dir, "tx.json")
	e.Run(t, "tx", "export", "--format", importer.FormatCkbCli, "--out", exported, h)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	var doc importer.CkbCliTx
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Signatures[s.cfg.Args()], 2)

	e.Run(t, "tx", "broadcast", h)
	e.checkNextLine(t, "^"+h+" committed$")
	e.checkNextLine(t, "^Block: ")
	require.Len(t, e.Node.sent, 1)
	lock, err := transaction.DecodeWitnessArgs(e.Node.sent[0].Witness(0))
	require.NoError(t, err)
	l, err := multisig.DecodeLock(lock.Lock)
	require.NoError(t, err)
	require.Len(t, l.Signatures, 2)

	e.Run(t, "tx", "list")
	e.checkNextLine(t, "^"+h+" committed$")

	e.Run(t, "tx", "delete", "--force", h)
	e.Run(t, "tx", "list")
	e.checkEOF(t)
}

func TestTxImportMerges(t *testing.T) {
	e := newExecutor(t)
	s := newTxSetup(t, e)
	h := s.tx.Hash().StringPrefixed()

	// Two participants sign their own copies and exchange them.
	e.Run(t, "address", "new", "--threshold", "2", "--require-first-n", "1", s.addrs[0], s.addrs[1], s.addrs[2])
	e.Run(t, "tx", "import", s.envelopeFile(t))
	e.Run(t, "tx", "resolve", h)
	e.Run(t, "tx", "sign", "--key-file", s.keyFile(t, 0), h)
	first := filepath.Join(s.dir, "first.json")
	e.Run(t, "tx", "export", "--out", first, h)

	other := newExecutor(t)
	for op, c := range e.Node.cells {
		other.Node.cells[op] = c
	}
	other.Run(t, "tx", "import", s.envelopeFile(t))
	other.Run(t, "tx", "resolve", h)
	other.RunWithError(t, "tx", "sign", "--key-file", s.keyFile(t, 2), h)
	other.Run(t, "tx", "import", first)
	other.checkNextLine(t, "^"+h+" pending$")
	other.Run(t, "tx", "sign", "--key-file", s.keyFile(t, 2), h)
	other.checkNextLine(t, "ready$")
	second := filepath.Join(s.dir, "second.json")
	other.Run(t, "tx", "export", "--out", second, h)

	e.Run(t, "tx", "import", second)
	e.checkNextLine(t, "^"+h+" ready$")
}

func TestTxErrors(t *testing.T) {
	e := newExecutor(t)
	s := newTxSetup(t, e)
	h := s.tx.Hash().StringPrefixed()

	e.RunWithError(t, "tx", "import")
	e.RunWithError(t, "tx", "import", filepath.Join(s.dir, "missing.json"))

	junk := filepath.Join(s.dir, "junk.json")
	require.NoError(t, os.WriteFile(junk, []byte(`{"some": "thing"}`), 0o644))
	e.RunWithError(t, "tx", "import", junk)
	e.Run(t, "tx", "list")
	e.checkEOF(t)

	e.RunWithError(t, "tx", "show", "0x1234")
	e.RunWithError(t, "tx", "show", h)
	e.RunWithError(t, "tx", "resolve", h)

	e.Run(t, "tx", "import", s.envelopeFile(t))
	delete(e.Node.cells, s.tx.Inputs[1].PreviousOutput)
	e.RunWithError(t, "tx", "resolve", h)
	e.RunWithError(t, "tx", "export", "--format", "psbt", h)
}
