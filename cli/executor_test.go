package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nspcc-dev/ckb-multisig/cli/app"
	"github.com/nspcc-dev/ckb-multisig/cli/input"
	"github.com/nspcc-dev/ckb-multisig/pkg/ckbrpc"
	"github.com/nspcc-dev/ckb-multisig/pkg/core/transaction"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
	"golang.org/x/term"
)

// executor represents context for a test instance.
// It can be safely used in multiple tests, but not in parallel.
type executor struct {
	// CLI is a cli application to test.
	CLI *cli.App
	// Node is a fake CKB node.
	Node *testNode
	// ConfigFile is the path to the configuration file.
	ConfigFile string
	// Out contains command output.
	Out *bytes.Buffer
	// Err contains command errors.
	Err *bytes.Buffer
	// In contains command input.
	In *bytes.Buffer
}

// testNode answers CKB JSON-RPC requests with the cells it knows.
type testNode struct {
	mtx    sync.Mutex
	cells  map[transaction.OutPoint]transaction.CellWithData
	status *ckbrpc.TxStatus
	sent   []*transaction.Transaction
}

func (n *testNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     uint64            `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	n.mtx.Lock()
	defer n.mtx.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	switch req.Method {
	case "get_live_cell":
		var op transaction.OutPoint
		_ = json.Unmarshal(req.Params[0], &op)
		c, ok := n.cells[op]
		if !ok {
			resp["result"] = ckbrpc.LiveCell{Status: "unknown"}
			break
		}
		resp["result"] = ckbrpc.LiveCell{
			Status: ckbrpc.CellStatusLive,
			Cell: &ckbrpc.CellInfo{
				Output: c.Output,
				Data:   &ckbrpc.CellData{Content: c.Data},
			},
		}
	case "get_transaction":
		if n.status == nil {
			resp["result"] = nil
		} else {
			resp["result"] = ckbrpc.TransactionWithStatus{TxStatus: *n.status}
		}
	case "send_transaction":
		tx := new(transaction.Transaction)
		_ = json.Unmarshal(req.Params[0], tx)
		n.sent = append(n.sent, tx)
		n.status = &ckbrpc.TxStatus{Status: ckbrpc.TxStatusCommitted, BlockHash: &util.Uint256{0xbb}}
		resp["result"] = tx.Hash()
	default:
		resp["error"] = &ckbrpc.Error{Code: -32601, Message: "Method not found"}
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func newExecutor(t *testing.T) *executor {
	e := &executor{
		CLI:  app.New(),
		Node: &testNode{cells: make(map[transaction.OutPoint]transaction.CellWithData)},
		Out:  bytes.NewBuffer(nil),
		Err:  bytes.NewBuffer(nil),
		In:   bytes.NewBuffer(nil),
	}
	e.CLI.Writer = e.Out
	e.CLI.ErrWriter = e.Err

	srv := httptest.NewServer(e.Node)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	e.ConfigFile = filepath.Join(dir, "ckb.yml")
	cfg := fmt.Sprintf(`ApplicationConfiguration:
  Network: testnet
  LogLevel: error
  DBConfiguration:
    Type: boltdb
    BoltDBOptions:
      FilePath: %q
  RPC:
    Endpoint: %q
    PollInterval: 10ms
`, filepath.Join(dir, "db", "multisig.bolt"), srv.URL)
	require.NoError(t, os.WriteFile(e.ConfigFile, []byte(cfg), 0o644))
	t.Cleanup(func() {
		input.Terminal = nil
	})
	return e
}

func (e *executor) getNextLine(t *testing.T) string {
	line, err := e.Out.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimSuffix(line, "\n")
}

func (e *executor) checkNextLine(t *testing.T, expected string) {
	line := e.getNextLine(t)
	require.Regexp(t, expected, line)
}

func (e *executor) checkEOF(t *testing.T) {
	_, err := e.Out.ReadString('\n')
	require.True(t, errors.Is(err, io.EOF))
}

func setExitFunc() <-chan int {
	ch := make(chan int, 1)
	cli.OsExiter = func(code int) {
		ch <- code
	}
	return ch
}

func checkExit(t *testing.T, ch <-chan int, code int) {
	select {
	case c := <-ch:
		require.Equal(t, code, c)
	default:
		if code != 0 {
			require.Fail(t, "no exit was called")
		}
	}
}

// RunWithError runs command and checks that is exits with error.
func (e *executor) RunWithError(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.Error(t, e.run(args...))
	checkExit(t, ch, 1)
}

// Run runs command and checks that there were no errors.
func (e *executor) Run(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.NoError(t, e.run(args...))
	checkExit(t, ch, 0)
}

// run executes the subcommand (args start with the command and subcommand
// names) with the configuration file added.
func (e *executor) run(args ...string) error {
	e.Out.Reset()
	e.Err.Reset()
	input.Terminal = term.NewTerminal(input.ReadWriter{
		Reader: e.In,
		Writer: io.Discard,
	}, "")
	// Command and subcommand go first, flags must precede arguments.
	full := append([]string{"ckb-multisig"}, args[:2]...)
	full = append(full, "--config-file", e.ConfigFile)
	full = append(full, args[2:]...)
	err := e.CLI.Run(full)
	input.Terminal = nil
	e.In.Reset()
	return err
}
