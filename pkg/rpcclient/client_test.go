package rpcclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nspcc-dev/ckb-multisig/pkg/ckbrpc"
	"github.com/nspcc-dev/ckb-multisig/pkg/core/transaction"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
	"github.com/stretchr/testify/require"
)

// testNode is a fake CKB node answering with canned results.
type testNode struct {
	t        *testing.T
	mtx      sync.Mutex
	handlers map[string]func(params []json.RawMessage) (any, *ckbrpc.Error)
	calls    map[string]int
}

func newTestNode(t *testing.T) *testNode {
	return &testNode{
		t:        t,
		handlers: make(map[string]func([]json.RawMessage) (any, *ckbrpc.Error)),
		calls:    make(map[string]int),
	}
}

func (n *testNode) handle(method string, f func(params []json.RawMessage) (any, *ckbrpc.Error)) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.handlers[method] = f
}

func (n *testNode) count(method string) int {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return n.calls[method]
}

func (n *testNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     uint64            `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	require.NoError(n.t, json.NewDecoder(r.Body).Decode(&req))

	n.mtx.Lock()
	n.calls[req.Method]++
	f, ok := n.handlers[req.Method]
	n.mtx.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if !ok {
		resp["error"] = &ckbrpc.Error{Code: -32601, Message: "Method not found"}
	} else {
		res, rpcErr := f(req.Params)
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = res
		}
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(n.t, json.NewEncoder(w).Encode(resp))
}

func initTestClient(t *testing.T, n *testNode) *Client {
	srv := httptest.NewServer(n)
	t.Cleanup(srv.Close)
	c, err := New(context.Background(), srv.URL, Options{PollInterval: 10 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func testTx() *transaction.Transaction {
	return &transaction.Transaction{
		Inputs: []transaction.CellInput{
			{PreviousOutput: transaction.OutPoint{TxHash: util.Uint256{1}, Index: 0}},
			{PreviousOutput: transaction.OutPoint{TxHash: util.Uint256{1}, Index: 1}},
		},
		Outputs: []transaction.CellOutput{{
			Capacity: 100,
			Lock:     transaction.Script{CodeHash: util.Uint256{2}, HashType: transaction.HashTypeType},
		}},
		OutputsData: []util.Bytes{{}},
	}
}

func TestNew(t *testing.T) {
	_, err := New(context.Background(), "ws://localhost:8114", Options{})
	require.Error(t, err)

	c, err := New(context.Background(), "http://localhost:8114", Options{})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8114", c.Endpoint())
	require.Equal(t, defaultRequestTimeout, c.opts.RequestTimeout)
	require.Equal(t, defaultPollInterval, c.opts.PollInterval)
}

func TestRPCError(t *testing.T) {
	n := newTestNode(t)
	c := initTestClient(t, n)

	_, err := c.GetTransactionStatus(util.Uint256{})
	var rpcErr *ckbrpc.Error
	require.ErrorAs(t, err, &rpcErr)
	require.EqualValues(t, -32601, rpcErr.Code)
}

func TestHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	c, err := New(context.Background(), srv.URL, Options{})
	require.NoError(t, err)

	_, err = c.GetTransactionStatus(util.Uint256{})
	require.ErrorContains(t, err, "HTTP 502")
}

func TestResolveInputs(t *testing.T) {
	tx := testTx()
	lock := transaction.Script{CodeHash: util.Uint256{3}, HashType: transaction.HashTypeType, Args: util.Bytes{1, 2}}

	t.Run("live", func(t *testing.T) {
		n := newTestNode(t)
		n.handle("get_live_cell", func(params []json.RawMessage) (any, *ckbrpc.Error) {
			var op transaction.OutPoint
			require.NoError(t, json.Unmarshal(params[0], &op))
			require.Equal(t, "true", string(params[1]))
			return ckbrpc.LiveCell{
				Status: ckbrpc.CellStatusLive,
				Cell: &ckbrpc.CellInfo{
					Output: transaction.CellOutput{Capacity: util.Uint64(1000 + op.Index), Lock: lock},
					Data:   &ckbrpc.CellData{Content: util.Bytes{byte(op.Index)}},
				},
			}, nil
		})
		c := initTestClient(t, n)

		cells, err := c.ResolveInputs(context.Background(), tx)
		require.NoError(t, err)
		require.Len(t, cells, 2)
		for i, in := range tx.Inputs {
			cell := cells[in.PreviousOutput]
			require.EqualValues(t, 1000+i, cell.Output.Capacity)
			require.True(t, lock.Equals(&cell.Output.Lock))
			require.Equal(t, []byte{byte(i)}, cell.Data)
		}
	})
	t.Run("dead", func(t *testing.T) {
		n := newTestNode(t)
		n.handle("get_live_cell", func([]json.RawMessage) (any, *ckbrpc.Error) {
			return ckbrpc.LiveCell{Status: "unknown"}, nil
		})
		c := initTestClient(t, n)

		_, err := c.ResolveInputs(context.Background(), tx)
		require.ErrorIs(t, err, ErrDeadCell)
	})
}

func TestBroadcast(t *testing.T) {
	tx := testTx()
	sendHandler := func(params []json.RawMessage) (any, *ckbrpc.Error) {
		require.Equal(t, `"passthrough"`, string(params[1]))
		return tx.Hash(), nil
	}

	t.Run("unknown", func(t *testing.T) {
		n := newTestNode(t)
		n.handle("get_transaction", func(params []json.RawMessage) (any, *ckbrpc.Error) {
			require.Equal(t, `"0x1"`, string(params[1]))
			return nil, nil
		})
		n.handle("send_transaction", sendHandler)
		c := initTestClient(t, n)

		st, err := c.Broadcast(context.Background(), tx)
		require.NoError(t, err)
		require.Nil(t, st)
		require.Equal(t, 1, n.count("send_transaction"))
	})
	t.Run("known", func(t *testing.T) {
		n := newTestNode(t)
		n.handle("get_transaction", func([]json.RawMessage) (any, *ckbrpc.Error) {
			return ckbrpc.TransactionWithStatus{TxStatus: ckbrpc.TxStatus{Status: ckbrpc.TxStatusPending}}, nil
		})
		n.handle("send_transaction", sendHandler)
		c := initTestClient(t, n)

		st, err := c.Broadcast(context.Background(), tx)
		require.NoError(t, err)
		require.Equal(t, ckbrpc.TxStatusPending, st.Status)
		require.Equal(t, 0, n.count("send_transaction"))
	})
	t.Run("rejected", func(t *testing.T) {
		n := newTestNode(t)
		reason := "PoolRejectedRBF"
		n.handle("get_transaction", func([]json.RawMessage) (any, *ckbrpc.Error) {
			return ckbrpc.TransactionWithStatus{TxStatus: ckbrpc.TxStatus{Status: ckbrpc.TxStatusRejected, Reason: &reason}}, nil
		})
		n.handle("send_transaction", sendHandler)
		c := initTestClient(t, n)

		_, err := c.Broadcast(context.Background(), tx)
		require.NoError(t, err)
		require.Equal(t, 1, n.count("send_transaction"))
	})
	t.Run("send error", func(t *testing.T) {
		n := newTestNode(t)
		n.handle("get_transaction", func([]json.RawMessage) (any, *ckbrpc.Error) { return nil, nil })
		n.handle("send_transaction", func([]json.RawMessage) (any, *ckbrpc.Error) {
			return nil, &ckbrpc.Error{Code: -302, Message: "TransactionFailedToVerify"}
		})
		c := initTestClient(t, n)

		_, err := c.Broadcast(context.Background(), tx)
		require.ErrorContains(t, err, "TransactionFailedToVerify")
	})
}

func TestWaitTransaction(t *testing.T) {
	tx := testTx()

	t.Run("committed", func(t *testing.T) {
		n := newTestNode(t)
		var polls int
		n.handle("get_transaction", func([]json.RawMessage) (any, *ckbrpc.Error) {
			polls++
			switch {
			case polls == 1:
				return nil, nil
			case polls < 4:
				return ckbrpc.TransactionWithStatus{TxStatus: ckbrpc.TxStatus{Status: ckbrpc.TxStatusProposed}}, nil
			default:
				return ckbrpc.TransactionWithStatus{TxStatus: ckbrpc.TxStatus{Status: ckbrpc.TxStatusCommitted, BlockHash: &util.Uint256{7}}}, nil
			}
		})
		n.handle("send_transaction", func([]json.RawMessage) (any, *ckbrpc.Error) { return tx.Hash(), nil })
		c := initTestClient(t, n)

		st, err := c.WaitTransaction(context.Background(), tx)
		require.NoError(t, err)
		require.Equal(t, ckbrpc.TxStatusCommitted, st.Status)
		require.Equal(t, util.Uint256{7}, *st.BlockHash)
		require.Equal(t, 1, n.count("send_transaction"))
	})
	t.Run("duplicate is pending", func(t *testing.T) {
		n := newTestNode(t)
		var polls int
		dup := "PoolRejectedDuplicatedTransaction: code -1107"
		n.handle("get_transaction", func([]json.RawMessage) (any, *ckbrpc.Error) {
			polls++
			if polls < 3 {
				return ckbrpc.TransactionWithStatus{TxStatus: ckbrpc.TxStatus{Status: ckbrpc.TxStatusRejected, Reason: &dup}}, nil
			}
			return ckbrpc.TransactionWithStatus{TxStatus: ckbrpc.TxStatus{Status: ckbrpc.TxStatusCommitted}}, nil
		})
		n.handle("send_transaction", func([]json.RawMessage) (any, *ckbrpc.Error) { return tx.Hash(), nil })
		c := initTestClient(t, n)

		st, err := c.WaitTransaction(context.Background(), tx)
		require.NoError(t, err)
		require.Equal(t, ckbrpc.TxStatusCommitted, st.Status)
	})
	t.Run("cancelled", func(t *testing.T) {
		n := newTestNode(t)
		n.handle("get_transaction", func([]json.RawMessage) (any, *ckbrpc.Error) {
			return ckbrpc.TransactionWithStatus{TxStatus: ckbrpc.TxStatus{Status: ckbrpc.TxStatusPending}}, nil
		})
		c := initTestClient(t, n)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := c.WaitTransaction(ctx, tx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
