package rpcclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nspcc-dev/ckb-multisig/pkg/ckbrpc"
	"github.com/nspcc-dev/ckb-multisig/pkg/core/transaction"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

const defaultPollInterval = 3 * time.Second

// ErrDeadCell is returned when an input refers to a cell that is not live.
var ErrDeadCell = errors.New("cell is not live")

// GetLiveCell returns the cell referenced by op along with its data.
func (c *Client) GetLiveCell(op transaction.OutPoint) (*ckbrpc.LiveCell, error) {
	return c.getLiveCell(c.ctx, op)
}

func (c *Client) getLiveCell(ctx context.Context, op transaction.OutPoint) (*ckbrpc.LiveCell, error) {
	var resp = new(ckbrpc.LiveCell)
	if err := c.performRequest(ctx, "get_live_cell", []any{op, true}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SendTransaction broadcasts the transaction and returns its hash.
func (c *Client) SendTransaction(tx *transaction.Transaction) (util.Uint256, error) {
	return c.sendTransaction(c.ctx, tx)
}

func (c *Client) sendTransaction(ctx context.Context, tx *transaction.Transaction) (util.Uint256, error) {
	var h util.Uint256
	if err := c.performRequest(ctx, "send_transaction", []any{tx, "passthrough"}, &h); err != nil {
		return h, err
	}
	return h, nil
}

// GetTransactionStatus returns the status of the transaction, a nil status
// means the node doesn't know it.
func (c *Client) GetTransactionStatus(h util.Uint256) (*ckbrpc.TxStatus, error) {
	return c.getTransactionStatus(c.ctx, h)
}

func (c *Client) getTransactionStatus(ctx context.Context, h util.Uint256) (*ckbrpc.TxStatus, error) {
	var resp *ckbrpc.TransactionWithStatus
	// Verbosity 1 omits the transaction itself.
	if err := c.performRequest(ctx, "get_transaction", []any{h, util.Uint32(1), false}, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return &resp.TxStatus, nil
}

// ResolveInputs fetches the cells consumed by tx inputs. Every cell must be
// live.
func (c *Client) ResolveInputs(ctx context.Context, tx *transaction.Transaction) (map[transaction.OutPoint]transaction.CellWithData, error) {
	res := make(map[transaction.OutPoint]transaction.CellWithData, len(tx.Inputs))
	for _, in := range tx.Inputs {
		op := in.PreviousOutput
		if _, ok := res[op]; ok {
			continue
		}
		cell, err := c.getLiveCell(ctx, op)
		if err != nil {
			return nil, fmt.Errorf("cell %s: %w", op, err)
		}
		if cell.Status != ckbrpc.CellStatusLive || cell.Cell == nil {
			return nil, fmt.Errorf("%w: %s is %s", ErrDeadCell, op, cell.Status)
		}
		var data []byte
		if cell.Cell.Data != nil {
			data = cell.Cell.Data.Content
		}
		res[op] = transaction.CellWithData{Output: cell.Cell.Output, Data: data}
	}
	return res, nil
}

// Broadcast sends the transaction unless the node already knows it and it's
// not rejected. It returns the status known before sending, nil if the
// transaction was sent.
func (c *Client) Broadcast(ctx context.Context, tx *transaction.Transaction) (*ckbrpc.TxStatus, error) {
	st, err := c.getTransactionStatus(ctx, tx.Hash())
	if err != nil {
		return nil, err
	}
	if st != nil && st.Status != ckbrpc.TxStatusUnknown && st.Status != ckbrpc.TxStatusRejected {
		return st, nil
	}
	h, err := c.sendTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	if h != tx.Hash() {
		return nil, fmt.Errorf("node returned hash %s for %s", h.StringPrefixed(), tx.Hash().StringPrefixed())
	}
	return nil, nil
}

// WaitTransaction rebroadcasts the transaction until it's committed or
// rejected and returns the final status. A rejection because of a duplicate
// in the pool is not final.
func (c *Client) WaitTransaction(ctx context.Context, tx *transaction.Transaction) (*ckbrpc.TxStatus, error) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
		st, err := c.Broadcast(ctx, tx)
		if err != nil {
			return nil, err
		}
		if st != nil && st.IsDone() && !st.IsDuplicate() {
			return st, nil
		}
		timer.Reset(c.opts.PollInterval)
	}
}
