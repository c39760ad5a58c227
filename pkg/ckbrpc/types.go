/*
Package ckbrpc contains a set of types used for JSON-RPC communication with
CKB nodes: basic request/response types, errors and results of the methods
used by the client.
*/
package ckbrpc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nspcc-dev/ckb-multisig/pkg/core/transaction"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

const (
	// JSONRPCVersion is the only JSON-RPC protocol version supported.
	JSONRPCVersion = "2.0"
)

// Transaction statuses returned by get_transaction.
const (
	TxStatusPending   = "pending"
	TxStatusProposed  = "proposed"
	TxStatusCommitted = "committed"
	TxStatusUnknown   = "unknown"
	TxStatusRejected  = "rejected"
)

// CellStatusLive is the status of an unspent cell.
const CellStatusLive = "live"

// DuplicatedTransactionCode is the pool error code for a transaction that is
// already there.
const DuplicatedTransactionCode = -1107

type (
	// Request represents JSON-RPC request.
	Request struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  []any  `json:"params"`
		ID      uint64 `json:"id"`
	}

	// Response represents a standard raw JSON-RPC 2.0 response.
	Response struct {
		ID      json.RawMessage `json:"id"`
		JSONRPC string          `json:"jsonrpc"`
		Error   *Error          `json:"error,omitempty"`
		Result  json.RawMessage `json:"result,omitempty"`
	}

	// Error represents JSON-RPC error returned by the node.
	Error struct {
		Code    int64  `json:"code"`
		Message string `json:"message"`
		Data    string `json:"data,omitempty"`
	}

	// CellData is the content of a cell along with its hash.
	CellData struct {
		Content util.Bytes   `json:"content"`
		Hash    util.Uint256 `json:"hash"`
	}

	// CellInfo is a cell returned by get_live_cell.
	CellInfo struct {
		Output transaction.CellOutput `json:"output"`
		Data   *CellData              `json:"data"`
	}

	// LiveCell is the result of get_live_cell.
	LiveCell struct {
		Cell   *CellInfo `json:"cell"`
		Status string    `json:"status"`
	}

	// TxStatus is the transaction status.
	TxStatus struct {
		Status    string        `json:"status"`
		BlockHash *util.Uint256 `json:"block_hash"`
		Reason    *string       `json:"reason"`
	}

	// TransactionWithStatus is the result of get_transaction.
	TransactionWithStatus struct {
		Transaction *transaction.Transaction `json:"transaction"`
		TxStatus    TxStatus                 `json:"tx_status"`
	}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Data == "" {
		return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("RPC error %d: %s (%s)", e.Code, e.Message, e.Data)
}

// IsDone checks whether the status is final.
func (s *TxStatus) IsDone() bool {
	return s.Status == TxStatusCommitted || s.Status == TxStatusRejected
}

// IsDuplicate checks whether the transaction is rejected because the pool
// already has it, such transaction is still pending.
func (s *TxStatus) IsDuplicate() bool {
	return s.Status == TxStatusRejected && s.Reason != nil &&
		strings.Contains(*s.Reason, fmt.Sprint(DuplicatedTransactionCode))
}
