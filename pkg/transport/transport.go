// Package transport defines the boundary between the moderation adapter and
// the ledger: reading contract methods, submitting writes and looking up
// transaction status.
package transport // import "github.com/joincivil/content-moderation-adapter/pkg/transport"

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/joincivil/content-moderation-adapter/pkg/rawvalue"
)

// TxHash identifies a submitted ledger transaction
type TxHash common.Hash

// Hex returns the 0x prefixed hex form of the hash
func (h TxHash) Hex() string {
	return common.Hash(h).Hex()
}

// String returns the hex form of the hash
func (h TxHash) String() string {
	return h.Hex()
}

// HexToTxHash converts a hex string to a TxHash
func HexToTxHash(s string) TxHash {
	return TxHash(common.HexToHash(s))
}

// ContractReader reads contract view methods
type ContractReader interface {
	// Read calls a view method and returns its raw, undecoded result
	Read(ctx context.Context, contract common.Address, method string, args []interface{}) (rawvalue.Value, error)
}

// ContractWriter submits state changing calls
type ContractWriter interface {
	// Write submits a call of a write method. The returned hash is the
	// handle used to poll the transaction. An UnconfirmedSubmissionError
	// means the call was sent but may or may not execute; any other error
	// means it never entered the pending pool.
	Write(ctx context.Context, contract common.Address, method string, args []interface{},
		value *big.Int) (TxHash, error)
	// Deploy submits a contract deployment
	Deploy(ctx context.Context, code []byte, args []interface{}) (TxHash, error)
	// Account returns the address writes are sent from, or the zero address
	// when the writer has no account
	Account() common.Address
}

// StatusReader looks up the status of submitted transactions
type StatusReader interface {
	// TransactionStatus returns the current status of the transaction
	TransactionStatus(ctx context.Context, hash TxHash) (*StatusReport, error)
}

// ContractBackend is everything the adapter needs from the ledger
type ContractBackend interface {
	ContractReader
	ContractWriter
	StatusReader
}
