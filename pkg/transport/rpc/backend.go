// Package rpc is a JSON-RPC implementation of the transport boundary. Reads
// go through gen_call; writes are submitted to the consensus main contract as
// signed Ethereum transactions.
package rpc // import "github.com/joincivil/content-moderation-adapter/pkg/transport/rpc"

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	log "github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/joincivil/content-moderation-adapter/pkg/calldata"
	"github.com/joincivil/content-moderation-adapter/pkg/rawvalue"
	"github.com/joincivil/content-moderation-adapter/pkg/transport"
)

const (
	readCallType          = "read"
	readHashVariant       = "latest-nonfinal"
	pendingBlockTag       = "pending"
	defaultGasLimit       = uint64(30000000)
	defaultNumValidators  = int64(5)
	defaultMaxRotations   = int64(3)
	defaultReceiptTries   = 10
	defaultReceiptBackoff = 500 * time.Millisecond
)

var (
	// ErrNoAccount is returned by writes on a backend without a signing key
	ErrNoAccount = errors.New("rpc: no account configured for writes")

	// ErrNoTransactionID is the reason reported when the submission receipt
	// carries no NewTransaction event
	ErrNoTransactionID = errors.New("rpc: no transaction id in receipt")

	// ErrSubmissionReverted is returned when the submission was mined but
	// reverted, so the write never reached the ledger
	ErrSubmissionReverted = errors.New("rpc: submission reverted")
)

// Config is the configuration of a Backend
type Config struct {
	// PrivateKey signs writes. Reads work without it.
	PrivateKey *ecdsa.PrivateKey
	// ConsensusAddress is the consensus main contract. Looked up from the node
	// when empty.
	ConsensusAddress common.Address
	// ChainID is used for signing. Looked up from the node when nil.
	ChainID       *big.Int
	GasLimit      uint64
	NumValidators int64
	MaxRotations  int64
	LeaderOnly    bool
	// ReceiptTries bounds the lookups of the submission receipt
	ReceiptTries   int
	ReceiptBackoff time.Duration
}

func (c *Config) withDefaults() Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if out.GasLimit == 0 {
		out.GasLimit = defaultGasLimit
	}
	if out.NumValidators == 0 {
		out.NumValidators = defaultNumValidators
	}
	if out.MaxRotations == 0 {
		out.MaxRotations = defaultMaxRotations
	}
	if out.ReceiptTries == 0 {
		out.ReceiptTries = defaultReceiptTries
	}
	if out.ReceiptBackoff == 0 {
		out.ReceiptBackoff = defaultReceiptBackoff
	}
	return out
}

// Backend talks to a node over JSON-RPC. It is safe for concurrent use and
// is not modified after construction.
type Backend struct {
	client       *gethrpc.Client
	cfg          Config
	account      common.Address
	consensusABI abi.ABI
}

// Dial connects to the node at the endpoint and builds a Backend
func Dial(ctx context.Context, endpoint string, cfg *Config) (*Backend, error) {
	client, err := gethrpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "error dialing %v", endpoint)
	}
	backend, err := NewBackend(ctx, client, cfg)
	if err != nil {
		client.Close()
		return nil, err
	}
	return backend, nil
}

// NewBackend builds a Backend on an existing client. When a private key is
// configured, the chain id and consensus address are resolved now so the
// backend never changes afterwards.
func NewBackend(ctx context.Context, client *gethrpc.Client, cfg *Config) (*Backend, error) {
	parsed, err := ConsensusABI()
	if err != nil {
		return nil, errors.Wrap(err, "error parsing consensus abi")
	}
	b := &Backend{
		client:       client,
		cfg:          cfg.withDefaults(),
		consensusABI: parsed,
	}
	if b.cfg.PrivateKey == nil {
		return b, nil
	}
	b.account = crypto.PubkeyToAddress(b.cfg.PrivateKey.PublicKey)
	if b.cfg.ChainID == nil {
		var chainID hexutil.Big
		err = client.CallContext(ctx, &chainID, "eth_chainId")
		if err != nil {
			return nil, errors.Wrap(err, "error retrieving chain id")
		}
		b.cfg.ChainID = chainID.ToInt()
	}
	if b.cfg.ConsensusAddress == (common.Address{}) {
		var contract struct {
			Address common.Address `json:"address"`
		}
		err = client.CallContext(ctx, &contract, "sim_getConsensusContract", consensusMainContractName)
		if err != nil {
			return nil, errors.Wrap(err, "error retrieving consensus contract address")
		}
		b.cfg.ConsensusAddress = contract.Address
	}
	log.Infof("RPC backend ready for account %v, consensus %v", b.account.Hex(), b.cfg.ConsensusAddress.Hex())
	return b, nil
}

// WithKey returns a new Backend for another account on the same connection.
// The receiver is left untouched.
func (b *Backend) WithKey(ctx context.Context, key *ecdsa.PrivateKey) (*Backend, error) {
	cfg := b.cfg
	cfg.PrivateKey = key
	return NewBackend(ctx, b.client, &cfg)
}

// Account returns the address writes are sent from, or the zero address
func (b *Backend) Account() common.Address {
	return b.account
}

// Close closes the underlying connection
func (b *Backend) Close() {
	b.client.Close()
}

// Read implements transport.ContractReader
func (b *Backend) Read(ctx context.Context, contract common.Address, method string,
	args []interface{}) (rawvalue.Value, error) {
	encoded, err := calldata.Encode(calldata.MakeCallObject(method, args))
	if err != nil {
		return nil, errors.Wrapf(err, "error encoding call to %v", method)
	}
	data, err := rlp.EncodeToBytes([]interface{}{encoded, b.cfg.LeaderOnly})
	if err != nil {
		return nil, errors.Wrapf(err, "error serializing call to %v", method)
	}
	params := map[string]interface{}{
		"type":                     readCallType,
		"to":                       contract.Hex(),
		"from":                     b.account.Hex(),
		"data":                     hexutil.Encode(data),
		"transaction_hash_variant": readHashVariant,
	}
	var result string
	err = b.client.CallContext(ctx, &result, "gen_call", params)
	if err != nil {
		return nil, errors.Wrapf(err, "error calling %v", method)
	}
	return decodeResult(result)
}

func decodeResult(result string) (rawvalue.Value, error) {
	result = strings.TrimPrefix(result, "0x")
	if result == "" {
		return rawvalue.Null{}, nil
	}
	raw, err := hexutil.Decode("0x" + result)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding result hex")
	}
	return calldata.Decode(raw)
}

// Write implements transport.ContractWriter
func (b *Backend) Write(ctx context.Context, contract common.Address, method string,
	args []interface{}, value *big.Int) (transport.TxHash, error) {
	encoded, err := calldata.Encode(calldata.MakeCallObject(method, args))
	if err != nil {
		return transport.TxHash{}, errors.Wrapf(err, "error encoding call to %v", method)
	}
	txData, err := rlp.EncodeToBytes([]interface{}{encoded, b.cfg.LeaderOnly})
	if err != nil {
		return transport.TxHash{}, errors.Wrapf(err, "error serializing call to %v", method)
	}
	return b.addTransaction(ctx, contract, txData, value)
}

// Deploy implements transport.ContractWriter
func (b *Backend) Deploy(ctx context.Context, code []byte, args []interface{}) (transport.TxHash, error) {
	encoded, err := calldata.Encode(calldata.MakeCallObject("", args))
	if err != nil {
		return transport.TxHash{}, errors.Wrap(err, "error encoding constructor args")
	}
	txData, err := rlp.EncodeToBytes([]interface{}{code, encoded, b.cfg.LeaderOnly})
	if err != nil {
		return transport.TxHash{}, errors.Wrap(err, "error serializing deploy data")
	}
	return b.addTransaction(ctx, common.Address{}, txData, big.NewInt(0))
}

func (b *Backend) addTransaction(ctx context.Context, recipient common.Address, txData []byte,
	value *big.Int) (transport.TxHash, error) {
	if b.cfg.PrivateKey == nil {
		return transport.TxHash{}, ErrNoAccount
	}
	if value == nil {
		value = big.NewInt(0)
	}
	input, err := b.consensusABI.Pack(addTransactionMethodName, b.account, recipient,
		big.NewInt(b.cfg.NumValidators), big.NewInt(b.cfg.MaxRotations), txData)
	if err != nil {
		return transport.TxHash{}, errors.Wrap(err, "error packing addTransaction")
	}

	var nonce hexutil.Uint64
	err = b.client.CallContext(ctx, &nonce, "eth_getTransactionCount", b.account, pendingBlockTag)
	if err != nil {
		return transport.TxHash{}, errors.Wrap(err, "error retrieving nonce")
	}
	gasPrice := big.NewInt(0)
	var price hexutil.Big
	if err = b.client.CallContext(ctx, &price, "eth_gasPrice"); err == nil {
		gasPrice = price.ToInt()
	} else {
		log.Warningf("Error retrieving gas price, using 0: err: %v", err)
	}

	consensus := b.cfg.ConsensusAddress
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    uint64(nonce),
		GasPrice: gasPrice,
		Gas:      b.cfg.GasLimit,
		To:       &consensus,
		Value:    value,
		Data:     input,
	})
	signed, err := types.SignTx(tx, types.NewEIP155Signer(b.cfg.ChainID), b.cfg.PrivateKey)
	if err != nil {
		return transport.TxHash{}, errors.Wrap(err, "error signing transaction")
	}
	rawTx, err := signed.MarshalBinary()
	if err != nil {
		return transport.TxHash{}, errors.Wrap(err, "error encoding transaction")
	}

	var ethHash common.Hash
	err = b.client.CallContext(ctx, &ethHash, "eth_sendRawTransaction", hexutil.Encode(rawTx))
	if err != nil {
		return transport.TxHash{}, errors.Wrap(err, "error sending transaction")
	}
	log.Infof("Sent transaction %v from %v", ethHash.Hex(), b.account.Hex())
	return b.transactionID(ctx, ethHash)
}

type ethLog struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
}

type ethReceipt struct {
	Status *hexutil.Uint64 `json:"status"`
	Logs   []*ethLog       `json:"logs"`
}

// transactionID waits for the submission receipt and pulls the ledger
// transaction id from the NewTransaction event. Once the transaction is sent
// only a reverted receipt is a rejection; every other failure to learn the id
// is an UnconfirmedSubmissionError.
func (b *Backend) transactionID(ctx context.Context, ethHash common.Hash) (transport.TxHash, error) {
	event, ok := b.consensusABI.Events[newTransactionEventName]
	if !ok {
		return transport.TxHash{}, errors.New("rpc: consensus abi has no NewTransaction event")
	}
	for i := 0; i < b.cfg.ReceiptTries; i++ {
		var receipt *ethReceipt
		err := b.client.CallContext(ctx, &receipt, "eth_getTransactionReceipt", ethHash)
		if err != nil {
			return transport.TxHash{}, &transport.UnconfirmedSubmissionError{
				Submission: ethHash,
				Reason:     errors.Wrap(err, "error retrieving submission receipt").Error(),
			}
		}
		if receipt != nil {
			if receipt.Status != nil && *receipt.Status == 0 {
				return transport.TxHash{}, errors.Wrapf(ErrSubmissionReverted, "submission %v", ethHash.Hex())
			}
			for _, l := range receipt.Logs {
				if l == nil || l.Address != b.cfg.ConsensusAddress || len(l.Topics) < 2 {
					continue
				}
				if l.Topics[0] == event.ID {
					return transport.TxHash(l.Topics[1]), nil
				}
			}
			return transport.TxHash{}, &transport.UnconfirmedSubmissionError{
				Submission: ethHash,
				Reason:     ErrNoTransactionID.Error(),
			}
		}
		select {
		case <-ctx.Done():
			return transport.TxHash{}, &transport.UnconfirmedSubmissionError{
				Submission: ethHash,
				Reason:     ctx.Err().Error(),
			}
		case <-time.After(b.cfg.ReceiptBackoff):
		}
	}
	return transport.TxHash{}, &transport.UnconfirmedSubmissionError{
		Submission: ethHash,
		Reason:     fmt.Sprintf("no receipt after %v lookups", b.cfg.ReceiptTries),
	}
}

// TransactionStatus implements transport.StatusReader. A transaction the node
// does not know yet is reported with an unknown status.
func (b *Backend) TransactionStatus(ctx context.Context, hash transport.TxHash) (*transport.StatusReport, error) {
	var result json.RawMessage
	err := b.client.CallContext(ctx, &result, "eth_getTransactionByHash", hash.Hex())
	if err != nil {
		return nil, errors.Wrapf(err, "error retrieving transaction %v", hash.Hex())
	}
	if len(result) == 0 {
		return transport.ParseStatusReport(rawvalue.Null{}), nil
	}
	raw, err := rawvalue.FromJSON(result)
	if err != nil {
		return nil, errors.Wrapf(err, "error decoding transaction %v", hash.Hex())
	}
	return transport.ParseStatusReport(raw), nil
}

// ForAccount returns a backend for the key's account as a
// transport.ContractBackend
func (b *Backend) ForAccount(ctx context.Context, key *ecdsa.PrivateKey) (transport.ContractBackend, error) {
	return b.WithKey(ctx, key)
}
