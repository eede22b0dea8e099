package simulated // import "github.com/joincivil/content-moderation-adapter/pkg/simulated"

import (
	"context"
	"crypto/ecdsa"
	"encoding/binary"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/joincivil/content-moderation-adapter/pkg/model"
	"github.com/joincivil/content-moderation-adapter/pkg/rawvalue"
	"github.com/joincivil/content-moderation-adapter/pkg/transport"
)

var (
	// ErrUnknownContract is returned for calls to an address with no contract
	ErrUnknownContract = errors.New("simulated: no contract at address")
	// ErrNoAccount is returned by writes from a backend without a sender
	ErrNoAccount = errors.New("simulated: no sender account")
)

// PayloadStyle selects how deployed contract addresses are reported in
// transaction status
type PayloadStyle int

const (
	// LocalnetPayload reports data.contract_address with a result
	LocalnetPayload PayloadStyle = iota
	// DecodedPayload reports txDataDecoded.contractAddress
	DecodedPayload
)

type simTx struct {
	hash     transport.TxHash
	statuses []model.TxStatus
	checks   int
	deployed *common.Address
}

// ledger is the state shared by all account sessions of a backend
type ledger struct {
	mu          sync.Mutex
	contracts   map[common.Address]*Contract
	txs         map[transport.TxHash]*simTx
	nonce       uint64
	script      []model.TxStatus
	readErr     error
	writeErr    error
	statusErr   error
	evaluator   Evaluator
	payload     PayloadStyle
	readCounter int
}

// Backend is an in-memory transport.ContractBackend. Writes are applied to
// the contract when submitted if the scripted status sequence ends in a
// confirmed status; status lookups then walk the sequence one step per check.
type Backend struct {
	sender common.Address
	ledger *ledger
}

// NewBackend returns an empty backend sending from the given account. The
// zero address makes a read only backend.
func NewBackend(sender common.Address, evaluator Evaluator) *Backend {
	return &Backend{
		sender: sender,
		ledger: &ledger{
			contracts: map[common.Address]*Contract{},
			txs:       map[transport.TxHash]*simTx{},
			script:    []model.TxStatus{model.TxStatusPending, model.TxStatusAccepted},
			evaluator: evaluator,
		},
	}
}

// ForAccount returns a session of the same ledger for another account. The
// receiver keeps its own sender.
func (b *Backend) ForAccount(ctx context.Context, key *ecdsa.PrivateKey) (transport.ContractBackend, error) {
	if key == nil {
		return nil, errors.New("simulated: nil key")
	}
	return b.WithSender(crypto.PubkeyToAddress(key.PublicKey)), nil
}

// WithSender returns a session of the same ledger for the given address
func (b *Backend) WithSender(sender common.Address) *Backend {
	return &Backend{sender: sender, ledger: b.ledger}
}

// Account implements transport.ContractWriter
func (b *Backend) Account() common.Address {
	return b.sender
}

// AddContract registers a contract and returns its address
func (b *Backend) AddContract(c *Contract) common.Address {
	b.ledger.mu.Lock()
	defer b.ledger.mu.Unlock()
	addr := crypto.CreateAddress(b.sender, b.ledger.nextNonce())
	b.ledger.contracts[addr] = c
	return addr
}

// Contract returns the contract at the address, or nil
func (b *Backend) Contract(addr common.Address) *Contract {
	b.ledger.mu.Lock()
	defer b.ledger.mu.Unlock()
	return b.ledger.contracts[addr]
}

// SetStatusScript sets the status sequence reported for subsequent writes.
// The last status repeats once reached. An empty script never leaves pending.
func (b *Backend) SetStatusScript(statuses ...model.TxStatus) {
	b.ledger.mu.Lock()
	defer b.ledger.mu.Unlock()
	b.ledger.script = append([]model.TxStatus{}, statuses...)
}

// SetPayloadStyle sets how deployed addresses are reported
func (b *Backend) SetPayloadStyle(style PayloadStyle) {
	b.ledger.mu.Lock()
	defer b.ledger.mu.Unlock()
	b.ledger.payload = style
}

// FailReads makes reads fail with err. nil restores them.
func (b *Backend) FailReads(err error) {
	b.ledger.mu.Lock()
	defer b.ledger.mu.Unlock()
	b.ledger.readErr = err
}

// FailWrites makes writes and deploys fail with err. nil restores them.
func (b *Backend) FailWrites(err error) {
	b.ledger.mu.Lock()
	defer b.ledger.mu.Unlock()
	b.ledger.writeErr = err
}

// FailStatus makes status lookups fail with err. nil restores them.
func (b *Backend) FailStatus(err error) {
	b.ledger.mu.Lock()
	defer b.ledger.mu.Unlock()
	b.ledger.statusErr = err
}

// StatusChecks returns the number of status lookups made for the hash
func (b *Backend) StatusChecks(hash transport.TxHash) int {
	b.ledger.mu.Lock()
	defer b.ledger.mu.Unlock()
	tx, ok := b.ledger.txs[hash]
	if !ok {
		return 0
	}
	return tx.checks
}

// Reads returns the number of reads served
func (b *Backend) Reads() int {
	b.ledger.mu.Lock()
	defer b.ledger.mu.Unlock()
	return b.ledger.readCounter
}

// Read implements transport.ContractReader
func (b *Backend) Read(ctx context.Context, contract common.Address, method string,
	args []interface{}) (rawvalue.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.ledger.mu.Lock()
	c, ok := b.ledger.contracts[contract]
	readErr := b.ledger.readErr
	b.ledger.readCounter++
	b.ledger.mu.Unlock()

	if readErr != nil {
		return nil, readErr
	}
	if !ok {
		return nil, ErrUnknownContract
	}
	return c.Call(method, goArgs(args))
}

// Write implements transport.ContractWriter
func (b *Backend) Write(ctx context.Context, contract common.Address, method string,
	args []interface{}, value *big.Int) (transport.TxHash, error) {
	if err := ctx.Err(); err != nil {
		return transport.TxHash{}, err
	}
	if b.sender == (common.Address{}) {
		return transport.TxHash{}, ErrNoAccount
	}
	b.ledger.mu.Lock()
	defer b.ledger.mu.Unlock()
	if b.ledger.writeErr != nil {
		return transport.TxHash{}, b.ledger.writeErr
	}
	c, ok := b.ledger.contracts[contract]
	if !ok {
		return transport.TxHash{}, ErrUnknownContract
	}

	tx := b.ledger.newTx()
	if confirms(tx.statuses) {
		// Contract errors surface as a canceled transaction, not a
		// submission failure.
		if err := c.Execute(b.sender, method, goArgs(args)); err != nil {
			tx.statuses = []model.TxStatus{model.TxStatusPending, model.TxStatusCanceled}
		}
	}
	return tx.hash, nil
}

// Deploy implements transport.ContractWriter. The code is not interpreted;
// every deployment creates an empty moderation contract.
func (b *Backend) Deploy(ctx context.Context, code []byte, args []interface{}) (transport.TxHash, error) {
	if err := ctx.Err(); err != nil {
		return transport.TxHash{}, err
	}
	if b.sender == (common.Address{}) {
		return transport.TxHash{}, ErrNoAccount
	}
	b.ledger.mu.Lock()
	defer b.ledger.mu.Unlock()
	if b.ledger.writeErr != nil {
		return transport.TxHash{}, b.ledger.writeErr
	}
	tx := b.ledger.newTx()
	if confirms(tx.statuses) {
		addr := crypto.CreateAddress(b.sender, b.ledger.nextNonce())
		b.ledger.contracts[addr] = NewContract(b.ledger.evaluator)
		tx.deployed = &addr
	}
	return tx.hash, nil
}

// TransactionStatus implements transport.StatusReader. The report is built
// as a raw transaction object and parsed like one from a node.
func (b *Backend) TransactionStatus(ctx context.Context, hash transport.TxHash) (*transport.StatusReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.ledger.mu.Lock()
	defer b.ledger.mu.Unlock()
	tx, ok := b.ledger.txs[hash]
	if !ok {
		return transport.ParseStatusReport(rawvalue.Null{}), nil
	}
	tx.checks++
	if b.ledger.statusErr != nil {
		return nil, b.ledger.statusErr
	}

	status := model.TxStatusPending
	if len(tx.statuses) > 0 {
		idx := tx.checks - 1
		if idx >= len(tx.statuses) {
			idx = len(tx.statuses) - 1
		}
		status = tx.statuses[idx]
	}
	return transport.ParseStatusReport(b.ledger.txValue(tx, status)), nil
}

func (l *ledger) nextNonce() uint64 {
	l.nonce++
	return l.nonce
}

func (l *ledger) newTx() *simTx {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], l.nextNonce())
	tx := &simTx{
		hash:     transport.TxHash(crypto.Keccak256Hash(buf[:])),
		statuses: append([]model.TxStatus{}, l.script...),
	}
	l.txs[tx.hash] = tx
	return tx
}

func (l *ledger) txValue(tx *simTx, status model.TxStatus) rawvalue.Value {
	out := rawvalue.Entries{
		{Key: rawvalue.String("hash"), Value: rawvalue.String(tx.hash.Hex())},
		{Key: rawvalue.String("status"), Value: rawvalue.Int(int64(status))},
		{Key: rawvalue.String("statusName"), Value: rawvalue.String(status.String())},
	}
	if tx.deployed == nil || !status.Confirmed() {
		return out
	}
	addr := rawvalue.Address(*tx.deployed).Hex()
	switch l.payload {
	case DecodedPayload:
		out = append(out, rawvalue.Pair{
			Key: rawvalue.String("txDataDecoded"),
			Value: rawvalue.Entries{
				{Key: rawvalue.String(transport.DecodedContractAddressFieldName), Value: rawvalue.String(addr)},
			},
		})
	default:
		out = append(out,
			rawvalue.Pair{Key: rawvalue.String("result"), Value: rawvalue.Int(0)},
			rawvalue.Pair{
				Key: rawvalue.String("data"),
				Value: rawvalue.Entries{
					{Key: rawvalue.String(transport.ContractAddressFieldName), Value: rawvalue.String(addr)},
				},
			},
		)
	}
	return out
}

func confirms(statuses []model.TxStatus) bool {
	return len(statuses) > 0 && statuses[len(statuses)-1].Confirmed()
}

func goArgs(args []interface{}) []rawvalue.Value {
	out := make([]rawvalue.Value, len(args))
	for i, arg := range args {
		out[i] = rawvalue.FromGo(arg)
	}
	return out
}
