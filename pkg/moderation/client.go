// Package moderation is the client for the content moderation contract. It
// reads contract state into typed records and submits writes, waiting for
// them to be confirmed.
package moderation // import "github.com/joincivil/content-moderation-adapter/pkg/moderation"

import (
	"context"
	"crypto/ecdsa"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/joincivil/content-moderation-adapter/pkg/confirm"
	"github.com/joincivil/content-moderation-adapter/pkg/diagnostics"
	"github.com/joincivil/content-moderation-adapter/pkg/flatten"
	"github.com/joincivil/content-moderation-adapter/pkg/transport"
)

var (
	// DefaultGuidelineBudget is the poll budget for adding a guideline
	DefaultGuidelineBudget = confirm.Budget{Retries: 60, Interval: 2 * time.Second}
	// DefaultModerationBudget is the poll budget for moderating content
	DefaultModerationBudget = confirm.Budget{Retries: 24, Interval: 5 * time.Second}
	// DefaultDeployBudget is the poll budget for deploying the contract
	DefaultDeployBudget = confirm.Budget{Retries: 200, Interval: 3 * time.Second}
)

// AccountBackend is a backend that can open a session for another account
type AccountBackend interface {
	transport.ContractBackend
	ForAccount(ctx context.Context, key *ecdsa.PrivateKey) (transport.ContractBackend, error)
}

// ClientConfig configures a Client. Zero budgets use the defaults.
type ClientConfig struct {
	// ContractAddress is the hex address of the moderation contract
	ContractAddress  string
	GuidelineBudget  confirm.Budget
	ModerationBudget confirm.Budget
	DeployBudget     confirm.Budget
	// Sink receives decode diagnostics. Defaults to discarding them.
	Sink diagnostics.Sink
	// NewTimer overrides the timer used between status checks
	NewTimer func() backoff.Timer
}

// Client is a session against one moderation contract. It is immutable and
// safe for concurrent use; WithAccount and WithContract return new clients.
type Client struct {
	backend   transport.ContractBackend
	contract  common.Address
	configErr error

	guidelineBudget  confirm.Budget
	moderationBudget confirm.Budget
	deployBudget     confirm.Budget

	sink      diagnostics.Sink
	flattener *flatten.Flattener
	watcher   *confirm.Watcher
}

// NewClient returns a client for the contract on the backend. A missing
// backend or contract address does not fail construction; it is reported by
// ConfigError and short circuits every operation.
func NewClient(backend transport.ContractBackend, config *ClientConfig) *Client {
	if config == nil {
		config = &ClientConfig{}
	}
	c := &Client{
		backend:          backend,
		guidelineBudget:  budgetOrDefault(config.GuidelineBudget, DefaultGuidelineBudget),
		moderationBudget: budgetOrDefault(config.ModerationBudget, DefaultModerationBudget),
		deployBudget:     budgetOrDefault(config.DeployBudget, DefaultDeployBudget),
		sink:             diagnostics.OrNop(config.Sink),
	}
	c.flattener = flatten.NewFlattener(c.sink)
	if backend != nil {
		c.watcher = &confirm.Watcher{Reader: backend, NewTimer: config.NewTimer}
	}

	switch {
	case backend == nil:
		c.configErr = ErrNoContractConfigured
	case !common.IsHexAddress(config.ContractAddress):
		if config.ContractAddress != "" {
			log.Errorf("Invalid contract address %v", config.ContractAddress)
		}
		c.configErr = ErrNoContractConfigured
	default:
		c.contract = common.HexToAddress(config.ContractAddress)
	}
	return c
}

func budgetOrDefault(b confirm.Budget, def confirm.Budget) confirm.Budget {
	if b.Retries <= 0 {
		return def
	}
	return b
}

// ConfigError returns ErrNoContractConfigured if the client cannot reach a
// contract, nil otherwise
func (c *Client) ConfigError() error {
	return c.configErr
}

// ContractAddress returns the contract the client talks to
func (c *Client) ContractAddress() common.Address {
	return c.contract
}

// Account returns the address writes are sent from, or the zero address
func (c *Client) Account() common.Address {
	if c.backend == nil {
		return common.Address{}
	}
	return c.backend.Account()
}

// WithAccount returns a client sending writes from the key's account. The
// receiver is not modified and in flight calls on it are unaffected.
func (c *Client) WithAccount(ctx context.Context, key *ecdsa.PrivateKey) (*Client, error) {
	ab, ok := c.backend.(AccountBackend)
	if !ok {
		return nil, errors.New("Backend does not support switching accounts")
	}
	backend, err := ab.ForAccount(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "error opening account session")
	}
	next := *c
	next.backend = backend
	next.watcher = &confirm.Watcher{Reader: backend, NewTimer: c.watcher.NewTimer}
	return &next, nil
}

// WithContract returns a client for another contract on the same backend. The
// zero address leaves the client unconfigured.
func (c *Client) WithContract(contract common.Address) *Client {
	next := *c
	next.contract = contract
	switch {
	case contract == (common.Address{}):
		next.configErr = ErrNoContractConfigured
	case c.backend != nil:
		next.configErr = nil
	}
	return &next
}
