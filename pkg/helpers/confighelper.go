// Package helpers contains various common helper functions.
// Normally they are shared functions used by the cmds.
package helpers

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/golang/glog"

	"github.com/joincivil/content-moderation-adapter/pkg/confirm"
	"github.com/joincivil/content-moderation-adapter/pkg/diagnostics"
	"github.com/joincivil/content-moderation-adapter/pkg/model"
	"github.com/joincivil/content-moderation-adapter/pkg/moderation"
	"github.com/joincivil/content-moderation-adapter/pkg/persistence"
	"github.com/joincivil/content-moderation-adapter/pkg/transport"
	"github.com/joincivil/content-moderation-adapter/pkg/transport/rpc"
	"github.com/joincivil/content-moderation-adapter/pkg/utils"
)

const (
	// decode traces are logged at this verbosity
	diagnosticsVerbosity = 2
)

// Persister is a helper function to return an interface{} that is a initialized
// persister type
func Persister(config *utils.ModerationConfig) (interface{}, error) {
	switch config.PersisterType {
	case utils.PersisterTypePostgresql:
		return postgresPersister(config)
	case utils.PersisterTypeMemory:
		return persistence.NewMemoryPersister(), nil
	}
	// Default to the NullPersister
	return &persistence.NullPersister{}, nil
}

// CronPersister is a helper function to return the correct cron persister based on
// the given configuration
func CronPersister(config *utils.ModerationConfig) (model.CronPersister, error) {
	p, err := Persister(config)
	if err != nil {
		return nil, err
	}
	return p.(model.CronPersister), nil
}

// GuidelinePersister is a helper function to return the correct guideline persister based on
// the given configuration
func GuidelinePersister(config *utils.ModerationConfig) (model.GuidelinePersister, error) {
	p, err := Persister(config)
	if err != nil {
		return nil, err
	}
	return p.(model.GuidelinePersister), nil
}

// ModerationResultPersister is a helper function to return the correct moderation result
// persister based on the given configuration
func ModerationResultPersister(config *utils.ModerationConfig) (model.ModerationResultPersister, error) {
	p, err := Persister(config)
	if err != nil {
		return nil, err
	}
	return p.(model.ModerationResultPersister), nil
}

func postgresPersister(config *utils.ModerationConfig) (*persistence.PostgresPersister, error) {
	persister, err := persistence.NewPostgresPersister(
		config.PersisterPostgresAddress,
		config.PersisterPostgresPort,
		config.PersisterPostgresUser,
		config.PersisterPostgresPw,
		config.PersisterPostgresDbname,
	)
	if err != nil {
		return nil, err
	}
	// Attempts to create all the necessary tables here
	err = persister.CreateTables()
	if err != nil {
		return nil, err
	}
	return persister, nil
}

// RPCConfig builds the JSON-RPC backend config from the given configuration
func RPCConfig(config *utils.ModerationConfig) (*rpc.Config, error) {
	key, err := config.PrivateKey()
	if err != nil {
		return nil, err
	}
	rpcConfig := &rpc.Config{
		PrivateKey:    key,
		ChainID:       config.ChainIDBig(),
		GasLimit:      config.GasLimit,
		NumValidators: config.NumValidators,
		MaxRotations:  config.MaxRotations,
		LeaderOnly:    config.LeaderOnly,
	}
	if config.ConsensusAddress != "" {
		rpcConfig.ConsensusAddress = common.HexToAddress(config.ConsensusAddress)
	}
	return rpcConfig, nil
}

// Backend dials the JSON-RPC endpoint in the given configuration
func Backend(ctx context.Context, config *utils.ModerationConfig) (*rpc.Backend, error) {
	rpcConfig, err := RPCConfig(config)
	if err != nil {
		return nil, err
	}
	backend, err := rpc.Dial(ctx, config.EndpointURL, rpcConfig)
	if err != nil {
		return nil, err
	}
	if backend.Account() == (common.Address{}) {
		log.Infof("No account configured, connected read only to %v", config.EndpointURL)
	} else {
		log.Infof("Connected to %v as %v", config.EndpointURL, backend.Account().Hex())
	}
	return backend, nil
}

// ClientConfig builds the moderation client config from the given configuration
func ClientConfig(config *utils.ModerationConfig) *moderation.ClientConfig {
	return &moderation.ClientConfig{
		ContractAddress: config.ContractAddress,
		GuidelineBudget: confirm.Budget{
			Retries:  config.GuidelinePollRetries,
			Interval: config.GuidelinePollInterval,
		},
		ModerationBudget: confirm.Budget{
			Retries:  config.ModerationPollRetries,
			Interval: config.ModerationPollInterval,
		},
		DeployBudget: confirm.Budget{
			Retries:  config.DeployPollRetries,
			Interval: config.DeployPollInterval,
		},
		Sink: diagnostics.GlogSink{Verbosity: diagnosticsVerbosity},
	}
}

// Client returns a moderation client on the backend for the given configuration
func Client(backend transport.ContractBackend, config *utils.ModerationConfig) *moderation.Client {
	client := moderation.NewClient(backend, ClientConfig(config))
	if client.ConfigError() != nil {
		log.Warningf("Moderation client not configured: %v", client.ConfigError())
	}
	return client
}
