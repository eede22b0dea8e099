package helpers_test

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/joincivil/content-moderation-adapter/pkg/helpers"
	"github.com/joincivil/content-moderation-adapter/pkg/model"
	"github.com/joincivil/content-moderation-adapter/pkg/moderation"
	"github.com/joincivil/content-moderation-adapter/pkg/persistence"
	"github.com/joincivil/content-moderation-adapter/pkg/simulated"
	"github.com/joincivil/content-moderation-adapter/pkg/utils"
)

const (
	testPrivateKey = "289c2857d4598e37fb9647507e47a309d6133539bf21a8b9cb6df88fd5232032"
)

func TestPersisterTypes(t *testing.T) {
	config := &utils.ModerationConfig{PersisterType: utils.PersisterTypeNone}
	p, err := helpers.Persister(config)
	if err != nil {
		t.Fatalf("Should not have failed: err: %v", err)
	}
	if _, ok := p.(*persistence.NullPersister); !ok {
		t.Errorf("Should have returned a null persister, got %T", p)
	}

	config.PersisterType = utils.PersisterTypeMemory
	p, err = helpers.Persister(config)
	if err != nil {
		t.Fatalf("Should not have failed: err: %v", err)
	}
	if _, ok := p.(*persistence.MemoryPersister); !ok {
		t.Errorf("Should have returned a memory persister, got %T", p)
	}

	if _, err := helpers.CronPersister(config); err != nil {
		t.Errorf("Should have returned a cron persister: err: %v", err)
	}
	if _, err := helpers.GuidelinePersister(config); err != nil {
		t.Errorf("Should have returned a guideline persister: err: %v", err)
	}
	if _, err := helpers.ModerationResultPersister(config); err != nil {
		t.Errorf("Should have returned a moderation result persister: err: %v", err)
	}
}

func TestRPCConfig(t *testing.T) {
	config := &utils.ModerationConfig{
		AccountPrivateKey: testPrivateKey,
		ConsensusAddress:  "0xb7278a61aa25c888815afc32ad3cc52ff24fe575",
		ChainID:           61999,
		NumValidators:     3,
		LeaderOnly:        true,
	}
	rpcConfig, err := helpers.RPCConfig(config)
	if err != nil {
		t.Fatalf("Should not have failed: err: %v", err)
	}
	if rpcConfig.PrivateKey == nil {
		t.Errorf("Should have parsed the key")
	}
	if rpcConfig.ConsensusAddress != common.HexToAddress(config.ConsensusAddress) {
		t.Errorf("Should have set the consensus address")
	}
	if rpcConfig.ChainID.Int64() != 61999 || rpcConfig.NumValidators != 3 || !rpcConfig.LeaderOnly {
		t.Errorf("Should have copied the network settings")
	}

	config.AccountPrivateKey = "nope"
	if _, err := helpers.RPCConfig(config); err == nil {
		t.Errorf("Should have failed on a bad key")
	}
}

func TestClientFromConfig(t *testing.T) {
	backend := simulated.NewBackend(common.HexToAddress("0x01"), simulated.KeywordEvaluator("spam"))
	contract := backend.AddContract(simulated.NewContract(nil))
	config := &utils.ModerationConfig{
		ContractAddress:        contract.Hex(),
		GuidelinePollRetries:   3,
		GuidelinePollInterval:  time.Millisecond,
		ModerationPollRetries:  3,
		ModerationPollInterval: time.Millisecond,
		DeployPollRetries:      3,
		DeployPollInterval:     time.Millisecond,
	}
	client := helpers.Client(backend, config)
	if client.ConfigError() != nil {
		t.Fatalf("Should have configured the client: err: %v", client.ConfigError())
	}
	if client.ContractAddress() != contract {
		t.Errorf("Should have used the configured contract")
	}

	receipt, err := client.AddGuideline(testContext(t), "g1", "No spam")
	if err != nil {
		t.Fatalf("Should have added the guideline: err: %v", err)
	}
	if receipt.Status != model.TxStatusAccepted {
		t.Errorf("Should have been accepted, got %v", receipt.Status)
	}

	config.ContractAddress = ""
	client = helpers.Client(backend, config)
	if client.ConfigError() != moderation.ErrNoContractConfigured {
		t.Errorf("Should have reported the missing contract")
	}
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
