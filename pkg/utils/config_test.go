package utils_test

import (
	"testing"
	"time"

	"github.com/joincivil/content-moderation-adapter/pkg/utils"
)

const (
	testPrivateKey = "289c2857d4598e37fb9647507e47a309d6133539bf21a8b9cb6df88fd5232032"
)

func setValidEnv(t *testing.T) {
	t.Setenv("MODERATION_ENDPOINT_URL", "http://localhost:4000/api")
	t.Setenv("MODERATION_CONTRACT_ADDRESS", "0x77e5aaBddb760FBa989A1C4B2CDd4aA8Fa3d311d")
	t.Setenv("MODERATION_ACCOUNT_PRIVATE_KEY", testPrivateKey)
	t.Setenv("MODERATION_CRON_CONFIG", "* * * * *")
	t.Setenv("MODERATION_PERSISTER_TYPE_NAME", "postgresql")
	t.Setenv("MODERATION_PERSISTER_POSTGRES_ADDRESS", "localhost")
	t.Setenv("MODERATION_PERSISTER_POSTGRES_PORT", "5432")
	t.Setenv("MODERATION_PERSISTER_POSTGRES_DBNAME", "moderation")
}

func TestModerationConfig(t *testing.T) {
	setValidEnv(t)
	config := &utils.ModerationConfig{}
	err := config.PopulateFromEnv()
	if err != nil {
		t.Fatalf("Failed to populate from environment: err: %v", err)
	}
	if config.PersisterType != utils.PersisterTypePostgresql {
		t.Errorf("Should have set the postgresql persister type")
	}
	if config.ModerationPollRetries != 24 || config.ModerationPollInterval != 5*time.Second {
		t.Errorf("Should have defaulted the moderation budget: %v %v",
			config.ModerationPollRetries, config.ModerationPollInterval)
	}
	if config.DeployPollRetries != 200 || config.GuidelinePollRetries != 60 {
		t.Errorf("Should have defaulted the other budgets")
	}
	key, err := config.PrivateKey()
	if err != nil || key == nil {
		t.Errorf("Should have parsed the private key: err: %v", err)
	}
	if config.ChainIDBig() != nil {
		t.Errorf("Should not have a chain id when unset")
	}
}

func TestMinimalModerationConfig(t *testing.T) {
	t.Setenv("MODERATION_ENDPOINT_URL", "https://studio.genlayer.com/api")
	config := &utils.ModerationConfig{}
	err := config.PopulateFromEnv()
	if err != nil {
		t.Fatalf("Failed to populate from environment: err: %v", err)
	}
	if config.PersisterType != utils.PersisterTypeNone {
		t.Errorf("Should have defaulted to the none persister")
	}
	key, err := config.PrivateKey()
	if err != nil || key != nil {
		t.Errorf("Should not have a key when unset: %v %v", key, err)
	}
	if config.ContractAddress != "" {
		t.Errorf("Should allow a missing contract address")
	}
}

func TestPrefixedPrivateKeyConfig(t *testing.T) {
	setValidEnv(t)
	t.Setenv("MODERATION_ACCOUNT_PRIVATE_KEY", "0x"+testPrivateKey)
	t.Setenv("MODERATION_CHAIN_ID", "61999")
	config := &utils.ModerationConfig{}
	err := config.PopulateFromEnv()
	if err != nil {
		t.Fatalf("Failed to populate from environment: err: %v", err)
	}
	if config.ChainIDBig().Int64() != 61999 {
		t.Errorf("Should have set the chain id")
	}
}

func TestBadModerationConfig(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad persister name", "MODERATION_PERSISTER_TYPE_NAME", "mysql"},
		{"bad postgres address", "MODERATION_PERSISTER_POSTGRES_ADDRESS", ""},
		{"bad postgres port", "MODERATION_PERSISTER_POSTGRES_PORT", "0"},
		{"bad postgres dbname", "MODERATION_PERSISTER_POSTGRES_DBNAME", ""},
		{"short cron config", "MODERATION_CRON_CONFIG", "* *"},
		{"bad cron config", "MODERATION_CRON_CONFIG", "* * * * 145"},
		{"missing endpoint", "MODERATION_ENDPOINT_URL", ""},
		{"bad endpoint scheme", "MODERATION_ENDPOINT_URL", "ftp://localhost:4000"},
		{"bad contract address", "MODERATION_CONTRACT_ADDRESS", "0x1234"},
		{"bad consensus address", "MODERATION_CONSENSUS_ADDRESS", "consensus"},
		{"bad private key", "MODERATION_ACCOUNT_PRIVATE_KEY", "0xnotakey"},
		{"zero retries", "MODERATION_MODERATION_POLL_RETRIES", "0"},
		{"negative interval", "MODERATION_DEPLOY_POLL_INTERVAL", "-1s"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			setValidEnv(t)
			t.Setenv(test.key, test.value)
			config := &utils.ModerationConfig{}
			err := config.PopulateFromEnv()
			if err == nil {
				t.Errorf("Should have failed to allow %v from environment", test.name)
			}
		})
	}
}

func TestPersisterTypeFromName(t *testing.T) {
	pType, err := utils.PersisterTypeFromName("memory")
	if err != nil || pType != utils.PersisterTypeMemory {
		t.Errorf("Should have returned the memory persister type: %v %v", pType, err)
	}
	_, err = utils.PersisterTypeFromName("mongo")
	if err == nil {
		t.Errorf("Should have failed on an unknown persister name")
	}
}

func TestDescribeSyncTime(t *testing.T) {
	if utils.DescribeSyncTime(0) != "never" {
		t.Errorf("Should have described 0 as never")
	}
	if utils.DescribeSyncTime(1500000000) != "2017-07-14T02:40:00Z" {
		t.Errorf("Unexpected time: %v", utils.DescribeSyncTime(1500000000))
	}
}
