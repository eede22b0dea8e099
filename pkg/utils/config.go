// Package utils contains various common utils separate by utility types
package utils

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron"
)

// PersisterType is the type of persister to use.
type PersisterType int

const (
	// PersisterTypeInvalid is an invalid persister value
	PersisterTypeInvalid PersisterType = iota

	// PersisterTypeNone is a persister that does nothing but return default values
	PersisterTypeNone

	// PersisterTypeMemory is a persister that keeps synced state in memory
	PersisterTypeMemory

	// PersisterTypePostgresql is a persister that uses PostgreSQL as the backend
	PersisterTypePostgresql
)

var (
	// PersisterNameToType maps valid persister names to the types above
	PersisterNameToType = map[string]PersisterType{
		"none":       PersisterTypeNone,
		"memory":     PersisterTypeMemory,
		"postgresql": PersisterTypePostgresql,
	}
)

const (
	envVarPrefix = "moderation"

	usageListFormat = `The moderation adapter is configured via environment vars only. The following environment variables can be used:
{{range .}}
{{usage_key .}}
  description: {{usage_description .}}
  type:        {{usage_type .}}
  default:     {{usage_default .}}
  required:    {{usage_required .}}
{{end}}
`
)

// ModerationConfig is the master config for the moderation adapter derived
// from environment variables. A missing contract address is allowed; reads
// then come back empty and writes fail.
type ModerationConfig struct {
	EndpointURL       string `split_words:"true" required:"true" desc:"GenLayer JSON-RPC endpoint"`
	ContractAddress   string `split_words:"true" desc:"Address of the moderation contract"`
	AccountPrivateKey string `split_words:"true" desc:"Hex private key used to sign writes"`
	ConsensusAddress  string `split_words:"true" desc:"Consensus main contract, looked up from the node if empty"`
	ChainID           int64  `envconfig:"chain_id" desc:"Chain id used for signing, looked up from the node if 0"`
	GasLimit          uint64 `split_words:"true" desc:"Gas limit for submitted transactions"`
	NumValidators     int64  `split_words:"true" desc:"Initial number of validators per transaction"`
	MaxRotations      int64  `split_words:"true" desc:"Maximum leader rotations per transaction"`
	LeaderOnly        bool   `split_words:"true" desc:"Only the leader executes reads and writes"`

	GuidelinePollRetries   int           `split_words:"true" default:"60" desc:"Status checks when adding a guideline"`
	GuidelinePollInterval  time.Duration `split_words:"true" default:"2s" desc:"Wait between guideline status checks"`
	ModerationPollRetries  int           `split_words:"true" default:"24" desc:"Status checks when moderating content"`
	ModerationPollInterval time.Duration `split_words:"true" default:"5s" desc:"Wait between moderation status checks"`
	DeployPollRetries      int           `split_words:"true" default:"200" desc:"Status checks when deploying"`
	DeployPollInterval     time.Duration `split_words:"true" default:"3s" desc:"Wait between deploy status checks"`

	CronConfig string `envconfig:"cron_config" default:"*/5 * * * *" desc:"Cron config string * * * * *"`

	PersisterType            PersisterType `ignored:"true"`
	PersisterTypeName        string        `split_words:"true" default:"none" desc:"Sets the persister type to use"`
	PersisterPostgresAddress string        `split_words:"true" desc:"If persister type is Postgresql, sets the address"`
	PersisterPostgresPort    int           `split_words:"true" desc:"If persister type is Postgresql, sets the port"`
	PersisterPostgresDbname  string        `split_words:"true" desc:"If persister type is Postgresql, sets the database name"`
	PersisterPostgresUser    string        `split_words:"true" desc:"If persister type is Postgresql, sets the database user"`
	PersisterPostgresPw      string        `split_words:"true" desc:"If persister type is Postgresql, sets the database password"`
}

// OutputUsage prints the usage string to os.Stdout
func (c *ModerationConfig) OutputUsage() {
	tabs := tabwriter.NewWriter(os.Stdout, 1, 0, 4, ' ', 0)
	_ = envconfig.Usagef(envVarPrefix, c, tabs, usageListFormat) // nolint: gosec
	_ = tabs.Flush()                                             // nolint: gosec
}

// PopulateFromEnv processes the environment vars, populates ModerationConfig
// with the respective values, and validates the values.
func (c *ModerationConfig) PopulateFromEnv() error {
	err := envconfig.Process(envVarPrefix, c)
	if err != nil {
		return err
	}

	err = c.validateCronConfig()
	if err != nil {
		return err
	}

	err = c.validateEndpointURL()
	if err != nil {
		return err
	}

	err = c.validateAddresses()
	if err != nil {
		return err
	}

	err = c.validatePrivateKey()
	if err != nil {
		return err
	}

	err = c.validatePollBudgets()
	if err != nil {
		return err
	}

	err = c.populatePersisterType()
	if err != nil {
		return err
	}

	return c.validatePersister()
}

// PrivateKey returns the parsed account key, or nil if none is configured
func (c *ModerationConfig) PrivateKey() (*ecdsa.PrivateKey, error) {
	if c.AccountPrivateKey == "" {
		return nil, nil
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(c.AccountPrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("Invalid account private key: %v", err)
	}
	return key, nil
}

// ChainIDBig returns the configured chain id, or nil to look it up
func (c *ModerationConfig) ChainIDBig() *big.Int {
	if c.ChainID == 0 {
		return nil
	}
	return big.NewInt(c.ChainID)
}

func (c *ModerationConfig) validateCronConfig() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(c.CronConfig)
	if err != nil {
		return fmt.Errorf("Invalid cron config: '%v'", c.CronConfig)
	}
	return nil
}

func (c *ModerationConfig) validateEndpointURL() error {
	u, err := url.Parse(c.EndpointURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("Invalid endpoint URL: '%v'", c.EndpointURL)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
		return nil
	}
	return fmt.Errorf("Invalid endpoint URL scheme: '%v'", c.EndpointURL)
}

func (c *ModerationConfig) validateAddresses() error {
	if c.ContractAddress != "" && !common.IsHexAddress(c.ContractAddress) {
		return fmt.Errorf("Invalid contract address: '%v'", c.ContractAddress)
	}
	if c.ConsensusAddress != "" && !common.IsHexAddress(c.ConsensusAddress) {
		return fmt.Errorf("Invalid consensus address: '%v'", c.ConsensusAddress)
	}
	return nil
}

func (c *ModerationConfig) validatePrivateKey() error {
	_, err := c.PrivateKey()
	return err
}

func (c *ModerationConfig) validatePollBudgets() error {
	if c.GuidelinePollRetries <= 0 || c.ModerationPollRetries <= 0 || c.DeployPollRetries <= 0 {
		return errors.New("Poll retries must be positive")
	}
	if c.GuidelinePollInterval < 0 || c.ModerationPollInterval < 0 || c.DeployPollInterval < 0 {
		return errors.New("Poll intervals cannot be negative")
	}
	return nil
}

func (c *ModerationConfig) validatePersister() error {
	var err error
	if c.PersisterType == PersisterTypePostgresql {
		err = c.validatePostgresqlPersister()
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *ModerationConfig) validatePostgresqlPersister() error {
	if c.PersisterPostgresAddress == "" {
		return errors.New("Postgresql address required")
	}
	if c.PersisterPostgresPort == 0 {
		return errors.New("Postgresql port required")
	}
	if c.PersisterPostgresDbname == "" {
		return errors.New("Postgresql db name required")
	}
	return nil
}

func (c *ModerationConfig) populatePersisterType() error {
	var err error
	c.PersisterType, err = PersisterTypeFromName(c.PersisterTypeName)
	return err
}

// PersisterTypeFromName returns the correct persisterType from the string name
func PersisterTypeFromName(typeStr string) (PersisterType, error) {
	pType, ok := PersisterNameToType[typeStr]
	if !ok {
		validNames := make([]string, 0, len(PersisterNameToType))
		for name := range PersisterNameToType {
			validNames = append(validNames, name)
		}
		sort.Strings(validNames)
		return PersisterTypeInvalid,
			fmt.Errorf("Invalid persister value: %v; valid types %v", typeStr, validNames)
	}
	return pType, nil
}
