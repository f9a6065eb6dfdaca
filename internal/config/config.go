package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fxnlabs/nameservice-cli/fixtures"
	"gopkg.in/yaml.v3"
)

const DefaultNodeAddress = "ws://127.0.0.1:9944"

// ABIPaths holds the on-disk locations of the four contract ABIs. An empty
// path selects the ABI embedded in the fixtures package.
type ABIPaths struct {
	EpochProxy    string `yaml:"epochProxy"`
	Epoch         string `yaml:"epoch"`
	RegistryProxy string `yaml:"registryProxy"`
	Registry      string `yaml:"registry"`
}

type Config struct {
	NodeAddress string `yaml:"nodeAddress"`
	Logger      struct {
		Verbosity string `yaml:"verbosity"`
		Encoding  string `yaml:"encoding"`
	} `yaml:"logger"`
	ABI       ABIPaths `yaml:"abi"`
	Contracts struct {
		RegistryProxy string `yaml:"registryProxy"`
		EpochProxy    string `yaml:"epochProxy"`
	} `yaml:"contracts"`
	Call struct {
		GasLimit  uint64 `yaml:"gasLimit"`
		Payment   string `yaml:"payment"`
		Endowment string `yaml:"endowment"`
	} `yaml:"call"`
	Workflow struct {
		Caller           string        `yaml:"caller"`
		Name             string        `yaml:"name"`
		Secret           uint32        `yaml:"secret"`
		FullRegistration bool          `yaml:"fullRegistration"`
		PollInterval     time.Duration `yaml:"pollInterval"`
	} `yaml:"workflow"`
	Identities []string `yaml:"identities"`
	Metrics    struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
}

// Default returns the configuration described by the embedded template.
func Default() (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(fixtures.ConfigTemplate, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config template: %w", err)
	}
	return &config, nil
}

// LoadConfig reads the YAML file at path on top of the defaults, so a file only
// needs to name the fields it changes.
func LoadConfig(path string) (*Config, error) {
	config, err := Default()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.NodeAddress == "" {
		return errors.New("nodeAddress must be set")
	}
	if !common.IsHexAddress(c.Contracts.RegistryProxy) {
		return fmt.Errorf("invalid registry proxy address %q", c.Contracts.RegistryProxy)
	}
	if c.Contracts.EpochProxy != "" && !common.IsHexAddress(c.Contracts.EpochProxy) {
		return fmt.Errorf("invalid epoch proxy address %q", c.Contracts.EpochProxy)
	}
	if c.Call.GasLimit == 0 {
		return errors.New("call.gasLimit must be greater than zero")
	}
	if _, err := c.PaymentValue(); err != nil {
		return err
	}
	if c.Workflow.Caller == "" {
		return errors.New("workflow.caller must be set")
	}
	if c.Workflow.PollInterval <= 0 {
		return errors.New("workflow.pollInterval must be positive")
	}
	return nil
}

// PaymentValue is the value attached to state-changing registry calls.
func (c *Config) PaymentValue() (*big.Int, error) {
	return parseAmount("call.payment", c.Call.Payment)
}

func (c *Config) EndowmentValue() (*big.Int, error) {
	return parseAmount("call.endowment", c.Call.Endowment)
}

func parseAmount(field, s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s %q", field, s)
	}
	return v, nil
}
