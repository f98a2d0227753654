package config

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

const (
	IdentityModeStub      = "stub"
	IdentityModeAllowlist = "allowlist"
	IdentityModeGuardian  = "guardian"
)

type Config struct {
	APIConf  APIConf  `yaml:"APIConf"`
	Storage  Storage  `yaml:"Storage"`
	Identity Identity `yaml:"Identity"`
}

type APIConf struct {
	Port string `yaml:"Port" default:"8081"`
	Host string `yaml:"Host" default:"0.0.0.0"`
}

// Storage selects where the ledgers live. An empty Path keeps everything in memory.
type Storage struct {
	Path string `yaml:"Path"`
}

type Identity struct {
	Mode            string           `yaml:"Mode"`
	Node            string           `yaml:"Node"`
	RegistryAddress common.Address   `yaml:"RegistryAddress"`
	Allowlist       []common.Address `yaml:"Allowlist"`
}

// Load reads a YAML config file and fills in defaults for omitted fields.
func Load(path string) (Config, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}

	cfg := Config{}
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.APIConf.Port == "" {
		c.APIConf.Port = "8081"
	}
	if c.APIConf.Host == "" {
		c.APIConf.Host = "0.0.0.0"
	}
	if c.Identity.Mode == "" {
		c.Identity.Mode = IdentityModeStub
	}
}

func (c *Config) validate() error {
	switch c.Identity.Mode {
	case IdentityModeStub, IdentityModeAllowlist:
	case IdentityModeGuardian:
		if c.Identity.Node == "" {
			return fmt.Errorf("identity mode %q requires Node", c.Identity.Mode)
		}
		if c.Identity.RegistryAddress == (common.Address{}) {
			return fmt.Errorf("identity mode %q requires RegistryAddress", c.Identity.Mode)
		}
	default:
		return fmt.Errorf("unknown identity mode %q", c.Identity.Mode)
	}
	return nil
}
