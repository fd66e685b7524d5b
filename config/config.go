// Package config loads process configuration for an agriblock node from a
// YAML file and AGRIBLOCK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. AGRIBLOCK_STORE_DRIVER.
const EnvPrefix = "AGRIBLOCK"

const (
	DriverFile   = "file"
	DriverBadger = "badger"
	DriverMemory = "memory"
	DriverMySQL  = "mysql"
)

type Config struct {
	Log     Log     `mapstructure:"log"`
	Store   Store   `mapstructure:"store"`
	Ledger  Ledger  `mapstructure:"ledger"`
	Attest  Attest  `mapstructure:"attest"`
	Details Details `mapstructure:"details"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Store struct {
	// Driver is one of file, badger, memory or mysql.
	Driver string `mapstructure:"driver"`
	// Path is the chain file for the file driver and the directory for badger.
	Path string `mapstructure:"path"`
	DSN  string `mapstructure:"dsn"`
}

type Ledger struct {
	EmptyBlocks bool `mapstructure:"empty_blocks"`
}

type Attest struct {
	// KeyFile holds the hex private key of this node's sealer. It is created
	// on first start when missing. Empty disables signing.
	KeyFile string `mapstructure:"key_file"`
	// Trusted lists the sealer ids accepted by Verify. When set, every block
	// after genesis must carry an attestation from one of them.
	Trusted []string `mapstructure:"trusted"`
}

type Details struct {
	// Standard enables the bundled event detail schemas.
	Standard bool `mapstructure:"standard"`
	// Schemas maps extra event types to schema file paths.
	Schemas map[string]string `mapstructure:"schemas"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.path", "")
	v.SetDefault("store.dsn", "")
	v.SetDefault("ledger.empty_blocks", false)
	v.SetDefault("attest.key_file", "")
	v.SetDefault("attest.trusted", []string{})
	v.SetDefault("details.standard", true)
	v.SetDefault("details.schemas", map[string]string{})
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the configuration used when no file or env is present.
func Default() Config {
	cfg, err := decode(newViper())
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the YAML file at path, then applies environment overrides. An
// empty path uses defaults and environment only.
func Load(path string) (Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error when reading config file '%s': %w", path, err)
		}
	}
	return decode(v)
}

// Read is Load for an already open YAML document.
func Read(r io.Reader) (Config, error) {
	v := newViper()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(r); err != nil {
		return Config{}, fmt.Errorf("error when reading config: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("could not decode config: %w", err)
	}
	// viper folds keys to lower case; event types are upper case.
	schemas := make(map[string]string, len(cfg.Details.Schemas))
	for event, path := range cfg.Details.Schemas {
		schemas[strings.ToUpper(event)] = path
	}
	cfg.Details.Schemas = schemas
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected store driver has what it needs.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverMemory:
	case DriverFile, DriverBadger:
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("store.path is required for driver '%s'", c.Store.Driver))
		}
	case DriverMySQL:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for driver 'mysql'"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver '%s'", c.Store.Driver))
	}
	for event, path := range c.Details.Schemas {
		if path == "" {
			errs = append(errs, fmt.Errorf("details.schemas.%s has no path", event))
		}
	}
	return errors.Join(errs...)
}
