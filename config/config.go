// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads the prover settings from a YAML file, overridable from
// the environment.
package config

import (
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "LIDOREPORT"

// Config holds the prover settings.
type Config struct {
	Beacon struct {
		Endpoint        string        `yaml:"endpoint" envconfig:"ENDPOINT"`
		Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
		HeaderCacheSize int           `yaml:"headerCacheSize" envconfig:"HEADER_CACHE_SIZE"`
		MaxLookback     uint64        `yaml:"maxLookback" envconfig:"MAX_LOOKBACK"`
		StateCacheDir   string        `yaml:"stateCacheDir" envconfig:"STATE_CACHE_DIR"`
	} `yaml:"beacon"`
	Execution struct {
		Endpoint string `yaml:"endpoint" envconfig:"ENDPOINT"`
	} `yaml:"execution"`
	Lido struct {
		WithdrawalCredentials string `yaml:"withdrawalCredentials" envconfig:"WITHDRAWAL_CREDENTIALS"`
		WithdrawalVault       string `yaml:"withdrawalVault" envconfig:"WITHDRAWAL_VAULT"`
	} `yaml:"lido"`
	Log struct {
		Level  string `yaml:"level" envconfig:"LEVEL"`
		Format string `yaml:"format" envconfig:"FORMAT"`
	} `yaml:"log"`
}

// Default returns the settings used when neither file nor environment set a
// value.
func Default() *Config {
	cfg := new(Config)
	cfg.Beacon.Endpoint = "http://localhost:5052"
	cfg.Beacon.Timeout = 2 * time.Minute
	cfg.Beacon.HeaderCacheSize = 128
	cfg.Beacon.MaxLookback = 32
	cfg.Beacon.StateCacheDir = "states"
	cfg.Execution.Endpoint = "http://localhost:8545"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// Read loads the defaults, overlays the YAML file at path (if path is not
// empty) and finally the environment.
func Read(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := readFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, "could not process environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "could not open config file %s", path)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return errors.Wrapf(err, "could not decode config file %s", path)
	}
	return nil
}

// Validate checks the Lido identifiers are well formed, if set.
func (cfg *Config) Validate() error {
	if creds := cfg.Lido.WithdrawalCredentials; creds != "" && len(common.FromHex(creds)) != common.HashLength {
		return errors.Errorf("invalid withdrawal credentials %q", creds)
	}
	if vault := cfg.Lido.WithdrawalVault; vault != "" && !common.IsHexAddress(vault) {
		return errors.Errorf("invalid withdrawal vault address %q", vault)
	}
	return nil
}

// WithdrawalCredentials returns the parsed Lido withdrawal credentials.
func (cfg *Config) WithdrawalCredentials() common.Hash {
	return common.HexToHash(cfg.Lido.WithdrawalCredentials)
}

// WithdrawalVault returns the parsed withdrawal vault address.
func (cfg *Config) WithdrawalVault() common.Address {
	return common.HexToAddress(cfg.Lido.WithdrawalVault)
}
