// Copyright 2025 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package kitcfg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/erigontech/accountkit/accountquery"
)

const (
	Gnosis  = "gnosis"
	Chiado  = "chiado"
	Mainnet = "mainnet"
)

var (
	ErrUnknownChain   = errors.New("unknown chain")
	ErrInvalidAddress = errors.New("invalid address")
	ErrUnknownFormat  = errors.New("unknown config file format")
)

type Config struct {
	Chain   string `toml:"chain" yaml:"chain"`
	ChainId uint64 `toml:"chain_id" yaml:"chain_id"`
	RpcUrl  string `toml:"rpc_url" yaml:"rpc_url"`

	Spender string `toml:"spender" yaml:"spender"`
	Token   string `toml:"token" yaml:"token"`
	// CooldownSeconds is the minimum Delay cooldown an account must enforce.
	CooldownSeconds uint64 `toml:"cooldown_seconds" yaml:"cooldown_seconds"`

	Accounts []string `toml:"accounts" yaml:"accounts"`

	MonitorIntervalSeconds uint64 `toml:"monitor_interval_seconds" yaml:"monitor_interval_seconds"`
	MonitorConcurrency     int    `toml:"monitor_concurrency" yaml:"monitor_concurrency"`
	MetricsAddr            string `toml:"metrics_addr" yaml:"metrics_addr"`

	CallRetries        uint64 `toml:"call_retries" yaml:"call_retries"`
	CallTimeoutSeconds uint64 `toml:"call_timeout_seconds" yaml:"call_timeout_seconds"`
}

var defaultConfig = Config{
	CooldownSeconds:        180,
	MonitorIntervalSeconds: 60,
	MonitorConcurrency:     8,
	MetricsAddr:            "127.0.0.1:6061",
	CallRetries:            3,
	CallTimeoutSeconds:     10,
}

var gnosisConfig = withChain(defaultConfig, Gnosis, 100, "https://rpc.gnosischain.com")

var chiadoConfig = withChain(defaultConfig, Chiado, 10200, "https://rpc.chiadochain.net")

var mainnetConfig = withChain(defaultConfig, Mainnet, 1, "")

func withChain(c Config, chain string, chainId uint64, rpcUrl string) Config {
	c.Chain = chain
	c.ChainId = chainId
	c.RpcUrl = rpcUrl
	return c
}

func ConfigByChainName(chainName string) (Config, error) {
	switch chainName {
	case Gnosis:
		return gnosisConfig, nil
	case Chiado:
		return chiadoConfig, nil
	case Mainnet:
		return mainnetConfig, nil
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownChain, chainName)
	}
}

// LoadFile reads a .toml or .yaml/.yml file on top of the preset for the chain
// it names (gnosis when it names none).
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var probe struct {
		Chain string `toml:"chain" yaml:"chain"`
	}
	unmarshal, err := unmarshalerFor(path)
	if err != nil {
		return Config{}, err
	}
	if err := unmarshal(raw, &probe); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if probe.Chain == "" {
		probe.Chain = Gnosis
	}

	cfg, err := ConfigByChainName(probe.Chain)
	if err != nil {
		return Config{}, err
	}
	if err := unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func unmarshalerFor(path string) (func([]byte, interface{}) error, error) {
	switch filepath.Ext(path) {
	case ".toml":
		return toml.Unmarshal, nil
	case ".yaml", ".yml":
		return yaml.Unmarshal, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

func (c Config) Validate() error {
	for _, a := range append([]string{c.Spender, c.Token}, c.Accounts...) {
		if a != "" && !common.IsHexAddress(a) {
			return fmt.Errorf("%w: %q", ErrInvalidAddress, a)
		}
	}
	if c.MonitorConcurrency < 1 {
		return fmt.Errorf("monitor_concurrency must be positive, got %d", c.MonitorConcurrency)
	}
	if c.MonitorIntervalSeconds == 0 {
		return errors.New("monitor_interval_seconds must be positive")
	}
	return nil
}

func (c Config) MonitorInterval() time.Duration {
	return time.Duration(c.MonitorIntervalSeconds) * time.Second
}

func (c Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

func (c Config) AccountAddresses() []common.Address {
	accounts := make([]common.Address, 0, len(c.Accounts))
	for _, a := range c.Accounts {
		accounts = append(accounts, common.HexToAddress(a))
	}
	return accounts
}

func (c Config) QueryParams() accountquery.Params {
	return accountquery.Params{
		Spender:  common.HexToAddress(c.Spender),
		Token:    common.HexToAddress(c.Token),
		Cooldown: c.CooldownSeconds,
	}
}
