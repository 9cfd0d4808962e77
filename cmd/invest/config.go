package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/spf13/viper"
)

const (
	envPrefix = "INVEST"

	defaultNetwork       = "local"
	defaultDialTimeout   = 15 * time.Second
	defaultRetryAttempts = 3
)

var (
	// ErrNoSuchNetwork is returned when requested network is missing in the
	// configuration.
	ErrNoSuchNetwork = errors.New("no such network")

	errMissingContract = errors.New("contract address is not configured")
	errMissingEndpoint = errors.New("RPC endpoint is not configured")
)

// networkConfig describes a single Neo network the tool works with.
type networkConfig struct {
	Endpoint         string        `mapstructure:"endpoint"`
	Contract         string        `mapstructure:"contract"`
	Wallet           string        `mapstructure:"wallet"`
	Account          string        `mapstructure:"account"`
	MarketingMain    string        `mapstructure:"marketing_main"`
	MarketingReserve string        `mapstructure:"marketing_reserve"`
	DialTimeout      time.Duration `mapstructure:"dial_timeout"`
	RetryAttempts    uint          `mapstructure:"retry_attempts"`
}

// config is the root of the YAML configuration file:
//
//	network: testnet
//	networks:
//	  testnet:
//	    endpoint: https://rpc.t5.n3.nspcc.ru:20331
//	    contract: NfgHwwTi3wHAS8aFAN243C5vGbkYDpqLHP
//	    wallet: wallet.json
type config struct {
	Network  string                   `mapstructure:"network"`
	Networks map[string]networkConfig `mapstructure:"networks"`
}

// loadConfig reads configuration from the YAML file at path (if any). Values
// present in the file can be overridden by INVEST_* environment variables,
// e.g. INVEST_NETWORKS_TESTNET_ENDPOINT.
func loadConfig(path string) (config, error) {
	var cfg config

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("network", defaultNetwork)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// selectNetwork returns configuration of the named network or the default one
// if name is empty.
func (c config) selectNetwork(name string) (networkConfig, error) {
	if name == "" {
		name = c.Network
	}

	// viper keys are case-insensitive
	n, ok := c.Networks[strings.ToLower(name)]
	if !ok {
		return n, fmt.Errorf("%w: %s", ErrNoSuchNetwork, name)
	}

	if n.Endpoint == "" {
		return n, fmt.Errorf("network %s: %w", name, errMissingEndpoint)
	}
	if n.DialTimeout <= 0 {
		n.DialTimeout = defaultDialTimeout
	}
	if n.RetryAttempts == 0 {
		n.RetryAttempts = defaultRetryAttempts
	}

	return n, nil
}

// contractHash returns address of the configured contract.
func (n networkConfig) contractHash() (util.Uint160, error) {
	if n.Contract == "" {
		return util.Uint160{}, errMissingContract
	}
	return parseHash160(n.Contract)
}

// parseHash160 decodes either Neo address or LE hex string (with optional 0x
// prefix).
func parseHash160(s string) (util.Uint160, error) {
	if h, err := address.StringToUint160(s); err == nil {
		return h, nil
	}

	h, err := util.Uint160DecodeStringLE(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return h, fmt.Errorf("invalid address or script hash '%s': %w", s, err)
	}

	return h, nil
}

// loadEnv loads variables from the dotenv file. Missing file is not an error
// unless required is set.
func loadEnv(path string, required bool) error {
	err := godotenv.Load(path)
	if err != nil && (required || !errors.Is(err, fs.ErrNotExist)) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
