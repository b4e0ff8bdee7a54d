package testcfg

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds test-specific configuration for generator acceptance tests
// NOTE: the node must be reachable and synced; the limit is lowered to keep the header small
type Config struct {
	RPCURL         string        `env:"REPWEIGHTS_TEST_RPC_URL" envDefault:"http://[::1]:7076"`
	HTTPTimeout    time.Duration `env:"REPWEIGHTS_TEST_HTTP_TIMEOUT" envDefault:"30s"`
	Network        string        `env:"REPWEIGHTS_TEST_NETWORK" envDefault:"live"`
	Limit          float64       `env:"REPWEIGHTS_TEST_LIMIT" envDefault:"0.5"`
	Cutoff         uint64        `env:"REPWEIGHTS_TEST_CUTOFF" envDefault:"250000"`
	UnitExponent   uint          `env:"REPWEIGHTS_TEST_UNIT_EXPONENT" envDefault:"30"`
	VerifyAccounts bool          `env:"REPWEIGHTS_TEST_VERIFY_ACCOUNTS" envDefault:"true"`
}

// parseConfig wraps env.Parse to return (Config, error) for use with env.Must
func parseConfig() (Config, error) {
	var cfg Config
	err := env.Parse(&cfg)
	return cfg, err
}

// New loads test configuration from environment variables
func New() Config {
	return env.Must(parseConfig())
}
