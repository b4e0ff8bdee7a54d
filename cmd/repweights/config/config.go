package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
)

// Config holds all configuration loaded from environment variables.
// Command-line flags bound with BindFlags override the loaded values.
type Config struct {
	RPCURL            string        `env:"REPWEIGHTS_RPC_URL" envDefault:"http://[::1]:7076"`
	Limit             float64       `env:"REPWEIGHTS_LIMIT" envDefault:"0.99"`
	Cutoff            uint64        `env:"REPWEIGHTS_CUTOFF" envDefault:"250000"`
	OutDir            string        `env:"REPWEIGHTS_OUT_DIR" envDefault:"."`
	HttpClientTimeout time.Duration `env:"REPWEIGHTS_HTTP_TIMEOUT" envDefault:"30s"`
	UnitExponent      uint          `env:"REPWEIGHTS_UNIT_EXPONENT" envDefault:"29"`
	VerifyAccounts    bool          `env:"REPWEIGHTS_VERIFY_ACCOUNTS" envDefault:"true"`
	DatabaseURL       string        `env:"REPWEIGHTS_DATABASE_URL"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	LogHumanFriendly  bool          `env:"LOG_HUMAN_FRIENDLY" envDefault:"true"`
}

// New loads all configuration from environment variables
func New() (Config, error) {
	return env.ParseAs[Config]()
}

// BindFlags registers the generator flags on fs, defaulting to the current values
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.RPCURL, "rpc", c.RPCURL, "node RPC endpoint")
	fs.Float64Var(&c.Limit, "limit", c.Limit, "fraction of the online supply to cover, in [0,1]")
	fs.Uint64Var(&c.Cutoff, "cutoff", c.Cutoff, "blocks subtracted from the cemented count")
	fs.StringVar(&c.OutDir, "out-dir", c.OutDir, "directory the header file is written to")
	fs.DurationVar(&c.HttpClientTimeout, "timeout", c.HttpClientTimeout, "node RPC request timeout")
	fs.UintVar(&c.UnitExponent, "unit-exponent", c.UnitExponent, "whole units are 10^N raw")
	fs.BoolVar(&c.VerifyAccounts, "verify-accounts", c.VerifyAccounts, "verify account checksums before writing")
}

// BindDatabaseFlag registers --database-url; an empty URL disables the archive
func (c *Config) BindDatabaseFlag(fs *pflag.FlagSet) {
	fs.StringVar(&c.DatabaseURL, "database-url", c.DatabaseURL, "PostgreSQL URL of the snapshot archive (empty disables it)")
}
