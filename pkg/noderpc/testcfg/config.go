package testcfg

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds test-specific configuration for node RPC client acceptance tests
type Config struct {
	HTTPTimeout time.Duration `env:"NODERPC_TEST_HTTP_TIMEOUT" envDefault:"30s"`
	Endpoint    string        `env:"NODERPC_TEST_ENDPOINT" envDefault:"http://[::1]:7076"`
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
