package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/repweights/cmd/repweights/config"
	"github.com/screwyprof/repweights/pkg/logger"
	"github.com/screwyprof/repweights/pkg/noderpc"
	"github.com/screwyprof/repweights/pkg/pgxdb"
	"github.com/screwyprof/repweights/weights"
)

const (
	faucetAccount  = "nano_3faucet4t1nnru6yra9iioia76jddur6zqg6d3fp7h1soyyd8qhgx6tizrsy"
	betaAccount    = "nano_1betazh7m3c9gwcsy7w3rzynbqr9gomjwn3cp59xqky48we46eaqptbdskh4"
	offlineAccount = "nano_1defau1t9off1ine9rep99999999999999999999999999999999wgmuzxxy"
)

var nodeListing = fmt.Sprintf(`{"representatives":{
	%q:"100000000000000000000000000001",
	%q:"600000000000000000000000000000",
	%q:"300000000000000000000000000000"}}`,
	offlineAccount, faucetAccount, betaAccount)

func TestRootCommand(t *testing.T) {
	t.Parallel()

	t.Run("it writes the header and prints progress lines", func(t *testing.T) {
		t.Parallel()

		// Arrange
		node := fakeNode(t, nodeListing, `{"count":"500010","unchecked":"0","cemented":"500000"}`)
		defer node.Close()

		dir := t.TempDir()
		var out bytes.Buffer

		// Act
		err := execute(&out, "beta", "--rpc", node.URL, "--out-dir", dir, "--limit", "0.95")

		// Assert
		require.NoError(t, err)

		path := filepath.Join(dir, "bootstrap_weights_beta.hpp")
		assert.Equal(t, ""+
			"cutoff block height is 250000\n"+
			faucetAccount+" 600000000000000000000000000000\n"+
			betaAccount+" 300000000000000000000000000000\n"+
			"wrote 2 rep weights\n"+
			"max supply 900000000000000000000000000000\n"+
			"Weight file generated: "+path+"\n",
			out.String())

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "uint64_t max_blocks_beta = 250000;")
	})

	t.Run("it requires a network argument", func(t *testing.T) {
		t.Parallel()

		// Act
		err := execute(io.Discard)

		// Assert
		assert.Error(t, err)
	})

	t.Run("it fails with a transport error when the node is down", func(t *testing.T) {
		t.Parallel()

		// Arrange
		node := httptest.NewServer(http.NotFoundHandler())
		url := node.URL
		node.Close()

		// Act
		err := execute(io.Discard, "beta", "--rpc", url, "--out-dir", t.TempDir())

		// Assert
		assert.ErrorIs(t, err, noderpc.ErrTransport)
		assert.Equal(t, "transport", failureKind(err))
	})

	t.Run("it rejects an out of range limit before contacting the node", func(t *testing.T) {
		t.Parallel()

		// Act
		err := execute(io.Discard, "beta", "--rpc", "http://127.0.0.1:1", "--limit", "1.5")

		// Assert
		assert.ErrorIs(t, err, weights.ErrInvalidConfig)
	})
}

func TestArchiveCommands(t *testing.T) {
	t.Parallel()

	commands := [][]string{
		{"migrate"},
		{"history", "beta"},
		{"show", "1"},
	}

	for _, args := range commands {
		t.Run("it requires a database url for "+args[0], func(t *testing.T) {
			t.Parallel()

			// Act
			err := execute(io.Discard, args...)

			// Assert
			assert.ErrorIs(t, err, ErrArchiveNotConfigured)
			assert.Equal(t, "archive", failureKind(err))
		})
	}

	t.Run("it rejects a non-numeric snapshot id", func(t *testing.T) {
		t.Parallel()

		// Act
		err := execute(io.Discard, "show", "latest", "--database-url", "postgres://localhost/weights")

		// Assert
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrArchiveNotConfigured)
	})
}

func TestFailureKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: %w", weights.ErrFetchRepresentatives, noderpc.ErrTransport), "transport"},
		{fmt.Errorf("%w: %w", weights.ErrFetchBlockCount, noderpc.ErrParse), "parse"},
		{weights.ErrFilesystem, "filesystem"},
		{weights.ErrInvalidNetwork, "config"},
		{weights.ErrInvalidAccount, "account"},
		{pgxdb.ErrDatabaseConnection, "archive"},
		{io.EOF, "usage"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, failureKind(tt.err))
		})
	}
}

// execute runs the root command with defaults matching the environment-free configuration
func execute(out io.Writer, args ...string) error {
	cfg := config.Config{
		RPCURL:         noderpc.DefaultEndpoint,
		Limit:          weights.DefaultLimit,
		Cutoff:         weights.DefaultCutoff,
		OutDir:         weights.DefaultOutDir,
		UnitExponent:   weights.DefaultUnitExponent,
		VerifyAccounts: true,
	}
	log := logger.NewFromConfig(logger.Config{LogLevel: "error", Output: io.Discard})

	cmd := newRootCmd(cfg, log)
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	return cmd.Execute()
}

// fakeNode answers representatives and block_count with the given bodies
func fakeNode(t *testing.T, representatives, blockCount string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Action string `json:"action"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch req.Action {
		case "representatives":
			_, _ = w.Write([]byte(representatives))
		case "block_count":
			_, _ = w.Write([]byte(blockCount))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
}
