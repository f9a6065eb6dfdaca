package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxnlabs/nameservice-cli/internal/config"
	"github.com/fxnlabs/nameservice-cli/internal/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type appRun struct {
	app       *cli.App
	out       *bytes.Buffer
	logs      *observer.ObservedLogs
	verbosity string
}

func (r *appRun) config() *config.Config {
	return r.app.Metadata[metaConfig].(*config.Config)
}

func runApp(t *testing.T, args ...string) (*appRun, error) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	r := &appRun{app: newApp(), out: &bytes.Buffer{}, logs: logs}

	previous := newLogger
	newLogger = func(verbosity, encoding string) (*zap.Logger, error) {
		r.verbosity = verbosity
		return zap.New(core), nil
	}
	t.Cleanup(func() { newLogger = previous })

	r.app.Writer = r.out
	err := r.app.Run(append([]string{"nameservice"}, args...))
	return r, err
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing default file falls back to defaults", func(t *testing.T) {
		r, err := runApp(t, "accounts")
		require.NoError(t, err)
		assert.Equal(t, config.DefaultNodeAddress, r.config().NodeAddress)
		assert.Equal(t, "info", r.verbosity)
	})

	t.Run("explicit missing file is an error", func(t *testing.T) {
		_, err := runApp(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "accounts")
		assert.Error(t, err)
	})

	t.Run("explicit file is loaded", func(t *testing.T) {
		_, err := runApp(t, "--config", "../../fixtures/tests/config/partial_config.yaml", "accounts")
		assert.NoError(t, err)
	})

	t.Run("flags override the file", func(t *testing.T) {
		r, err := runApp(t, "--node-address", "ws://node.test:9944", "--verbosity", "debug", "accounts")
		require.NoError(t, err)
		assert.Equal(t, "ws://node.test:9944", r.config().NodeAddress)
		assert.Equal(t, "debug", r.config().Logger.Verbosity)
		assert.Equal(t, "debug", r.verbosity)
	})

	t.Run("invalid override fails validation", func(t *testing.T) {
		_, err := runApp(t, "--node-address", "", "accounts")
		assert.Error(t, err)
	})
}

func TestAccountsCommand(t *testing.T) {
	t.Run("lists dev identities and marks the caller", func(t *testing.T) {
		r, err := runApp(t, "accounts")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(r.out.String()), "\n")
		require.Len(t, lines, len(keyring.DevSeeds))
		assert.True(t, strings.HasPrefix(lines[1], "* Bob"), lines[1])
		assert.Contains(t, lines[0], "0xf24FF3a9CF04c71Dbc94D0b566f7A27B94566cac")
	})

	t.Run("positional arguments are only logged", func(t *testing.T) {
		r, err := runApp(t, "accounts", "extra", "words")
		require.NoError(t, err)

		entries := r.logs.FilterMessage("Arguments").All()
		require.Len(t, entries, 1)
		assert.Equal(t, []interface{}{"extra", "words"}, entries[0].ContextMap()["args"])
	})

	t.Run("mnemonic identities are not printed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("identities:\n  - \""+keyring.DevPhrase+"\"\n"), 0o600))

		r, err := runApp(t, "--config", path, "accounts")
		require.NoError(t, err)
		assert.NotContains(t, r.out.String(), "bottom drive")
		assert.Contains(t, r.out.String(), "0xf24FF3a9CF04c71Dbc94D0b566f7A27B94566cac")
	})
}

func TestApplyRegisterFlags(t *testing.T) {
	run := func(t *testing.T, args ...string) (*config.Config, error) {
		t.Helper()
		cfg, err := config.Default()
		require.NoError(t, err)
		app := &cli.App{
			Flags: registerNameCommand().Flags,
			Action: func(c *cli.Context) error {
				return applyRegisterFlags(c, cfg)
			},
		}
		return cfg, app.Run(append([]string{"register-name"}, args...))
	}

	t.Run("unset flags keep the config", func(t *testing.T) {
		cfg, err := run(t)
		require.NoError(t, err)
		assert.Equal(t, "myname", cfg.Workflow.Name)
		assert.Equal(t, uint32(1), cfg.Workflow.Secret)
		assert.False(t, cfg.Workflow.FullRegistration)
	})

	t.Run("flags override the config", func(t *testing.T) {
		cfg, err := run(t, "--name", "othername", "--secret", "4294967295", "--full-registration")
		require.NoError(t, err)
		assert.Equal(t, "othername", cfg.Workflow.Name)
		assert.Equal(t, uint32(4294967295), cfg.Workflow.Secret)
		assert.True(t, cfg.Workflow.FullRegistration)
	})

	t.Run("secret wider than 32 bits is rejected", func(t *testing.T) {
		cfg, err := run(t, "--secret", "4294967296")
		assert.ErrorContains(t, err, "32 bits")
		assert.Equal(t, uint32(1), cfg.Workflow.Secret)
	})
}

func TestReportError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	app := &cli.App{Metadata: map[string]interface{}{metaLogger: zap.New(core)}}

	reportError(app, errors.New("connection refused"))

	entries := logs.FilterMessage("failed to run app").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "connection refused", entries[0].ContextMap()["error"])
}
