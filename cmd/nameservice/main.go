package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fxnlabs/nameservice-cli/internal/config"
	"github.com/fxnlabs/nameservice-cli/internal/logger"
	"github.com/fxnlabs/nameservice-cli/internal/metrics"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const (
	metaConfig = "config"
	metaLogger = "logger"
)

// newLogger is replaced in tests.
var newLogger = logger.New

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		reportError(app, err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "nameservice",
		Usage: "Register names with the name registry contracts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "Load configuration from `FILE`",
				EnvVars: []string{"NAMESERVICE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "node-address",
				Usage:   "Node RPC endpoint, overrides nodeAddress",
				EnvVars: []string{"NAMESERVICE_NODE_ADDRESS"},
			},
			&cli.StringFlag{
				Name:  "verbosity",
				Usage: "Log level, overrides logger.verbosity",
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			zapLogger, err := newLogger(cfg.Logger.Verbosity, cfg.Logger.Encoding)
			if err != nil {
				return err
			}
			c.App.Metadata[metaConfig] = cfg
			c.App.Metadata[metaLogger] = zapLogger.Named("cli")
			return nil
		},
		After: func(c *cli.Context) error {
			cfg, ok := c.App.Metadata[metaConfig].(*config.Config)
			if !ok || cfg.Metrics.Textfile == "" {
				return nil
			}
			return metrics.WriteTextfile(cfg.Metrics.Textfile)
		},
		Action: registerNameAction,
		Commands: []*cli.Command{
			registerNameCommand(),
			epochCommand(),
			accountsCommand(),
			deployCommand(),
		},
	}
}

// reportError logs a failed run. The exit status is left to the runtime.
func reportError(app *cli.App, err error) {
	if log, ok := app.Metadata[metaLogger].(*zap.Logger); ok {
		log.Error("failed to run app", zap.Error(err))
		_ = log.Sync()
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// loadConfig reads the config file, falling back to the built-in defaults
// when the default path does not exist, and applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if errors.Is(err, fs.ErrNotExist) && !c.IsSet("config") {
		cfg, err = config.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if c.IsSet("node-address") {
		cfg.NodeAddress = c.String("node-address")
	}
	if c.IsSet("verbosity") {
		cfg.Logger.Verbosity = c.String("verbosity")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func appConfig(c *cli.Context) *config.Config {
	return c.App.Metadata[metaConfig].(*config.Config)
}

func appLogger(c *cli.Context) *zap.Logger {
	return c.App.Metadata[metaLogger].(*zap.Logger)
}
