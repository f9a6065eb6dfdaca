package main

import (
	"context"

	"github.com/fxnlabs/nameservice-cli/internal/session"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// withSession starts the fx graph for one command, hands the session to fn and
// stops the graph afterwards so the node connection is closed.
func withSession(c *cli.Context, fn func(ctx context.Context, s *session.Session) error) error {
	cfg := appConfig(c)
	log := appLogger(c)
	logArguments(c)

	var s *session.Session
	app := fx.New(
		fx.Supply(cfg, log),
		session.Module,
		fx.Populate(&s),
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: log.Named("fx")}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
	)
	if err := app.Err(); err != nil {
		return err
	}

	if err := app.Start(c.Context); err != nil {
		return err
	}
	defer func() {
		if err := app.Stop(context.Background()); err != nil {
			log.Warn("Failed to stop cleanly", zap.Error(err))
		}
	}()

	return fn(c.Context, s)
}

// logArguments records positional arguments. Commands do not interpret them.
func logArguments(c *cli.Context) {
	appLogger(c).Info("Arguments", zap.Strings("args", c.Args().Slice()))
}
