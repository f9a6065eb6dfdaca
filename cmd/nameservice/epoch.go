package main

import (
	"context"

	"github.com/fxnlabs/nameservice-cli/internal/session"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func epochCommand() *cli.Command {
	return &cli.Command{
		Name:  "epoch",
		Usage: "Show the current epoch of the epoch contract behind its proxy",
		Action: func(c *cli.Context) error {
			return withSession(c, func(ctx context.Context, s *session.Session) error {
				epochProxy, err := s.EpochProxy()
				if err != nil {
					return err
				}
				caller, err := s.Caller()
				if err != nil {
					return err
				}

				info, err := s.NameService.EpochStatus(ctx, caller, epochProxy)
				if err != nil {
					return err
				}
				appLogger(c).Info("Epoch",
					zap.String("epoch", info.Epoch.Hex()),
					zap.Uint32("current", info.Current),
					zap.Uint32("offset", info.Offset),
					zap.Uint32("periodLength", info.PeriodLength))
				return nil
			})
		},
	}
}
