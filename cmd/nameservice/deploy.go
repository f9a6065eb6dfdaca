package main

import (
	"context"

	"github.com/fxnlabs/nameservice-cli/internal/session"
	"github.com/urfave/cli/v2"
)

func deployCommand() *cli.Command {
	return &cli.Command{
		Name:      "deploy",
		Usage:     "Deploy a contract from its blueprint (not enabled)",
		ArgsUsage: "<contract>",
		Action: func(c *cli.Context) error {
			contractName := c.Args().First()
			if contractName == "" {
				contractName = "registry_proxy"
			}
			return withSession(c, func(ctx context.Context, s *session.Session) error {
				endowment, err := s.Config.EndowmentValue()
				if err != nil {
					return err
				}
				return s.NameService.Deploy(ctx, contractName, endowment)
			})
		},
	}
}
