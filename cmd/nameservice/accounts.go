package main

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/fxnlabs/nameservice-cli/internal/keyring"
	"github.com/urfave/cli/v2"
)

func accountsCommand() *cli.Command {
	return &cli.Command{
		Name:  "accounts",
		Usage: "List the configured identities and their addresses",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "banner",
				Usage: "Print a banner above the listing",
			},
		},
		Action: func(c *cli.Context) error {
			logArguments(c)
			cfg := appConfig(c)
			identities := cfg.Identities
			if len(identities) == 0 {
				identities = keyring.DevSeeds
			}
			kr, err := keyring.Load(identities)
			if err != nil {
				return err
			}

			if c.Bool("banner") {
				fmt.Fprintln(c.App.Writer, figure.NewFigure("Name Service", "", true).String())
			}
			for _, pair := range kr.Pairs() {
				marker := " "
				if pair.URI() == cfg.Workflow.Caller || pair.Name() == cfg.Workflow.Caller {
					marker = "*"
				}
				fmt.Fprintf(c.App.Writer, "%s %-10s %s\n", marker, pair.Name(), pair.Address().Hex())
			}
			return nil
		},
	}
}
