package main

import (
	"context"
	"fmt"
	"math"

	"github.com/fxnlabs/nameservice-cli/internal/config"
	"github.com/fxnlabs/nameservice-cli/internal/nameservice"
	"github.com/fxnlabs/nameservice-cli/internal/session"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func registerNameCommand() *cli.Command {
	return &cli.Command{
		Name:  "register-name",
		Usage: "Resolve the registry through its proxy and register a name",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "name",
				Usage: "Name to register, overrides workflow.name",
			},
			&cli.Uint64Flag{
				Name:  "secret",
				Usage: "Commitment secret, overrides workflow.secret",
			},
			&cli.BoolFlag{
				Name:  "full-registration",
				Usage: "Run the commitment steps after resolving the registry",
			},
		},
		Action: registerNameAction,
	}
}

func registerNameAction(c *cli.Context) error {
	cfg := appConfig(c)
	if err := applyRegisterFlags(c, cfg); err != nil {
		return err
	}

	return withSession(c, func(ctx context.Context, s *session.Session) error {
		caller, err := s.Caller()
		if err != nil {
			return err
		}

		report, err := s.NameService.RegisterName(ctx, caller, s.RegistryProxy(), nameservice.NameRequest{
			Name:   cfg.Workflow.Name,
			Secret: cfg.Workflow.Secret,
		})
		if err != nil {
			return err
		}

		log := appLogger(c)
		for _, step := range report.Steps {
			log.Info("Step", zap.String("step", step.Name), zap.String("status", string(step.Status)))
		}
		log.Info("Registry resolved", zap.String("registry", report.Registry.Hex()))
		return nil
	})
}

// applyRegisterFlags copies the register-name flags that were set onto cfg.
func applyRegisterFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("name") {
		cfg.Workflow.Name = c.String("name")
	}
	if c.IsSet("secret") {
		secret := c.Uint64("secret")
		if secret > math.MaxUint32 {
			return fmt.Errorf("secret %d does not fit in 32 bits", secret)
		}
		cfg.Workflow.Secret = uint32(secret)
	}
	if c.IsSet("full-registration") {
		cfg.Workflow.FullRegistration = c.Bool("full-registration")
	}
	return nil
}
