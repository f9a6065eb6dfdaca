// Package session bootstraps everything a command needs: one node
// connection, the four contract ABIs, the identities and the name service
// built on top of them. A Session is created once per run and passed down.
package session

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fxnlabs/nameservice-cli/internal/config"
	"github.com/fxnlabs/nameservice-cli/internal/contracts"
	"github.com/fxnlabs/nameservice-cli/internal/keyring"
	"github.com/fxnlabs/nameservice-cli/internal/nameservice"
	"github.com/fxnlabs/nameservice-cli/pkg/ethclient"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Session struct {
	Client      ethclient.EthClient
	ChainID     *big.Int
	ABIs        *contracts.ABISet
	Keyring     *keyring.Keyring
	NameService *nameservice.Service
	Config      *config.Config
	Logger      *zap.Logger
}

// New builds a session over an open client. The ABIs are parsed before any
// contract handle exists, so a malformed ABI aborts the run without a single
// contract call.
func New(ctx context.Context, client ethclient.EthClient, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	log := logger.Named("session")

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain id: %w", err)
	}
	log.Info("Connected to node", zap.String("nodeAddress", cfg.NodeAddress), zap.String("chainID", chainID.String()))

	abis, err := contracts.LoadABISet(cfg.ABI)
	if err != nil {
		return nil, fmt.Errorf("failed to load ABIs: %w", err)
	}

	identities := cfg.Identities
	if len(identities) == 0 {
		identities = keyring.DevSeeds
	}
	kr, err := keyring.Load(identities)
	if err != nil {
		return nil, fmt.Errorf("failed to load identities: %w", err)
	}

	payment, err := cfg.PaymentValue()
	if err != nil {
		return nil, err
	}

	binder := contracts.NewBinder(client, chainID, cfg.Workflow.PollInterval, logger)
	svc := nameservice.New(binder, abis, nameservice.Options{
		GasLimit:         cfg.Call.GasLimit,
		Payment:          payment,
		FullRegistration: cfg.Workflow.FullRegistration,
	}, logger)

	return &Session{
		Client:      client,
		ChainID:     chainID,
		ABIs:        abis,
		Keyring:     kr,
		NameService: svc,
		Config:      cfg,
		Logger:      logger,
	}, nil
}

// Caller returns the identity configured as workflow caller.
func (s *Session) Caller() (*keyring.Pair, error) {
	return s.Keyring.Lookup(s.Config.Workflow.Caller)
}

func (s *Session) RegistryProxy() common.Address {
	return common.HexToAddress(s.Config.Contracts.RegistryProxy)
}

func (s *Session) EpochProxy() (common.Address, error) {
	if s.Config.Contracts.EpochProxy == "" {
		return common.Address{}, fmt.Errorf("contracts.epochProxy is not configured")
	}
	return common.HexToAddress(s.Config.Contracts.EpochProxy), nil
}

// Module provides the node connection and the Session. The connection is
// closed when the fx app stops.
var Module = fx.Module("session",
	fx.Provide(
		NewClient,
		NewFromLifecycle,
	),
)

func NewClient(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (ethclient.EthClient, error) {
	client, err := ethclient.Dial(context.Background(), cfg.NodeAddress)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Debug("Closing node connection", zap.String("nodeAddress", cfg.NodeAddress))
			client.Close()
			return nil
		},
	})
	return client, nil
}

func NewFromLifecycle(client ethclient.EthClient, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	return New(context.Background(), client, cfg, logger)
}
