// Package nameservice drives the name registry contracts: it resolves the
// registry through its proxy, computes and submits commitments and checks
// name availability.
package nameservice

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fxnlabs/nameservice-cli/internal/contracts"
	"go.uber.org/zap"
)

var (
	// ErrCallFailed is returned when the node reports an error outcome for a
	// contract call. The decoded payload is logged, not classified.
	ErrCallFailed = errors.New("contract call failed")
	// ErrNotEnabled marks a workflow that exists but is switched off.
	ErrNotEnabled = errors.New("not yet enabled")
)

type Options struct {
	// GasLimit is the ceiling for queries.
	GasLimit uint64
	// Payment is attached to commit transactions.
	Payment          *big.Int
	FullRegistration bool
}

type Service struct {
	binder contracts.Binder
	abis   *contracts.ABISet
	opts   Options
	logger *zap.Logger
}

func New(binder contracts.Binder, abis *contracts.ABISet, opts Options, logger *zap.Logger) *Service {
	if opts.Payment == nil {
		opts.Payment = new(big.Int)
	}
	return &Service{
		binder: binder,
		abis:   abis,
		opts:   opts,
		logger: logger.Named("nameservice"),
	}
}

func (s *Service) queryOpts() contracts.CallOptions {
	return contracts.CallOptions{Value: new(big.Int), GasLimit: s.opts.GasLimit}
}

// GetRegistryProxy asks the registry proxy at proxy for the address of the
// registry it currently points to.
func (s *Service) GetRegistryProxy(ctx context.Context, proxyABI abi.ABI, caller contracts.Signer, proxy common.Address) (common.Address, error) {
	return s.resolveProxy(ctx, proxyABI, caller, proxy)
}

func (s *Service) resolveProxy(ctx context.Context, proxyABI abi.ABI, caller contracts.Signer, proxy common.Address) (common.Address, error) {
	contract := s.binder.Bind(proxyABI, proxy)
	res, err := contract.Query(ctx, caller.Address(), s.queryOpts(), "get")
	if err != nil {
		return common.Address{}, err
	}

	s.logger.Info("Query result", zap.String("method", "get"), zap.String("proxy", proxy.Hex()), zap.Bool("ok", res.Ok))
	s.logger.Info("Gas consumed", zap.String("method", "get"), zap.Uint64("gasConsumed", res.GasConsumed))

	if !res.Ok {
		s.logger.Error("Error", zap.String("method", "get"), zap.Error(callError(res)))
		return common.Address{}, fmt.Errorf("get: %w", ErrCallFailed)
	}

	target, err := firstOutput[common.Address](res, "get")
	if err != nil {
		return common.Address{}, err
	}
	s.logger.Info("Success", zap.String("method", "get"), zap.String("output", target.Hex()))
	return target, nil
}

// MakeCommitment computes the commitment hash for name, owner and secret.
func (s *Service) MakeCommitment(ctx context.Context, registry contracts.Contract, caller contracts.Signer, owner common.Address, name string, secret uint32) ([32]byte, error) {
	res, err := s.query(ctx, registry, caller, "make_commitment", name, owner, secret)
	if err != nil {
		return [32]byte{}, err
	}
	return firstOutput[[32]byte](res, "make_commitment")
}

// Available reports whether name can be registered.
func (s *Service) Available(ctx context.Context, registry contracts.Contract, caller contracts.Signer, name string) (bool, error) {
	res, err := s.query(ctx, registry, caller, "available", name)
	if err != nil {
		return false, err
	}
	return firstOutput[bool](res, "available")
}

// Commit submits commitment ahead of a registration.
func (s *Service) Commit(ctx context.Context, registry contracts.Contract, signer contracts.Signer, commitment [32]byte) (*contracts.CallResult, error) {
	return s.submit(ctx, registry, signer, "commit", commitment)
}

// Register currently submits the commit message, exactly like Commit. The
// registry's own register message takes a name, duration and secret and is
// not wired yet.
func (s *Service) Register(ctx context.Context, registry contracts.Contract, signer contracts.Signer, commitment [32]byte) (*contracts.CallResult, error) {
	return s.submit(ctx, registry, signer, "commit", commitment)
}

func (s *Service) query(ctx context.Context, contract contracts.Contract, caller contracts.Signer, method string, args ...interface{}) (*contracts.CallResult, error) {
	res, err := contract.Query(ctx, caller.Address(), s.queryOpts(), method, args...)
	if err != nil {
		return nil, err
	}
	if !res.Ok {
		s.logger.Error("Error", zap.String("method", method), zap.Error(callError(res)))
		return nil, fmt.Errorf("%s: %w", method, ErrCallFailed)
	}
	s.logger.Info("Success",
		zap.String("method", method),
		zap.Any("output", res.Output),
		zap.Uint64("gasConsumed", res.GasConsumed))
	return res, nil
}

// submit dry-runs method to obtain a gas estimate and only sends the
// transaction when the dry run succeeds.
func (s *Service) submit(ctx context.Context, contract contracts.Contract, signer contracts.Signer, method string, args ...interface{}) (*contracts.CallResult, error) {
	estimate, err := contract.Query(ctx, signer.Address(), s.queryOpts(), method, args...)
	if err != nil {
		return nil, err
	}
	if !estimate.Ok {
		s.logger.Error("Error", zap.String("method", method), zap.Error(callError(estimate)))
		return nil, fmt.Errorf("%s: %w", method, ErrCallFailed)
	}

	opts := contracts.CallOptions{Value: s.opts.Payment, GasLimit: estimate.GasConsumed}
	res, err := contract.Submit(ctx, signer, opts, method, s.watch(method), args...)
	if err != nil {
		return nil, err
	}
	if !res.Ok {
		s.logger.Error("Error", zap.String("method", method), zap.Error(callError(res)))
		return res, fmt.Errorf("%s: %w", method, ErrCallFailed)
	}
	s.logger.Info("Success",
		zap.String("method", method),
		zap.String("txHash", res.TxHash.Hex()),
		zap.Uint64("gasConsumed", res.GasConsumed))
	return res, nil
}

func (s *Service) watch(method string) contracts.StatusFunc {
	return func(status contracts.TxStatus, receipt *types.Receipt) {
		fields := []zap.Field{zap.String("method", method)}
		if receipt != nil && receipt.BlockNumber != nil {
			fields = append(fields, zap.Uint64("block", receipt.BlockNumber.Uint64()))
		}
		switch status {
		case contracts.StatusInBlock:
			s.logger.Info("in a block", fields...)
		case contracts.StatusFinalized:
			s.logger.Info("finalized", fields...)
		}
	}
}

func callError(res *contracts.CallResult) error {
	if res.Err == nil {
		return errors.New("unknown error")
	}
	return res.Err
}

func firstOutput[T any](res *contracts.CallResult, method string) (T, error) {
	var zero T
	if len(res.Output) == 0 {
		return zero, fmt.Errorf("%s returned no output", method)
	}
	v, ok := res.Output[0].(T)
	if !ok {
		return zero, fmt.Errorf("%s returned %T, expected %T", method, res.Output[0], zero)
	}
	return v, nil
}
