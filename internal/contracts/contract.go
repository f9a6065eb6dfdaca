// Package contracts binds parsed ABIs to on-chain addresses and performs the
// two kinds of calls the CLI needs: read-only queries and signed transactions
// whose progress is reported through a status callback.
package contracts

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/fxnlabs/nameservice-cli/internal/metrics"
	"github.com/fxnlabs/nameservice-cli/pkg/ethclient"
	"go.uber.org/zap"
)

// TxStatus is a stage of a submitted transaction.
type TxStatus int

const (
	StatusInBlock TxStatus = iota
	StatusFinalized
)

func (s TxStatus) String() string {
	switch s {
	case StatusInBlock:
		return "in_block"
	case StatusFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// StatusFunc observes a submitted transaction. It is called once with
// StatusInBlock and then once with StatusFinalized.
type StatusFunc func(status TxStatus, receipt *types.Receipt)

// CallOptions carries the value and gas ceiling of a call.
type CallOptions struct {
	Value    *big.Int
	GasLimit uint64
}

// CallResult is the outcome of one query or transaction. When Ok is false the
// call was rejected by the node or reverted and Err holds the decoded payload.
type CallResult struct {
	Ok          bool
	Output      []interface{}
	GasConsumed uint64
	Err         *CallError
	TxHash      common.Hash
}

// CallError is an error outcome reported by the node for a contract call.
type CallError struct {
	Method  string
	Message string
	Reason  string
	Data    []byte
}

func (e *CallError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s: %s", e.Method, e.Message, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Method, e.Message)
}

// Signer is an identity able to authorize transactions.
type Signer interface {
	Address() common.Address
	TransactOpts(chainID *big.Int) (*bind.TransactOpts, error)
}

// Contract is a callable handle on one deployed contract.
type Contract interface {
	Address() common.Address
	Query(ctx context.Context, from common.Address, opts CallOptions, method string, args ...interface{}) (*CallResult, error)
	Submit(ctx context.Context, signer Signer, opts CallOptions, method string, watch StatusFunc, args ...interface{}) (*CallResult, error)
}

// Binder constructs contract handles. The address must already be resolved.
type Binder interface {
	Bind(contractABI abi.ABI, address common.Address) Contract
}

type ClientBinder struct {
	client       ethclient.EthClient
	chainID      *big.Int
	pollInterval time.Duration
	logger       *zap.Logger
}

func NewBinder(client ethclient.EthClient, chainID *big.Int, pollInterval time.Duration, logger *zap.Logger) *ClientBinder {
	return &ClientBinder{
		client:       client,
		chainID:      chainID,
		pollInterval: pollInterval,
		logger:       logger.Named("contracts"),
	}
}

func (b *ClientBinder) Bind(contractABI abi.ABI, address common.Address) Contract {
	return &BoundContract{
		client:       b.client,
		contractABI:  contractABI,
		address:      address,
		bound:        bind.NewBoundContract(address, contractABI, b.client, b.client, b.client),
		chainID:      b.chainID,
		pollInterval: b.pollInterval,
		logger:       b.logger.With(zap.String("contractAddress", address.Hex())),
	}
}

type BoundContract struct {
	client       ethclient.EthClient
	contractABI  abi.ABI
	address      common.Address
	bound        *bind.BoundContract
	chainID      *big.Int
	pollInterval time.Duration
	logger       *zap.Logger
}

func (c *BoundContract) Address() common.Address {
	return c.address
}

// Query performs a read-only call from the given address and estimates the gas
// the same call would consume as a transaction.
func (c *BoundContract) Query(ctx context.Context, from common.Address, opts CallOptions, method string, args ...interface{}) (*CallResult, error) {
	callData, err := c.contractABI.Pack(method, args...)
	if err != nil {
		c.logger.Error("Failed to pack call data", zap.String("method", method), zap.Error(err))
		metrics.ContractCalls.WithLabelValues(method, metrics.KindQuery, metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to pack data for %s: %w", method, err)
	}

	msg := ethereum.CallMsg{
		From:  from,
		To:    &c.address,
		Gas:   opts.GasLimit,
		Value: opts.Value,
		Data:  callData,
	}
	result, err := c.client.CallContract(ctx, msg, nil)
	if err != nil {
		return c.failure(method, metrics.KindQuery, err)
	}
	gas, err := c.client.EstimateGas(ctx, msg)
	if err != nil {
		return c.failure(method, metrics.KindQuery, err)
	}

	output, err := c.contractABI.Unpack(method, result)
	if err != nil {
		c.logger.Error("Failed to unpack result", zap.String("method", method), zap.Error(err))
		metrics.ContractCalls.WithLabelValues(method, metrics.KindQuery, metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}

	metrics.ContractCalls.WithLabelValues(method, metrics.KindQuery, metrics.OutcomeOk).Inc()
	metrics.GasConsumed.WithLabelValues(method).Observe(float64(gas))
	return &CallResult{Ok: true, Output: output, GasConsumed: gas}, nil
}

// Submit signs and sends a transaction, then waits for it to be included in a
// block and for that block to be finalized, reporting both through watch.
func (c *BoundContract) Submit(ctx context.Context, signer Signer, opts CallOptions, method string, watch StatusFunc, args ...interface{}) (*CallResult, error) {
	auth, err := signer.TransactOpts(c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor for %s: %w", signer.Address().Hex(), err)
	}
	auth.Context = ctx
	auth.Value = opts.Value
	auth.GasLimit = opts.GasLimit

	tx, err := c.bound.Transact(auth, method, args...)
	if err != nil {
		return c.failure(method, metrics.KindTransaction, err)
	}
	c.logger.Debug("Transaction sent", zap.String("method", method), zap.String("txHash", tx.Hash().Hex()))

	receipt, err := c.waitReceipt(ctx, tx.Hash())
	if err != nil {
		return nil, err
	}
	c.notify(watch, StatusInBlock, receipt)

	if err := c.waitFinalized(ctx, receipt.BlockNumber); err != nil {
		return nil, err
	}
	c.notify(watch, StatusFinalized, receipt)

	res := &CallResult{
		Ok:          receipt.Status == types.ReceiptStatusSuccessful,
		GasConsumed: receipt.GasUsed,
		TxHash:      tx.Hash(),
	}
	if !res.Ok {
		res.Err = &CallError{Method: method, Message: "transaction reverted"}
		metrics.ContractCalls.WithLabelValues(method, metrics.KindTransaction, metrics.OutcomeFailed).Inc()
		return res, nil
	}
	metrics.ContractCalls.WithLabelValues(method, metrics.KindTransaction, metrics.OutcomeOk).Inc()
	return res, nil
}

func (c *BoundContract) notify(watch StatusFunc, status TxStatus, receipt *types.Receipt) {
	metrics.TxStatusEvents.WithLabelValues(status.String()).Inc()
	if watch != nil {
		watch(status, receipt)
	}
}

// failure separates errors the node reported for the call from transport
// errors. The former become a failed CallResult, the latter are returned.
func (c *BoundContract) failure(method, kind string, err error) (*CallResult, error) {
	callErr, ok := AsCallError(method, err)
	if !ok {
		c.logger.Error("Failed to call contract", zap.String("method", method), zap.Error(err))
		metrics.ContractCalls.WithLabelValues(method, kind, metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	metrics.ContractCalls.WithLabelValues(method, kind, metrics.OutcomeFailed).Inc()
	return &CallResult{Ok: false, Err: callErr}, nil
}

// AsCallError converts an error carried in a JSON-RPC error response into a
// CallError, decoding a Solidity revert reason when one is attached.
func AsCallError(method string, err error) (*CallError, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return nil, false
	}
	callErr := &CallError{Method: method, Message: dataErr.Error()}
	if s, ok := dataErr.ErrorData().(string); ok {
		if data, decodeErr := hexutil.Decode(s); decodeErr == nil {
			callErr.Data = data
			if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
				callErr.Reason = reason
			}
		}
	}
	return callErr, true
}

func (c *BoundContract) waitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to fetch receipt for %s: %w", txHash.Hex(), err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *BoundContract) waitFinalized(ctx context.Context, block *big.Int) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	finalized := big.NewInt(int64(rpc.FinalizedBlockNumber))
	for {
		header, err := c.client.HeaderByNumber(ctx, finalized)
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return fmt.Errorf("failed to fetch finalized header: %w", err)
		}
		if header != nil && header.Number.Cmp(block) >= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
