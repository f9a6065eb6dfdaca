package contracts

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fxnlabs/nameservice-cli/internal/contracts"
	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockContract is a testify mock of contracts.Contract.
type MockContract struct {
	mock.Mock
}

func NewMockContract(t testingT) *MockContract {
	m := &MockContract{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockContract) Address() common.Address {
	args := m.Called()
	return args.Get(0).(common.Address)
}

func (m *MockContract) Query(ctx context.Context, from common.Address, opts contracts.CallOptions, method string, params ...interface{}) (*contracts.CallResult, error) {
	args := m.Called(ctx, from, opts, method, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contracts.CallResult), args.Error(1)
}

// Submit records the call. A third return value of type []contracts.TxStatus
// is replayed to the watcher before returning.
func (m *MockContract) Submit(ctx context.Context, signer contracts.Signer, opts contracts.CallOptions, method string, watch contracts.StatusFunc, params ...interface{}) (*contracts.CallResult, error) {
	args := m.Called(ctx, signer, opts, method, watch, params)
	if len(args) > 2 && watch != nil {
		if replay, ok := args.Get(2).([]contracts.TxStatus); ok {
			for _, status := range replay {
				watch(status, nil)
			}
		}
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contracts.CallResult), args.Error(1)
}

// MockBinder is a testify mock of contracts.Binder.
type MockBinder struct {
	mock.Mock
}

func NewMockBinder(t testingT) *MockBinder {
	m := &MockBinder{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockBinder) Bind(contractABI abi.ABI, address common.Address) contracts.Contract {
	args := m.Called(contractABI, address)
	return args.Get(0).(contracts.Contract)
}
