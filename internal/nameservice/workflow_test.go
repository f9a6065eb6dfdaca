package nameservice

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fxnlabs/nameservice-cli/internal/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mocks "github.com/fxnlabs/nameservice-cli/mocks/contracts"
)

func expectProxy(t *testing.T, binder *mocks.MockBinder, proxyAt, target common.Address) {
	t.Helper()
	proxy := mocks.NewMockContract(t)
	binder.On("Bind", mock.Anything, proxyAt).Return(proxy).Once()
	proxy.On("Query", mock.Anything, mock.Anything, mock.Anything, "get", mock.Anything).
		Return(&contracts.CallResult{Ok: true, Output: []interface{}{target}, GasConsumed: 900}, nil).Once()
}

func TestRegisterName(t *testing.T) {
	caller := testCaller(t)
	req := NameRequest{Name: "myname", Secret: 1}

	t.Run("only resolves the registry by default", func(t *testing.T) {
		svc, binder, logs := newTestService(t, Options{GasLimit: 1000})
		expectProxy(t, binder, proxyAddress, registryAddress)

		report, err := svc.RegisterName(context.Background(), caller, proxyAddress, req)
		require.NoError(t, err)
		assert.Equal(t, registryAddress, report.Registry)
		assert.Equal(t, []Step{
			{StepResolveRegistry, StepDone},
			{StepMakeCommitment, StepNotEnabled},
			{StepCommit, StepNotEnabled},
			{StepAvailable, StepNotEnabled},
		}, report.Steps)
		binder.AssertNumberOfCalls(t, "Bind", 1)
		assert.Equal(t, 1, logs.FilterMessage("Registration steps are not enabled").Len())
	})

	t.Run("full registration", func(t *testing.T) {
		svc, binder, logs := newTestService(t, Options{GasLimit: 1000, Payment: big.NewInt(100), FullRegistration: true})
		expectProxy(t, binder, proxyAddress, registryAddress)

		commitment := [32]byte{0xc0, 0xff, 0xee}
		registry := mocks.NewMockContract(t)
		binder.On("Bind", mock.Anything, registryAddress).Return(registry).Once()
		registry.On("Query", mock.Anything, caller.Address(), mock.Anything, "make_commitment",
			[]interface{}{"myname", caller.Address(), uint32(1)}).
			Return(&contracts.CallResult{Ok: true, Output: []interface{}{commitment}}, nil).Once()
		registry.On("Query", mock.Anything, caller.Address(), mock.Anything, "commit", []interface{}{commitment}).
			Return(&contracts.CallResult{Ok: true, GasConsumed: 52000}, nil).Once()
		registry.On("Submit", mock.Anything, caller, mock.Anything, "commit", mock.Anything, []interface{}{commitment}).
			Return(&contracts.CallResult{Ok: true}, nil,
				[]contracts.TxStatus{contracts.StatusInBlock, contracts.StatusFinalized}).Once()
		registry.On("Query", mock.Anything, caller.Address(), mock.Anything, "available", []interface{}{"myname"}).
			Return(&contracts.CallResult{Ok: true, Output: []interface{}{false}}, nil).Once()

		report, err := svc.RegisterName(context.Background(), caller, proxyAddress, req)
		require.NoError(t, err)
		assert.Equal(t, commitment, report.Commitment)
		assert.False(t, report.Available)
		require.Len(t, report.Steps, 4)
		for _, step := range report.Steps {
			assert.Equal(t, StepDone, step.Status, step.Name)
		}
		assert.Equal(t, []string{"in a block", "finalized"}, messages(logs, "in a block", "finalized"))
	})

	t.Run("stops when the commitment cannot be made", func(t *testing.T) {
		svc, binder, _ := newTestService(t, Options{GasLimit: 1000, FullRegistration: true})
		expectProxy(t, binder, proxyAddress, registryAddress)

		registry := mocks.NewMockContract(t)
		binder.On("Bind", mock.Anything, registryAddress).Return(registry).Once()
		registry.On("Query", mock.Anything, mock.Anything, mock.Anything, "make_commitment", mock.Anything).
			Return(&contracts.CallResult{Ok: false}, nil).Once()

		report, err := svc.RegisterName(context.Background(), caller, proxyAddress, req)
		assert.ErrorIs(t, err, ErrCallFailed)
		require.NotNil(t, report)
		assert.Len(t, report.Steps, 1)
		registry.AssertNumberOfCalls(t, "Submit", 0)
	})

	t.Run("proxy failure", func(t *testing.T) {
		svc, binder, _ := newTestService(t, Options{GasLimit: 1000})
		proxy := mocks.NewMockContract(t)
		binder.On("Bind", mock.Anything, proxyAddress).Return(proxy).Once()
		proxy.On("Query", mock.Anything, mock.Anything, mock.Anything, "get", mock.Anything).
			Return(&contracts.CallResult{Ok: false}, nil).Once()

		report, err := svc.RegisterName(context.Background(), caller, proxyAddress, req)
		assert.ErrorIs(t, err, ErrCallFailed)
		assert.Nil(t, report)
	})
}

func TestEpochStatus(t *testing.T) {
	caller := testCaller(t)
	epochProxyAddress := common.HexToAddress("0xe0")
	epochAddress := common.HexToAddress("0xe1")

	t.Run("success", func(t *testing.T) {
		svc, binder, _ := newTestService(t, Options{GasLimit: 1000})
		expectProxy(t, binder, epochProxyAddress, epochAddress)

		epoch := mocks.NewMockContract(t)
		binder.On("Bind", mock.Anything, epochAddress).Return(epoch).Once()
		for method, value := range map[string]uint32{"get_current_epoch": 7, "get_offset": 100, "get_period_length": 600} {
			epoch.On("Query", mock.Anything, caller.Address(), mock.Anything, method, mock.Anything).
				Return(&contracts.CallResult{Ok: true, Output: []interface{}{value}}, nil).Once()
		}

		info, err := svc.EpochStatus(context.Background(), caller, epochProxyAddress)
		require.NoError(t, err)
		assert.Equal(t, &EpochInfo{Epoch: epochAddress, Current: 7, Offset: 100, PeriodLength: 600}, info)
	})

	t.Run("query failure", func(t *testing.T) {
		svc, binder, _ := newTestService(t, Options{GasLimit: 1000})
		expectProxy(t, binder, epochProxyAddress, epochAddress)

		epoch := mocks.NewMockContract(t)
		binder.On("Bind", mock.Anything, epochAddress).Return(epoch).Once()
		epoch.On("Query", mock.Anything, mock.Anything, mock.Anything, "get_current_epoch", mock.Anything).
			Return(&contracts.CallResult{Ok: false}, nil).Once()

		_, err := svc.EpochStatus(context.Background(), caller, epochProxyAddress)
		assert.ErrorIs(t, err, ErrCallFailed)
	})
}

func TestDeploy(t *testing.T) {
	svc, _, logs := newTestService(t, Options{GasLimit: 1000})
	err := svc.Deploy(context.Background(), "registry_proxy", big.NewInt(1230000000000))
	assert.ErrorIs(t, err, ErrNotEnabled)
	assert.Equal(t, 1, logs.FilterMessage("Deployment is not enabled").Len())
}
