package nameservice

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fxnlabs/nameservice-cli/internal/contracts"
	"github.com/fxnlabs/nameservice-cli/internal/metrics"
	"go.uber.org/zap"
)

const (
	StepResolveRegistry = "resolve_registry"
	StepMakeCommitment  = "make_commitment"
	StepCommit          = "commit"
	StepAvailable       = "available"
)

type StepStatus string

const (
	StepDone       StepStatus = "done"
	StepNotEnabled StepStatus = "not_enabled"
)

type Step struct {
	Name   string
	Status StepStatus
}

type NameRequest struct {
	Name   string
	Secret uint32
}

// Report describes how far a RegisterName run got.
type Report struct {
	Registry   common.Address
	Commitment [32]byte
	Available  bool
	Steps      []Step
}

func (r *Report) record(name string, status StepStatus) {
	r.Steps = append(r.Steps, Step{Name: name, Status: status})
	metrics.WorkflowSteps.WithLabelValues(name, string(status)).Inc()
}

// RegisterName resolves the registry through registryProxy and, when full
// registration is enabled, commits to req and checks the name afterwards.
// With full registration disabled the remaining steps are reported as not
// enabled and no registry call is made.
func (s *Service) RegisterName(ctx context.Context, caller contracts.Signer, registryProxy common.Address, req NameRequest) (*Report, error) {
	registryAddress, err := s.GetRegistryProxy(ctx, s.abis.RegistryProxy, caller, registryProxy)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve registry: %w", err)
	}
	report := &Report{Registry: registryAddress}
	report.record(StepResolveRegistry, StepDone)

	if !s.opts.FullRegistration {
		for _, step := range []string{StepMakeCommitment, StepCommit, StepAvailable} {
			report.record(step, StepNotEnabled)
		}
		s.logger.Info("Registration steps are not enabled",
			zap.String("name", req.Name),
			zap.String("registry", registryAddress.Hex()))
		return report, nil
	}

	registry := s.binder.Bind(s.abis.Registry, registryAddress)

	commitment, err := s.MakeCommitment(ctx, registry, caller, caller.Address(), req.Name, req.Secret)
	if err != nil {
		return report, err
	}
	report.Commitment = commitment
	report.record(StepMakeCommitment, StepDone)

	if _, err := s.Commit(ctx, registry, caller, commitment); err != nil {
		return report, err
	}
	report.record(StepCommit, StepDone)

	// Queried for the log line only.
	available, err := s.Available(ctx, registry, caller, req.Name)
	if err != nil {
		return report, err
	}
	report.Available = available
	report.record(StepAvailable, StepDone)

	return report, nil
}

type EpochInfo struct {
	Epoch        common.Address
	Current      uint32
	Offset       uint32
	PeriodLength uint32
}

// EpochStatus resolves the epoch contract through epochProxy and reads its
// current epoch and schedule.
func (s *Service) EpochStatus(ctx context.Context, caller contracts.Signer, epochProxy common.Address) (*EpochInfo, error) {
	epochAddress, err := s.resolveProxy(ctx, s.abis.EpochProxy, caller, epochProxy)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve epoch: %w", err)
	}
	epoch := s.binder.Bind(s.abis.Epoch, epochAddress)

	info := &EpochInfo{Epoch: epochAddress}
	for _, field := range []struct {
		method string
		dst    *uint32
	}{
		{"get_current_epoch", &info.Current},
		{"get_offset", &info.Offset},
		{"get_period_length", &info.PeriodLength},
	} {
		res, err := s.query(ctx, epoch, caller, field.method)
		if err != nil {
			return nil, err
		}
		if *field.dst, err = firstOutput[uint32](res, field.method); err != nil {
			return nil, err
		}
	}
	return info, nil
}

// Deploy would upload contract code and instantiate it with endowment. It is
// kept as an explicit placeholder until deployment is supported.
func (s *Service) Deploy(ctx context.Context, contractName string, endowment *big.Int) error {
	s.logger.Warn("Deployment is not enabled",
		zap.String("contract", contractName),
		zap.String("endowment", endowment.String()))
	return fmt.Errorf("deploy %s: %w", contractName, ErrNotEnabled)
}
