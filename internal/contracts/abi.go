package contracts

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/fxnlabs/nameservice-cli/fixtures"
	"github.com/fxnlabs/nameservice-cli/internal/config"
)

// ABISet holds the parsed ABIs of the four contracts the CLI talks to.
type ABISet struct {
	EpochProxy    abi.ABI
	Epoch         abi.ABI
	RegistryProxy abi.ABI
	Registry      abi.ABI
}

// LoadABI parses the ABI file at path. An empty path parses fallback instead.
func LoadABI(path, fallback string) (abi.ABI, error) {
	source := fallback
	if path != "" {
		abiBytes, err := os.ReadFile(path)
		if err != nil {
			return abi.ABI{}, fmt.Errorf("failed to read ABI file %s: %w", path, err)
		}
		source = string(abiBytes)
	}

	parsedABI, err := abi.JSON(strings.NewReader(source))
	if err != nil {
		if path == "" {
			path = "embedded"
		}
		return abi.ABI{}, fmt.Errorf("failed to parse ABI %s: %w", path, err)
	}
	return parsedABI, nil
}

// LoadABISet loads all four ABIs and fails on the first one that cannot be
// read or parsed.
func LoadABISet(paths config.ABIPaths) (*ABISet, error) {
	var set ABISet
	entries := []struct {
		name     string
		path     string
		fallback string
		dst      *abi.ABI
	}{
		{"epoch proxy", paths.EpochProxy, fixtures.EpochProxyABI, &set.EpochProxy},
		{"epoch", paths.Epoch, fixtures.EpochABI, &set.Epoch},
		{"registry proxy", paths.RegistryProxy, fixtures.RegistryProxyABI, &set.RegistryProxy},
		{"registry", paths.Registry, fixtures.RegistryABI, &set.Registry},
	}
	for _, e := range entries {
		parsed, err := LoadABI(e.path, e.fallback)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.name, err)
		}
		*e.dst = parsed
	}
	return &set, nil
}
