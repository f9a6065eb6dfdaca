// Package ethclient defines the node connection used by the rest of the
// module so that contract handles can be exercised against mocks.
package ethclient

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	goethclient "github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// EthClient is the subset of *ethclient.Client the CLI depends on.
type EthClient interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

var _ EthClient = (*goethclient.Client)(nil)

// Dial opens one connection to the node. Both ws:// and http:// endpoints are
// accepted.
func Dial(ctx context.Context, url string) (*goethclient.Client, error) {
	rpcClient, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to node %s: %w", url, err)
	}
	return goethclient.NewClient(rpcClient), nil
}
