// Package app contains the endpoint prober and selector and the RPC port they use.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/token-deployer/business/network/domain"
)

// Client is the subset of the Ethereum JSON-RPC API the tool uses.
// *ethclient.Client satisfies it.
type Client interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

// Dialer returns a client for an endpoint. Implementations may reuse clients.
type Dialer interface {
	Client(ctx context.Context, endpoint domain.Endpoint) (Client, error)
}

// EndpointProber probes endpoints. It never fails; failures are reported
// per endpoint in the results.
type EndpointProber interface {
	ProbeAll(ctx context.Context, endpoints []domain.Endpoint) []domain.ProbeResult
}
