// Package networktest provides in-memory RPC fakes for tests.
package networktest

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/token-deployer/business/network/app"
	"github.com/fd1az/token-deployer/business/network/domain"
)

// OneEther is 10^18 wei.
var OneEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// FakeClient is a scriptable app.Client. Nil funcs fall back to a healthy
// node: fresh head, 1 ETH balance, 1 gwei gas price, successful receipts.
type FakeClient struct {
	ChainIDValue int64
	BlockTime    func() time.Time // head timestamp, defaults to time.Now
	BlockNumber  uint64
	Delay        time.Duration // applied to HeaderByNumber

	HeaderFn   func(ctx context.Context) (*types.Header, error)
	BalanceFn  func(ctx context.Context, account common.Address) (*big.Int, error)
	NonceFn    func(ctx context.Context, account common.Address) (uint64, error)
	GasPriceFn func(ctx context.Context) (*big.Int, error)
	EstimateFn func(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	CallFn     func(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
	SendFn     func(ctx context.Context, tx *types.Transaction) error
	ReceiptFn  func(ctx context.Context, hash common.Hash) (*types.Receipt, error)

	HeaderCalls   atomic.Int64
	GasPriceCalls atomic.Int64
	NonceCalls    atomic.Int64

	mu   sync.Mutex
	sent []*types.Transaction
}

var _ app.Client = (*FakeClient)(nil)

// NewFakeClient returns a healthy Sepolia fake.
func NewFakeClient() *FakeClient {
	return &FakeClient{ChainIDValue: 11155111, BlockNumber: 100}
}

// Sent returns the transactions passed to SendTransaction.
func (f *FakeClient) Sent() []*types.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*types.Transaction(nil), f.sent...)
}

func (f *FakeClient) HeaderByNumber(ctx context.Context, _ *big.Int) (*types.Header, error) {
	f.HeaderCalls.Add(1)
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.HeaderFn != nil {
		return f.HeaderFn(ctx)
	}
	ts := time.Now()
	if f.BlockTime != nil {
		ts = f.BlockTime()
	}
	return &types.Header{
		Number: new(big.Int).SetUint64(f.BlockNumber),
		Time:   uint64(ts.Unix()),
	}, nil
}

func (f *FakeClient) BalanceAt(ctx context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	if f.BalanceFn != nil {
		return f.BalanceFn(ctx, account)
	}
	return new(big.Int).Set(OneEther), nil
}

func (f *FakeClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	f.NonceCalls.Add(1)
	if f.NonceFn != nil {
		return f.NonceFn(ctx, account)
	}
	return 0, nil
}

func (f *FakeClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	f.GasPriceCalls.Add(1)
	if f.GasPriceFn != nil {
		return f.GasPriceFn(ctx)
	}
	return big.NewInt(1_000_000_000), nil
}

func (f *FakeClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if f.EstimateFn != nil {
		return f.EstimateFn(ctx, msg)
	}
	return 21000, nil
}

func (f *FakeClient) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.CallFn != nil {
		return f.CallFn(ctx, msg)
	}
	return nil, errors.New("execution reverted")
}

func (f *FakeClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	f.sent = append(f.sent, tx)
	f.mu.Unlock()
	if f.SendFn != nil {
		return f.SendFn(ctx, tx)
	}
	return nil
}

func (f *FakeClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if f.ReceiptFn != nil {
		return f.ReceiptFn(ctx, hash)
	}
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      hash,
		BlockNumber: new(big.Int).SetUint64(f.BlockNumber),
		GasUsed:     21000,
	}, nil
}

func (f *FakeClient) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(f.ChainIDValue), nil
}

func (f *FakeClient) Close() {}

// FakeDialer maps endpoints to clients or dial errors.
type FakeDialer struct {
	Clients map[domain.Endpoint]*FakeClient
	Errors  map[domain.Endpoint]error
	Dials   atomic.Int64
}

var _ app.Dialer = (*FakeDialer)(nil)

// NewFakeDialer returns an empty dialer.
func NewFakeDialer() *FakeDialer {
	return &FakeDialer{
		Clients: make(map[domain.Endpoint]*FakeClient),
		Errors:  make(map[domain.Endpoint]error),
	}
}

// Add registers client for endpoint and returns it.
func (d *FakeDialer) Add(endpoint domain.Endpoint, client *FakeClient) *FakeClient {
	d.Clients[endpoint] = client
	return client
}

func (d *FakeDialer) Client(_ context.Context, endpoint domain.Endpoint) (app.Client, error) {
	d.Dials.Add(1)
	if err, ok := d.Errors[endpoint]; ok {
		return nil, err
	}
	c, ok := d.Clients[endpoint]
	if !ok {
		return nil, errors.New("dial " + endpoint.String() + ": connection refused")
	}
	return c, nil
}
