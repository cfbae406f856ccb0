// Package ethereum dials go-ethereum RPC clients for the network context.
package ethereum

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fd1az/token-deployer/business/network/app"
	"github.com/fd1az/token-deployer/business/network/domain"
	"github.com/fd1az/token-deployer/internal/apperror"
	"github.com/fd1az/token-deployer/internal/logger"
)

// ClientPool keeps one RPC client per endpoint.
type ClientPool struct {
	logger     logger.LoggerInterface
	httpClient *http.Client

	clients map[domain.Endpoint]*ethclient.Client
	mu      sync.RWMutex
}

var _ app.Dialer = (*ClientPool)(nil)

// NewClientPool creates an empty pool. HTTP requests are traced.
func NewClientPool(log logger.LoggerInterface) *ClientPool {
	return &ClientPool{
		logger: log,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   60 * time.Second,
		},
		clients: make(map[domain.Endpoint]*ethclient.Client),
	}
}

// Client returns the pooled client for endpoint, dialing it on first use.
func (p *ClientPool) Client(ctx context.Context, endpoint domain.Endpoint) (app.Client, error) {
	p.mu.RLock()
	c, ok := p.clients[endpoint]
	p.mu.RUnlock()
	if ok {
		return c, nil
	}

	// ws:// dials handshake over the network, so dial without the lock.
	rpcClient, err := rpc.DialOptions(ctx, endpoint.String(), rpc.WithHTTPClient(p.httpClient))
	if err != nil {
		return nil, apperror.New(apperror.CodeEndpointUnreachable,
			apperror.WithContext("dial "+endpoint.Host()),
			apperror.WithCause(err))
	}
	dialed := ethclient.NewClient(rpcClient)

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[endpoint]; ok {
		dialed.Close()
		return c, nil
	}
	p.clients[endpoint] = dialed
	p.logger.Debug(ctx, "dialed RPC endpoint", "endpoint", endpoint.Host())

	return dialed, nil
}

// Close closes every pooled client.
func (p *ClientPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for ep, c := range p.clients {
		c.Close()
		delete(p.clients, ep)
	}
}
