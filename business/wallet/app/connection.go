// Package app binds the wallet identity to the selected endpoint and
// decides when the network is ready for a transaction.
package app

import (
	"context"

	networkapp "github.com/fd1az/token-deployer/business/network/app"
	networkdomain "github.com/fd1az/token-deployer/business/network/domain"
	"github.com/fd1az/token-deployer/business/wallet/domain"
	"github.com/fd1az/token-deployer/internal/apperror"
)

// EndpointSelector returns the endpoint operations should use right now.
type EndpointSelector interface {
	SelectStable(ctx context.Context) (networkdomain.Endpoint, error)
}

// BoundConnection is a client for one endpoint paired with the signing identity.
type BoundConnection struct {
	Endpoint networkdomain.Endpoint
	Client   networkapp.Client
	Identity *domain.Identity
}

// Connector hands out bound connections.
type Connector interface {
	GetConnection(ctx context.Context) (*BoundConnection, error)
}

// ConnectionFactory builds a BoundConnection for the currently selected endpoint.
type ConnectionFactory struct {
	selector EndpointSelector
	dialer   networkapp.Dialer
	identity *domain.Identity
}

var _ Connector = (*ConnectionFactory)(nil)

// NewConnectionFactory creates a ConnectionFactory.
func NewConnectionFactory(selector EndpointSelector, dialer networkapp.Dialer, identity *domain.Identity) *ConnectionFactory {
	return &ConnectionFactory{
		selector: selector,
		dialer:   dialer,
		identity: identity,
	}
}

// Identity returns the signing identity.
func (f *ConnectionFactory) Identity() *domain.Identity {
	return f.identity
}

// GetConnection selects an endpoint and binds the identity to its client.
// Connections are not cached; a new selection can take effect on every call.
func (f *ConnectionFactory) GetConnection(ctx context.Context) (*BoundConnection, error) {
	endpoint, err := f.selector.SelectStable(ctx)
	if err != nil {
		return nil, err
	}

	client, err := f.dialer.Client(ctx, endpoint)
	if err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, apperror.External(apperror.CodeEndpointUnreachable, endpoint.Host(), err)
	}

	return &BoundConnection{
		Endpoint: endpoint,
		Client:   client,
		Identity: f.identity,
	}, nil
}
