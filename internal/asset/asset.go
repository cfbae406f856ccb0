package asset

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// MaxDecimals is the largest precision an Asset may declare.
const MaxDecimals = 36

var (
	ErrEmptySymbol     = errors.New("asset: empty symbol")
	ErrInvalidDecimals = errors.New("asset: decimals above 36")
)

// Asset is the metadata of a native coin or token. Identity is the AssetID;
// the symbol is display only.
type Asset struct {
	id       AssetID
	symbol   string
	name     string
	decimals uint8
}

// NewAsset creates a new Asset. Token metadata comes from the chain, so bad
// values are returned as errors.
func NewAsset(id AssetID, symbol, name string, decimals uint8) (*Asset, error) {
	if symbol == "" {
		return nil, ErrEmptySymbol
	}
	if decimals > MaxDecimals {
		return nil, ErrInvalidDecimals
	}

	return &Asset{
		id:       id,
		symbol:   symbol,
		name:     name,
		decimals: decimals,
	}, nil
}

// NewNative creates the native coin asset for a chain. It panics on bad
// metadata; native coins are package constants.
func NewNative(chainID uint64, symbol, name string, decimals uint8) *Asset {
	a, err := NewAsset(NewNativeAssetID(chainID), symbol, name, decimals)
	if err != nil {
		panic(err)
	}
	return a
}

// NewToken creates an ERC20 token asset.
func NewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8) (*Asset, error) {
	return NewAsset(NewTokenAssetID(chainID, address), symbol, name, decimals)
}

func (a *Asset) ID() AssetID {
	return a.id
}

func (a *Asset) Symbol() string {
	return a.symbol
}

// Name falls back to the symbol when no name was given.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

func (a *Asset) Decimals() uint8 {
	return a.decimals
}

func (a *Asset) ChainID() uint64 {
	return a.id.ChainID()
}

func (a *Asset) IsNative() bool {
	return a.id.IsNative()
}

func (a *Asset) Address() common.Address {
	return a.id.Address()
}

func (a *Asset) String() string {
	return a.symbol
}

// Equals compares two Assets by their ID.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.id.Equals(other.id)
}
