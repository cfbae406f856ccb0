// Package asset models on-chain assets and exact amounts.
// Amounts are held as big.Int in the smallest unit; decimal.Decimal is used
// only when parsing user input and rendering values.
package asset

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AssetID identifies an asset by chain and contract address.
// The zero address denotes the chain's native coin.
type AssetID struct {
	chainID uint64
	address common.Address
}

// NewNativeAssetID creates an AssetID for a chain's native coin.
func NewNativeAssetID(chainID uint64) AssetID {
	return AssetID{chainID: chainID}
}

// NewTokenAssetID creates an AssetID for an ERC20 token.
func NewTokenAssetID(chainID uint64, addr common.Address) AssetID {
	if addr == (common.Address{}) {
		panic("token address cannot be zero - use NewNativeAssetID for native coins")
	}
	return AssetID{
		chainID: chainID,
		address: addr,
	}
}

func (id AssetID) ChainID() uint64 {
	return id.chainID
}

// Address returns the token contract address (zero for native coins).
func (id AssetID) Address() common.Address {
	return id.address
}

func (id AssetID) IsNative() bool {
	return id.address == (common.Address{})
}

func (id AssetID) IsToken() bool {
	return id.address != (common.Address{})
}

func (id AssetID) String() string {
	if id.IsNative() {
		return fmt.Sprintf("chain:%d/native", id.chainID)
	}
	return fmt.Sprintf("chain:%d/%s", id.chainID, id.address.Hex())
}

func (id AssetID) Equals(other AssetID) bool {
	return id.chainID == other.chainID && id.address == other.address
}
