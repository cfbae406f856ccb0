// Package domain contains transaction requests, outcomes and failure classification.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	networkdomain "github.com/fd1az/token-deployer/business/network/domain"
	"github.com/fd1az/token-deployer/internal/apperror"
)

// ErrTransactionFailed matches, via errors.Is, the error returned when
// every attempt failed with a retryable kind.
var ErrTransactionFailed = apperror.New(apperror.CodeTransactionFailed)

// Request describes a transaction to submit.
type Request struct {
	To       *common.Address // nil creates a contract
	Value    *big.Int
	Data     []byte
	GasPrice *big.Int // nil fetches the network suggestion
	GasLimit uint64   // 0 estimates
	Nonce    *uint64  // pins the first attempt only
	Label    string   // for logs, e.g. "deploy" or "transfer"
}

// IsContractCreation reports whether the request deploys a contract.
func (r Request) IsContractCreation() bool {
	return r.To == nil
}

// Outcome is a transaction confirmed with a successful receipt.
type Outcome struct {
	Hash            common.Hash
	Receipt         *types.Receipt
	Endpoint        networkdomain.Endpoint
	Attempts        int
	GasPrice        *big.Int
	Nonce           uint64
	ContractAddress *common.Address // set for contract creation
}

// BumpGasPrice returns price raised by pct percent, truncating.
func BumpGasPrice(price *big.Int, pct int64) *big.Int {
	bumped := new(big.Int).Mul(price, big.NewInt(100+pct))
	return bumped.Quo(bumped, big.NewInt(100))
}
