package domain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	networkdomain "github.com/fd1az/token-deployer/business/network/domain"
	txdomain "github.com/fd1az/token-deployer/business/transaction/domain"
	"github.com/fd1az/token-deployer/internal/apperror"
	"github.com/fd1az/token-deployer/internal/asset"
)

// ConfigKeyContractAddress is the env key the deployed address is written to.
const ConfigKeyContractAddress = "CONTRACT_ADDRESS"

// Artifact is compiled contract output.
type Artifact struct {
	ContractName    string
	ABI             string // JSON
	Bytecode        []byte
	CompilerVersion string // explorer form, e.g. v0.8.24+commit.e11b9ed9
	Source          string
}

// DeployParams describes the token to deploy.
type DeployParams struct {
	Name     string
	Symbol   string
	Supply   string // whole tokens, decimal
	Decimals uint8
}

// RawSupply validates the params and returns Supply scaled by 10^Decimals.
func (p DeployParams) RawSupply() (*big.Int, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, apperror.Validation(apperror.CodeRequiredField, "token name")
	}
	if strings.TrimSpace(p.Symbol) == "" {
		return nil, apperror.Validation(apperror.CodeRequiredField, "token symbol")
	}
	if p.Decimals > asset.MaxDecimals {
		return nil, apperror.Validation(apperror.CodeInvalidInput,
			fmt.Sprintf("decimals %d above %d", p.Decimals, asset.MaxDecimals))
	}

	supply, err := decimal.NewFromString(strings.TrimSpace(p.Supply))
	if err != nil || !supply.IsPositive() {
		return nil, apperror.Validation(apperror.CodeInvalidAmount, fmt.Sprintf("supply %q", p.Supply))
	}

	scaled := supply.Shift(int32(p.Decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, apperror.Validation(apperror.CodeInvalidAmount,
			fmt.Sprintf("supply %s has more than %d decimals", p.Supply, p.Decimals))
	}
	return scaled.BigInt(), nil
}

// DeployResult reports a deployment. Verification and config store
// failures do not fail the deploy and are reported here.
type DeployResult struct {
	Outcome   *txdomain.Outcome
	Address   common.Address
	Verified  bool
	VerifyErr error
	StoreErr  error
}

// TransferResult reports a confirmed transfer.
type TransferResult struct {
	Outcome *txdomain.Outcome
	To      common.Address
	Amount  asset.Amount
}

// VerifyRequest is what an explorer needs to verify a single-file contract.
type VerifyRequest struct {
	Address         common.Address
	ContractName    string
	SourceCode      string
	CompilerVersion string
	Optimize        bool
	OptimizeRuns    int
	ConstructorArgs []byte
}

// Status is a snapshot for the status action.
type Status struct {
	Endpoint      networkdomain.Endpoint
	Address       common.Address
	BlockNumber   uint64
	NativeBalance asset.Amount
	Ready         bool
	Reason        string
	Contract      *common.Address
	TokenBalance  *asset.Amount
}

// ParseAddress validates a hex address.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, apperror.Validation(apperror.CodeInvalidAddress, fmt.Sprintf("%q", s))
	}
	return common.HexToAddress(s), nil
}
