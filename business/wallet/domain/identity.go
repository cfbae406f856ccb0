// Package domain holds the signing identity.
package domain

import (
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fd1az/token-deployer/internal/apperror"
)

// Identity is the wallet that signs every transaction. The key never
// leaves this type: formatting and logging show the address only.
type Identity struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewIdentity parses a hex private key with or without the 0x prefix.
func NewIdentity(hexKey string) (*Identity, error) {
	hexKey = strings.TrimSpace(hexKey)
	hexKey = strings.TrimPrefix(strings.TrimPrefix(hexKey, "0x"), "0X")
	if hexKey == "" {
		return nil, apperror.New(apperror.CodeInvalidPrivateKey, apperror.WithContext("empty key"))
	}

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		// The parse error can echo key material.
		return nil, apperror.New(apperror.CodeInvalidPrivateKey, apperror.WithContext("malformed key"))
	}

	return &Identity{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the wallet address.
func (i *Identity) Address() common.Address {
	return i.address
}

// SignTx signs tx for chainID with the latest signer the chain supports.
func (i *Identity) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), i.key)
	if err != nil {
		return nil, apperror.Internal(apperror.CodeSigningFailed, "sign transaction", err)
	}
	return signed, nil
}

func (i *Identity) String() string {
	return i.address.Hex()
}

func (i *Identity) GoString() string {
	return fmt.Sprintf("domain.Identity{address:%s}", i.address.Hex())
}

func (i *Identity) LogValue() slog.Value {
	return slog.StringValue(i.address.Hex())
}
