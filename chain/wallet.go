package chain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet signs transactions with a local key. It stands in for whatever signer
// actually fronts the user (browser wallet, remote signer); errors from either
// go through Classify so rejection detection stays in one place.
type Wallet struct {
	key     *ecdsa.PrivateKey
	chainID *big.Int
	address common.Address
}

func NewWallet(hexKey string, chainID int64) (*Wallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid wallet key: %w", err)
	}
	return &Wallet{
		key:     key,
		chainID: big.NewInt(chainID),
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (w *Wallet) Address() common.Address { return w.address }

func (w *Wallet) ChainID() *big.Int { return w.chainID }

func (w *Wallet) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.key)
	if err != nil {
		return nil, Classify(err)
	}
	return signed, nil
}
