package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Verifier is the backend's read-only view of the escrow contract. The funding
// verify worker uses it to confirm a registered tx hash really funded the dare
// it claims to: receipt mined and successful, sender matches the funder the
// dare recorded, and the receipt carries the escrow's BountyFunded event for
// the right on-chain dare id.
type Verifier struct {
	eth        *ethclient.Client
	escrow     abi.ABI
	escrowAddr common.Address
}

func NewVerifier(rpcURL string, escrowAddr common.Address) (*Verifier, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain RPC: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(escrowABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse escrow ABI: %w", err)
	}
	return &Verifier{eth: eth, escrow: parsed, escrowAddr: escrowAddr}, nil
}

func (v *Verifier) Close() { v.eth.Close() }

// CheckFunding returns nil when the tx is confirmed and matches.
// ErrTxNotFound means still pending — keep polling. Every other error is
// permanent and the registration should be failed.
func (v *Verifier) CheckFunding(ctx context.Context, txHash string, expectedFunder string, onChainDareID int64) error {
	hash := common.HexToHash(txHash)

	receipt, err := v.eth.TransactionReceipt(ctx, hash)
	if err != nil {
		return ErrTxNotFound
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return ErrTxReverted
	}

	tx, _, err := v.eth.TransactionByHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to load tx details: %w", err)
	}
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return fmt.Errorf("failed to recover sender: %w", err)
	}
	if !strings.EqualFold(from.Hex(), expectedFunder) {
		return fmt.Errorf("%w: tx.from=%s, expected=%s", ErrFunderMismatch, from.Hex(), expectedFunder)
	}

	fundedTopic := v.escrow.Events["BountyFunded"].ID
	for _, vLog := range receipt.Logs {
		if vLog.Address != v.escrowAddr || len(vLog.Topics) < 2 || vLog.Topics[0] != fundedTopic {
			continue
		}
		// dareId is the first indexed arg
		eventDareID := new(big.Int).SetBytes(vLog.Topics[1].Bytes())
		if eventDareID.Int64() == onChainDareID {
			return nil
		}
	}

	return fmt.Errorf("%w: no BountyFunded event for dare %d in tx %s", ErrWrongDare, onChainDareID, txHash)
}
