// Package chain wraps the ERC-20 stablecoin and the escrow contract behind
// typed calls so the funding flow never touches raw ABI or provider errors.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

type Client struct {
	eth    *ethclient.Client
	wallet *Wallet

	erc20  abi.ABI
	escrow abi.ABI

	tokenAddr  common.Address
	escrowAddr common.Address
}

func Dial(rpcURL string, wallet *Wallet, tokenAddr, escrowAddr common.Address) (*Client, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain RPC: %w", err)
	}

	parsedERC20, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC-20 ABI: %w", err)
	}
	parsedEscrow, err := abi.JSON(strings.NewReader(escrowABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse escrow ABI: %w", err)
	}

	return &Client{
		eth:        eth,
		wallet:     wallet,
		erc20:      parsedERC20,
		escrow:     parsedEscrow,
		tokenAddr:  tokenAddr,
		escrowAddr: escrowAddr,
	}, nil
}

func (c *Client) Close() { c.eth.Close() }

// Allowance reads the stablecoin allowance the owner has granted the escrow.
func (c *Client) Allowance(ctx context.Context, owner common.Address) (*big.Int, error) {
	return c.callUint256(ctx, c.tokenAddr, c.erc20, "allowance", owner, c.escrowAddr)
}

func (c *Client) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return c.callUint256(ctx, c.tokenAddr, c.erc20, "balanceOf", owner)
}

func (c *Client) callUint256(ctx context.Context, addr common.Address, parsed abi.ABI, method string, args ...interface{}) (*big.Int, error) {
	callData, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	output, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: callData}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}

	var result *big.Int
	if err := parsed.UnpackIntoInterface(&result, method, output); err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	return result, nil
}

// Approve grants the escrow contract an allowance of amount. Returns the tx
// hash once the transaction is accepted by the node (not mined).
func (c *Client) Approve(ctx context.Context, amount *big.Int) (common.Hash, error) {
	data, err := c.erc20.Pack("approve", c.escrowAddr, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack approve: %w", err)
	}
	return c.sendTx(ctx, c.tokenAddr, data)
}

// FundBounty calls the escrow's funding entry point with the parameters the
// backend issued at init time.
func (c *Client) FundBounty(ctx context.Context, onChainDareID *big.Int, target, referrer common.Address, amount *big.Int) (common.Hash, error) {
	data, err := c.escrow.Pack("fundBounty", onChainDareID, target, referrer, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack fundBounty: %w", err)
	}
	return c.sendTx(ctx, c.escrowAddr, data)
}

func (c *Client) sendTx(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	from := c.wallet.Address()

	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, Classify(fmt.Errorf("failed to fetch nonce: %w", err))
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, Classify(fmt.Errorf("failed to fetch gas price: %w", err))
	}
	gasLimit, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data})
	if err != nil {
		return common.Hash{}, Classify(fmt.Errorf("gas estimation failed: %w", err))
	}

	tx := types.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, data)
	signed, err := c.wallet.SignTx(tx)
	if err != nil {
		return common.Hash{}, Classify(err)
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, Classify(err)
	}
	return signed.Hash(), nil
}

// WaitMined polls for the receipt until the tx is mined or ctx expires.
func (c *Client) WaitMined(ctx context.Context, txHash common.Hash) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, txHash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return ErrTxReverted
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for tx %s: %w", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
