// Package chain reads token balances of deployed pools over JSON-RPC.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"

	"weightedPool/internal/dex"
)

// Client wraps go-ethereum RPC. Reads are pinned to one block once Pin is
// called so that every balance of an audit comes from the same state.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu      sync.RWMutex
	block   *big.Int
	tsCache map[uint64]uint64
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		tsCache:   make(map[uint64]uint64),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the chain ID.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// Pin fixes the block later reads use. Zero pins the latest block.
func (c *Client) Pin(ctx context.Context, number uint64) (uint64, error) {
	if number == 0 {
		latest, err := c.ethClient.BlockNumber(ctx)
		if err != nil {
			return 0, fmt.Errorf("latest block: %w", err)
		}
		number = latest
	}
	c.mu.Lock()
	c.block = new(big.Int).SetUint64(number)
	c.mu.Unlock()
	return number, nil
}

func (c *Client) pinned() *big.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.block == nil {
		return nil
	}
	return new(big.Int).Set(c.block)
}

// BlockTimestamp returns the block timestamp, using an in-memory cache.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[number]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	header, err := c.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, fmt.Errorf("header %d: %w", number, err)
	}

	ts = header.Time
	c.mu.Lock()
	c.tsCache[number] = ts
	c.mu.Unlock()

	return ts, nil
}

// CallContract performs an eth_call. A nil block reads at the pinned block.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if blockNumber == nil {
		blockNumber = c.pinned()
	}
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}

// BalanceOf returns the ERC20 balance of owner at the pinned block.
func (c *Client) BalanceOf(ctx context.Context, token, owner common.Address) (*uint256.Int, error) {
	balance, err := dex.FetchBalance(ctx, c, token, owner, c.pinned())
	if err != nil {
		return nil, err
	}
	word, overflow := uint256.FromBig(balance)
	if overflow {
		return nil, fmt.Errorf("balance of %s overflows 256 bits", token.Hex())
	}
	return word, nil
}
