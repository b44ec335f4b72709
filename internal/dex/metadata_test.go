package dex

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// fakeToken answers ERC20 calls from fixed values.
type fakeToken struct {
	parsed   abi.ABI
	decimals uint8
	symbol   string
	name     string
	balances map[common.Address]*big.Int
	calls    int
}

func (f *fakeToken) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	method, err := f.parsed.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "decimals":
		return method.Outputs.Pack(f.decimals)
	case "symbol":
		return method.Outputs.Pack(f.symbol)
	case "name":
		return method.Outputs.Pack(f.name)
	case "balanceOf":
		args, err := method.Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}
		owner := args[0].(common.Address)
		balance, ok := f.balances[owner]
		if !ok {
			balance = new(big.Int)
		}
		return method.Outputs.Pack(balance)
	default:
		return nil, fmt.Errorf("unexpected method %s", method.Name)
	}
}

func newFakeToken(t *testing.T) *fakeToken {
	t.Helper()
	parsed, err := erc20ABIStringInstance()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	return &fakeToken{
		parsed:   parsed,
		decimals: 18,
		symbol:   "WETH",
		name:     "Wrapped Ether",
		balances: map[common.Address]*big.Int{testPool: big.NewInt(55)},
	}
}

func TestFetchTokenMeta(t *testing.T) {
	caller := newFakeToken(t)
	meta, err := FetchTokenMeta(context.Background(), caller, testWETH, zap.NewNop())
	if err != nil {
		t.Fatalf("fetch meta: %v", err)
	}
	if meta.Decimals != 18 || meta.Symbol != "WETH" || meta.Name != "Wrapped Ether" {
		t.Fatalf("meta mismatch: %+v", meta)
	}

	cache := NewTokenMetaCache()
	CachedTokenMeta(context.Background(), caller, cache, testWETH, nil)
	calls := caller.calls
	CachedTokenMeta(context.Background(), caller, cache, testWETH, nil)
	if caller.calls != calls {
		t.Fatalf("cached lookup should not call the token")
	}
}

func TestFetchBalance(t *testing.T) {
	caller := newFakeToken(t)
	balance, err := FetchBalance(context.Background(), caller, testWETH, testPool, nil)
	if err != nil {
		t.Fatalf("fetch balance: %v", err)
	}
	if balance.Int64() != 55 {
		t.Fatalf("balance mismatch: %s", balance)
	}

	if _, err := FetchBalance(context.Background(), nil, testWETH, testPool, nil); err == nil {
		t.Fatalf("expected nil caller error")
	}
}
