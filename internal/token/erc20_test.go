package token

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"weightedPool/internal/model"
)

var (
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	carol = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func TestMintBurnTransfer(t *testing.T) {
	ledger := NewPoolShare()
	require.Equal(t, "BPT", ledger.Metadata().Symbol)

	require.NoError(t, ledger.Mint(alice, uint256.NewInt(100)))
	require.NoError(t, ledger.Transfer(alice, bob, uint256.NewInt(40)))
	require.Equal(t, uint64(60), ledger.BalanceOf(alice).Uint64())
	require.Equal(t, uint64(40), ledger.BalanceOf(bob).Uint64())

	require.NoError(t, ledger.Burn(bob, uint256.NewInt(15)))
	require.Equal(t, uint64(85), ledger.TotalSupply().Uint64())

	err := ledger.Burn(bob, uint256.NewInt(26))
	require.True(t, errors.Is(err, model.ErrTransfer))
	err = ledger.Transfer(alice, bob, uint256.NewInt(61))
	require.True(t, errors.Is(err, model.ErrTransfer))
	require.Equal(t, uint64(60), ledger.BalanceOf(alice).Uint64())
}

func TestAllowances(t *testing.T) {
	ledger := NewERC20(Metadata{Name: "Maker", Symbol: "MKR", Decimals: 18})
	require.NoError(t, ledger.Mint(alice, uint256.NewInt(100)))

	err := ledger.TransferFrom(bob, alice, carol, uint256.NewInt(10))
	require.True(t, errors.Is(err, model.ErrTransfer))

	ledger.Approve(alice, bob, uint256.NewInt(10))
	require.NoError(t, ledger.IncreaseApproval(alice, bob, uint256.NewInt(5)))
	require.Equal(t, uint64(15), ledger.Allowance(alice, bob).Uint64())

	require.NoError(t, ledger.TransferFrom(bob, alice, carol, uint256.NewInt(12)))
	require.Equal(t, uint64(3), ledger.Allowance(alice, bob).Uint64())
	require.Equal(t, uint64(12), ledger.BalanceOf(carol).Uint64())

	ledger.DecreaseApproval(alice, bob, uint256.NewInt(10))
	require.True(t, ledger.Allowance(alice, bob).IsZero())

	// Holders move their own tokens without allowance.
	require.NoError(t, ledger.TransferFrom(alice, alice, bob, uint256.NewInt(1)))
}

func TestBankCustody(t *testing.T) {
	bank := NewBank(common.HexToAddress("0x00000000000000000000000000000000000000b0"))
	weth, ledger := bank.CreateToken(Metadata{Name: "Wrapped Ether", Symbol: "WETH", Decimals: 18})
	dai, _ := bank.CreateToken(Metadata{Name: "Dai", Symbol: "DAI", Decimals: 18})
	require.NotEqual(t, weth, dai)

	pool := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	custody := bank.Custody(pool)
	require.Equal(t, pool, custody.Holder())

	require.NoError(t, ledger.Mint(alice, uint256.NewInt(50)))
	require.True(t, errors.Is(custody.Pull(weth, alice, uint256.NewInt(20)), model.ErrTransfer))

	ledger.Approve(alice, pool, uint256.NewInt(20))
	require.NoError(t, custody.Pull(weth, alice, uint256.NewInt(20)))
	held, err := custody.CustodialBalance(weth)
	require.NoError(t, err)
	require.Equal(t, uint64(20), held.Uint64())

	require.NoError(t, custody.Push(weth, bob, uint256.NewInt(5)))
	require.Equal(t, uint64(5), ledger.BalanceOf(bob).Uint64())

	_, err = custody.CustodialBalance(common.HexToAddress("0xdead"))
	require.True(t, errors.Is(err, model.ErrTransfer))
}
