package scenario

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"weightedPool/internal/pool"
	"weightedPool/internal/token"
)

type opFunc func(e *Env, s Step) error

var ops = map[string]opFunc{
	"create_token":         opCreateToken,
	"mint":                 opMint,
	"approve":              opApprove,
	"transfer":             opTransfer,
	"new_pool":             opNewPool,
	"bind":                 opBind,
	"rebind":               opRebind,
	"unbind":               opUnbind,
	"set_swap_fee":         opSetSwapFee,
	"set_reserves_ratio":   opSetReservesRatio,
	"set_public_swap":      opSetPublicSwap,
	"set_controller":       opSetController,
	"finalize":             opFinalize,
	"join_pool":            opJoinPool,
	"exit_pool":            opExitPool,
	"swap_exact_in":        opSwapExactIn,
	"swap_exact_out":       opSwapExactOut,
	"joinswap_extern_in":   opJoinswapExternIn,
	"joinswap_pool_out":    opJoinswapPoolOut,
	"exitswap_pool_in":     opExitswapPoolIn,
	"exitswap_extern_out":  opExitswapExternOut,
	"gulp":                 opGulp,
	"set_admin":            opSetAdmin,
	"set_reserves_address": opSetReservesAddress,
	"collect_reserves":     opCollectReserves,
}

// Apply runs one step against the environment.
func (e *Env) Apply(s Step) error {
	fn, ok := ops[strings.ToLower(s.Op)]
	if !ok {
		return fmt.Errorf("unknown op %q", s.Op)
	}
	return fn(e, s)
}

func (e *Env) caller(s Step) (common.Address, error) {
	if s.As == "" {
		return common.Address{}, fmt.Errorf("%s: as is required", s.Op)
	}
	return e.Resolve(s.As)
}

func (e *Env) pool(s Step) (*pool.Pool, error) {
	if s.Pool == "" {
		return nil, fmt.Errorf("%s: pool is required", s.Op)
	}
	addr, err := e.Resolve(s.Pool)
	if err != nil {
		return nil, err
	}
	return e.factory.Pool(addr)
}

// ledger resolves a token name to its ledger. Pool names resolve to the
// pool's share token.
func (e *Env) ledger(name string) (*token.ERC20, common.Address, error) {
	addr, err := e.Resolve(name)
	if err != nil {
		return nil, common.Address{}, err
	}
	if e.factory.IsPool(addr) {
		shares, err := e.factory.Shares(addr)
		return shares, addr, err
	}
	ledger, err := e.bank.Token(addr)
	return ledger, addr, err
}

// poolCall resolves the caller and pool shared by every pool op.
func (e *Env) poolCall(s Step) (common.Address, *pool.Pool, error) {
	caller, err := e.caller(s)
	if err != nil {
		return common.Address{}, nil, err
	}
	p, err := e.pool(s)
	if err != nil {
		return common.Address{}, nil, err
	}
	return caller, p, nil
}

func opCreateToken(e *Env, s Step) error {
	symbol := s.Symbol
	if symbol == "" {
		return fmt.Errorf("create_token: symbol is required")
	}
	name := s.Name
	if name == "" {
		name = symbol
	}
	addr, _ := e.bank.CreateToken(token.Metadata{Name: name, Symbol: symbol, Decimals: 18})
	e.logger.Debug("token created", zap.String("symbol", symbol), zap.String("token", addr.Hex()))
	return e.Alias(symbol, addr)
}

func opMint(e *Env, s Step) error {
	ledger, _, err := e.ledger(s.Token)
	if err != nil {
		return err
	}
	to, err := e.Resolve(s.To)
	if err != nil {
		return err
	}
	amount, err := parseAmount(s.Amount, nil)
	if err != nil {
		return err
	}
	return ledger.Mint(to, amount)
}

func opApprove(e *Env, s Step) error {
	owner, err := e.caller(s)
	if err != nil {
		return err
	}
	ledger, _, err := e.ledger(s.Token)
	if err != nil {
		return err
	}
	spender := s.Spender
	if spender == "" {
		spender = s.Pool
	}
	spenderAddr, err := e.Resolve(spender)
	if err != nil {
		return err
	}
	amount, err := parseAmount(s.Amount, maxWord())
	if err != nil {
		return err
	}
	ledger.Approve(owner, spenderAddr, amount)
	return nil
}

func opTransfer(e *Env, s Step) error {
	from, err := e.caller(s)
	if err != nil {
		return err
	}
	ledger, _, err := e.ledger(s.Token)
	if err != nil {
		return err
	}
	to, err := e.Resolve(s.To)
	if err != nil {
		return err
	}
	amount, err := parseAmount(s.Amount, nil)
	if err != nil {
		return err
	}
	return ledger.Transfer(from, to, amount)
}

func opNewPool(e *Env, s Step) error {
	creator, err := e.caller(s)
	if err != nil {
		return err
	}
	if s.Name == "" {
		return fmt.Errorf("new_pool: name is required")
	}
	p := e.factory.NewPool(creator)
	return e.Alias(s.Name, p.Address())
}

func bindArgs(e *Env, s Step) (common.Address, *uint256.Int, *uint256.Int, error) {
	tok, err := e.Resolve(s.Token)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	balance, err := parseAmount(s.Amount, nil)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	weight, err := parseAmount(s.Weight, nil)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	return tok, balance, weight, nil
}

func opBind(e *Env, s Step) error {
	caller, p, err := e.poolCall(s)
	if err != nil {
		return err
	}
	tok, balance, weight, err := bindArgs(e, s)
	if err != nil {
		return err
	}
	return p.Bind(caller, tok, balance, weight)
}

func opRebind(e *Env, s Step) error {
	caller, p, err := e.poolCall(s)
	if err != nil {
		return err
	}
	tok, balance, weight, err := bindArgs(e, s)
	if err != nil {
		return err
	}
	return p.Rebind(caller, tok, balance, weight)
}

func opUnbind(e *Env, s Step) error {
	caller, p, err := e.poolCall(s)
	if err != nil {
		return err
	}
	tok, err := e.Resolve(s.Token)
	if err != nil {
		return err
	}
	return p.Unbind(caller, tok)
}

func opSetSwapFee(e *Env, s Step) error {
	caller, p, err := e.poolCall(s)
	if err != nil {
		return err
	}
	fee, err := parseAmount(s.Amount, nil)
	if err != nil {
		return err
	}
	return p.SetSwapFee(caller, fee)
}

func opSetReservesRatio(e *Env, s Step) error {
	caller, p, err := e.poolCall(s)
	if err != nil {
		return err
	}
	ratio, err := parseAmount(s.Amount, nil)
	if err != nil {
		return err
	}
	return p.SetReservesRatio(caller, ratio)
}

func opSetPublicSwap(e *Env, s Step) error {
	caller, p, err := e.poolCall(s)
	if err != nil {
		return err
	}
	if s.Flag == nil {
		return fmt.Errorf("set_public_swap: flag is required")
	}
	return p.SetPublicSwap(caller, *s.Flag)
}

func opSetController(e *Env, s Step) error {
	caller, p, err := e.poolCall(s)
	if err != nil {
		return err
	}
	next, err := e.Resolve(s.To)
	if err != nil {
		return err
	}
	return p.SetController(caller, next)
}

func opFinalize(e *Env, s Step) error {
	caller, p, err := e.poolCall(s)
	if err != nil {
		return err
	}
	return p.Finalize(caller)
}

// limits expands per-token limits in bound-token order. Missing entries
// take def.
func limits(inputs []string, n int, def *uint256.Int) ([]*uint256.Int, error) {
	if len(inputs) > n {
		return nil, fmt.Errorf("%d limits for %d tokens", len(inputs), n)
	}
	out := make([]*uint256.Int, n)
	for i := range out {
		in := ""
		if i < len(inputs) {
			in = inputs[i]
		}
		v, err := parseAmount(in, def)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func opJoinPool(e *Env, s Step) error {
	caller, p, err := e.poolCall(s)
	if err != nil {
		return err
	}
	poolAmountOut, err := parseAmount(s.Amount, nil)
	if err != nil {
		return err
	}
	maxIn, err := limits(s.Limits, p.NumTokens(), maxWord())
	if err != nil {
		return err
	}
	return p.JoinPool(caller, poolAmountOut, maxIn)
}

func opExitPool(e *Env, s Step) error {
	caller, p, err := e.poolCall(s)
	if err != nil {
		return err
	}
	poolAmountIn, err := parseAmount(s.Amount, nil)
	if err != nil {
		return err
	}
	minOut, err := limits(s.Limits, p.NumTokens(), new(uint256.Int))
	if err != nil {
		return err
	}
	return p.ExitPool(caller, poolAmountIn, minOut)
}

func swapPair(e *Env, s Step) (common.Address, common.Address, *uint256.Int, error) {
	tokenIn, err := e.Resolve(s.TokenIn)
	if err != nil {
		return common.Address{}, common.Address{}, nil, err
	}
	tokenOut, err := e.Resolve(s.TokenOut)
	if err != nil {
		return common.Address{}, common.Address{}, nil, err
	}
	maxPrice, err := parseAmount(s.MaxPrice, maxWord())
	if err != nil {
		return common.Address{}, common.Address{}, nil, err
	}
	return tokenIn, tokenOut, maxPrice, nil
}

func opSwapExactIn(e *Env, s Step) error {
	caller, p, err := e.poolCall(s)
	if err != nil {
		return err
	}
	tokenIn, tokenOut, maxPrice, err := swapPair(e, s)
	if err != nil {
		return err
	}
	amountIn, err := parseAmount(s.Amount, nil)
	if err != nil {
		return err
	}
	minOut, err := parseAmount(s.Limit, new(uint256.Int))
	if err != nil {
		return err
	}
	_, _, err = p.SwapExactAmountIn(caller, tokenIn, amountIn, tokenOut, minOut, maxPrice)
	return err
}

func opSwapExactOut(e *Env, s Step) error {
	caller, p, err := e.poolCall(s)
	if err != nil {
		return err
	}
	tokenIn, tokenOut, maxPrice, err := swapPair(e, s)
	if err != nil {
		return err
	}
	amountOut, err := parseAmount(s.Amount, nil)
	if err != nil {
		return err
	}
	maxIn, err := parseAmount(s.Limit, maxWord())
	if err != nil {
		return err
	}
	_, _, err = p.SwapExactAmountOut(caller, tokenIn, maxIn, tokenOut, amountOut, maxPrice)
	return err
}

// singleArgs resolves the token, amount and limit of a single-asset op.
func singleArgs(e *Env, s Step, defLimit *uint256.Int) (common.Address, *uint256.Int, *uint256.Int, error) {
	tok, err := e.Resolve(s.Token)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	amount, err := parseAmount(s.Amount, nil)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	limit, err := parseAmount(s.Limit, defLimit)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	return tok, amount, limit, nil
}

func opJoinswapExternIn(e *Env, s Step) error {
	caller, p, err := e.poolCall(s)
	if err != nil {
		return err
	}
	tok, amountIn, minPoolOut, err := singleArgs(e, s, new(uint256.Int))
	if err != nil {
		return err
	}
	_, err = p.JoinswapExternAmountIn(caller, tok, amountIn, minPoolOut)
	return err
}

func opJoinswapPoolOut(e *Env, s Step) error {
	caller, p, err := e.poolCall(s)
	if err != nil {
		return err
	}
	tok, poolOut, maxIn, err := singleArgs(e, s, maxWord())
	if err != nil {
		return err
	}
	_, err = p.JoinswapPoolAmountOut(caller, tok, poolOut, maxIn)
	return err
}

func opExitswapPoolIn(e *Env, s Step) error {
	caller, p, err := e.poolCall(s)
	if err != nil {
		return err
	}
	tok, poolIn, minOut, err := singleArgs(e, s, new(uint256.Int))
	if err != nil {
		return err
	}
	_, err = p.ExitswapPoolAmountIn(caller, tok, poolIn, minOut)
	return err
}

func opExitswapExternOut(e *Env, s Step) error {
	caller, p, err := e.poolCall(s)
	if err != nil {
		return err
	}
	tok, amountOut, maxPoolIn, err := singleArgs(e, s, maxWord())
	if err != nil {
		return err
	}
	_, err = p.ExitswapExternAmountOut(caller, tok, amountOut, maxPoolIn)
	return err
}

func opGulp(e *Env, s Step) error {
	p, err := e.pool(s)
	if err != nil {
		return err
	}
	tok, err := e.Resolve(s.Token)
	if err != nil {
		return err
	}
	return p.Gulp(tok)
}

func opSetAdmin(e *Env, s Step) error {
	caller, err := e.caller(s)
	if err != nil {
		return err
	}
	next, err := e.Resolve(s.To)
	if err != nil {
		return err
	}
	return e.factory.SetAdmin(caller, next)
}

func opSetReservesAddress(e *Env, s Step) error {
	caller, err := e.caller(s)
	if err != nil {
		return err
	}
	addr, err := e.Resolve(s.To)
	if err != nil {
		return err
	}
	return e.factory.SetReservesAddress(caller, addr)
}

func opCollectReserves(e *Env, s Step) error {
	caller, err := e.caller(s)
	if err != nil {
		return err
	}
	p, err := e.pool(s)
	if err != nil {
		return err
	}
	_, err = e.factory.CollectTokenReserves(caller, p.Address())
	return err
}
