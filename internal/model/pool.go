package model

// PoolSnapshot is a point-in-time copy of a pool's state. Amounts are
// 18-decimal scaled integers rendered in base 10.
type PoolSnapshot struct {
	Address       string        `json:"address"`
	Controller    string        `json:"controller"`
	Factory       string        `json:"factory"`
	Finalized     bool          `json:"finalized"`
	PublicSwap    bool          `json:"public_swap"`
	SwapFee       string        `json:"swap_fee"`
	ReservesRatio string        `json:"reserves_ratio"`
	TotalWeight   string        `json:"total_weight"`
	TotalSupply   string        `json:"total_supply"`
	Tokens        []TokenRecord `json:"tokens"`
}

// TokenRecord is the state of one bound token.
type TokenRecord struct {
	Address      string `json:"address"`
	Index        int    `json:"index"`
	DenormWeight string `json:"denorm_weight"`
	Balance      string `json:"balance"`
	Reserve      string `json:"reserve"`
}
