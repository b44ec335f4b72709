package model

// Event names as they appear in pool logs.
const (
	EventSwap          = "LOG_SWAP"
	EventJoin          = "LOG_JOIN"
	EventExit          = "LOG_EXIT"
	EventAddReserves   = "LOG_ADD_RESERVES"
	EventDrainReserves = "LOG_DRAIN_RESERVES"
)

// SwapEventData is the decoded LOG_SWAP payload.
type SwapEventData struct {
	Caller    string `json:"caller"`
	TokenIn   string `json:"token_in"`
	TokenOut  string `json:"token_out"`
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
}

// JoinEventData is the decoded LOG_JOIN payload.
type JoinEventData struct {
	Caller   string `json:"caller"`
	TokenIn  string `json:"token_in"`
	AmountIn string `json:"amount_in"`
}

// ExitEventData is the decoded LOG_EXIT payload.
type ExitEventData struct {
	Caller    string `json:"caller"`
	TokenOut  string `json:"token_out"`
	AmountOut string `json:"amount_out"`
}

// AddReservesEventData is the decoded LOG_ADD_RESERVES payload.
type AddReservesEventData struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

// DrainReservesEventData is the decoded LOG_DRAIN_RESERVES payload.
type DrainReservesEventData struct {
	Token     string `json:"token"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}
