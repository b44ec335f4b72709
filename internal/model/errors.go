package model

import (
	"cosmossdk.io/errors"
)

// Codespace is the error codespace of pool failures.
const Codespace = "bpool"

// Pool failure taxonomy. Callers classify with errors.Is.
var (
	ErrPermission    = errors.Register(Codespace, 2, "permission denied")
	ErrState         = errors.Register(Codespace, 3, "invalid pool state")
	ErrBounds        = errors.Register(Codespace, 4, "value out of bounds")
	ErrTokenNotBound = errors.Register(Codespace, 5, "token not bound")
	ErrSlippage      = errors.Register(Codespace, 6, "slippage limit exceeded")
	ErrArithmetic    = errors.Register(Codespace, 7, "arithmetic error")
	ErrTransfer      = errors.Register(Codespace, 8, "token transfer failed")
)
