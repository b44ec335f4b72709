package scenario

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"weightedPool/internal/bmath"
)

// ParseAddresses converts string addresses into common.Address.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid address: %s", input)
		}
		addresses = append(addresses, common.HexToAddress(input))
	}
	return addresses, nil
}

// ActorAddress derives a stable account address from a name.
func ActorAddress(name string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(strings.ToLower(name)))[12:])
}

// parseAmount reads a decimal token amount. Empty input yields def.
func parseAmount(input string, def *uint256.Int) (*uint256.Int, error) {
	input = strings.TrimSpace(input)
	switch strings.ToLower(input) {
	case "":
		if def == nil {
			return nil, fmt.Errorf("amount is required")
		}
		return def.Clone(), nil
	case "max":
		return new(uint256.Int).SetAllOne(), nil
	}
	return bmath.ParseDecimal(input)
}

func maxWord() *uint256.Int {
	return new(uint256.Int).SetAllOne()
}
