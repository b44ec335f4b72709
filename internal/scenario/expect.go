package scenario

import (
	"errors"
	"fmt"
	"strings"

	"weightedPool/internal/model"
)

var errorKinds = map[string]error{
	"permission": model.ErrPermission,
	"state":      model.ErrState,
	"bounds":     model.ErrBounds,
	"not_bound":  model.ErrTokenNotBound,
	"slippage":   model.ErrSlippage,
	"arithmetic": model.ErrArithmetic,
	"transfer":   model.ErrTransfer,
}

// checkOutcome compares the result of a step with its expect_error field.
// expected reports a failure the step asked for.
func checkOutcome(s Step, err error) (expected bool, outcome error) {
	expect := strings.ToLower(strings.TrimSpace(s.ExpectError))
	if expect == "" {
		return false, err
	}
	if err == nil {
		return false, fmt.Errorf("expected %s error, op succeeded", expect)
	}
	if expect == "any" {
		return true, nil
	}
	kind, ok := errorKinds[expect]
	if !ok {
		return false, fmt.Errorf("unknown error kind %q", s.ExpectError)
	}
	if !errors.Is(err, kind) {
		return false, fmt.Errorf("expected %s error, got: %w", expect, err)
	}
	return true, nil
}
