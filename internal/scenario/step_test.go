package scenario

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestDecodeSteps(t *testing.T) {
	input := "# setup\n{\"op\":\"new_pool\",\"as\":\"admin\",\"name\":\"P\"}\n\n{\"op\":\"set_public_swap\",\"as\":\"admin\",\"pool\":\"P\",\"flag\":true}\n"
	steps, err := DecodeSteps(strings.NewReader(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(steps) != 2 || steps[0].Op != "new_pool" || steps[1].Flag == nil || !*steps[1].Flag {
		t.Fatalf("unexpected steps: %+v", steps)
	}

	if _, err := DecodeSteps(strings.NewReader(`{"as":"admin"}`)); err == nil {
		t.Fatalf("expected error for missing op")
	}
	if _, err := DecodeSteps(strings.NewReader(`{"op":`)); err == nil {
		t.Fatalf("expected error for malformed line")
	}
}

func TestResolve(t *testing.T) {
	env := newTestEnv(t)

	alice, err := env.Resolve("alice")
	if err != nil {
		t.Fatalf("resolve alice: %v", err)
	}
	if alice != ActorAddress("Alice") {
		t.Fatalf("actor names should be case-insensitive")
	}

	literal := "0x00000000000000000000000000000000000000ff"
	got, err := env.Resolve(literal)
	if err != nil || got != common.HexToAddress(literal) {
		t.Fatalf("resolve literal: %s %v", got.Hex(), err)
	}
	if _, err := env.Resolve("0xzz"); err == nil {
		t.Fatalf("expected error for bad hex literal")
	}

	if err := env.Alias("P", alice); err != nil {
		t.Fatalf("alias: %v", err)
	}
	if err := env.Alias("p", common.HexToAddress(literal)); err == nil {
		t.Fatalf("expected error when rebinding alias")
	}
	if got, _ := env.Resolve("P"); got != alice {
		t.Fatalf("alias not used")
	}
}

func TestApplyRejectsUnknownOp(t *testing.T) {
	if err := newTestEnv(t).Apply(Step{Op: "teleport"}); err == nil {
		t.Fatalf("expected error for unknown op")
	}
}

func TestParseAmount(t *testing.T) {
	v, err := parseAmount("1.5", nil)
	if err != nil || v.Dec() != "1500000000000000000" {
		t.Fatalf("parse 1.5: %v %v", v, err)
	}
	v, err = parseAmount("MAX", nil)
	if err != nil || !v.Eq(maxWord()) {
		t.Fatalf("parse max: %v %v", v, err)
	}
	if _, err := parseAmount("", nil); err == nil {
		t.Fatalf("expected error for missing amount")
	}
	if _, err := parseAmount("-1", nil); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}
