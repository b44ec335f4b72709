package model

import (
	"encoding/json"
	"testing"
)

func TestSwapEventDataJSONStringFields(t *testing.T) {
	payload := SwapEventData{
		Caller:    "0x1111111111111111111111111111111111111111",
		TokenIn:   "0x2222222222222222222222222222222222222222",
		TokenOut:  "0x3333333333333333333333333333333333333333",
		AmountIn:  "2500000000000000000",
		AmountOut: "475905805337091421557",
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if _, ok := decoded["amount_in"].(string); !ok {
		t.Fatalf("amount_in should be string")
	}
	if _, ok := decoded["amount_out"].(string); !ok {
		t.Fatalf("amount_out should be string")
	}
	if _, ok := decoded["token_in"].(string); !ok {
		t.Fatalf("token_in should be string")
	}
}
