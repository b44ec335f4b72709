package scenario

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Step is one scripted operation. Fields that an op does not use are
// ignored. Amounts are decimal token units scaled by 1e18 on parse; "max"
// stands for the largest word.
type Step struct {
	Op          string   `json:"op"`
	As          string   `json:"as,omitempty"`
	Pool        string   `json:"pool,omitempty"`
	Token       string   `json:"token,omitempty"`
	TokenIn     string   `json:"token_in,omitempty"`
	TokenOut    string   `json:"token_out,omitempty"`
	To          string   `json:"to,omitempty"`
	Spender     string   `json:"spender,omitempty"`
	Name        string   `json:"name,omitempty"`
	Symbol      string   `json:"symbol,omitempty"`
	Amount      string   `json:"amount,omitempty"`
	Limit       string   `json:"limit,omitempty"`
	MaxPrice    string   `json:"max_price,omitempty"`
	Weight      string   `json:"weight,omitempty"`
	Limits      []string `json:"limits,omitempty"`
	Flag        *bool    `json:"flag,omitempty"`
	ExpectError string   `json:"expect_error,omitempty"`
}

// ReadSteps loads a JSONL scenario file. Blank lines and lines starting
// with '#' are skipped.
func ReadSteps(path string) ([]Step, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer file.Close()
	return DecodeSteps(file)
}

// DecodeSteps parses JSONL steps from r.
func DecodeSteps(r io.Reader) ([]Step, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var steps []Step
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		var step Step
		if err := json.Unmarshal(line, &step); err != nil {
			return nil, fmt.Errorf("parse scenario line %d: %w", lineNo, err)
		}
		if step.Op == "" {
			return nil, fmt.Errorf("parse scenario line %d: missing op", lineNo)
		}
		steps = append(steps, step)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan scenario: %w", err)
	}
	return steps, nil
}
