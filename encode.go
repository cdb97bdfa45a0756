package margin

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// The trade log is a JSONL stream: one canonical trade object per line, in
// chronological order. It is human readable and git friendly.

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// EncodeTrade writes a single trade as a JSON line.
func EncodeTrade(w io.Writer, t Trade) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal trade %s: %w", t.ID, err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write trade: %w", err)
	}
	return nil
}

// EncodeTrades writes trades in chronological order. The sort is stable, trades
// on the same day keep their relative order.
func EncodeTrades(w io.Writer, trades []Trade) error {
	sorted := append([]Trade(nil), trades...)
	SortTrades(sorted)
	for _, t := range sorted {
		if err := EncodeTrade(w, t); err != nil {
			return err
		}
	}
	return nil
}

// DecodeTrades reads a JSONL trade log. Every trade is validated, and the first
// invalid line is reported with its line number.
func DecodeTrades(r io.Reader) ([]Trade, error) {
	var trades []Trade
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue // Skip empty lines
		}
		var t Trade
		if err := json.Unmarshal(line, &t); err != nil {
			return nil, fmt.Errorf("line %d: cannot parse trade %q: %w", n, string(line), err)
		}
		t, err := t.Validate()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		trades = append(trades, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	SortTrades(trades)
	return trades, nil
}
