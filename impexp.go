package margin

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/etnz/margin/date"
)

// this file contains functions to handle the tabular import/export format.
// It should remain readable by a spreadsheet, with a header line and one record per line.

var (
	tradeHeader  = []string{"date", "ticker", "side", "qty", "price", "fees", "notes"}
	ledgerHeader = []string{"date", "openingDebit", "cashActivity", "dailyInterest", "closingDebit", "aprUsed"}
)

// ExportTradesCSV writes trades in chronological order.
func ExportTradesCSV(w io.Writer, trades []Trade) error {
	sorted := slices.Clone(trades)
	SortTrades(sorted)

	cw := csv.NewWriter(w)
	if err := cw.Write(tradeHeader); err != nil {
		return err
	}
	for _, t := range sorted {
		err := cw.Write([]string{
			t.Date.String(),
			t.Ticker,
			string(t.Side),
			t.Quantity.String(),
			t.Price.Decimal().String(),
			t.Fees.Decimal().String(),
			t.Notes,
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportTradesCSV reads trades. Columns are located by their header name, so
// they can come in any order; fees and notes are optional. Every record is
// validated and all failures are reported together, with their line number.
func ImportTradesCSV(r io.Reader) ([]Trade, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read header: %w", err)
	}
	col := make(map[string]int)
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range tradeHeader[:5] {
		if _, ok := col[strings.ToLower(required)]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var trades []Trade
	var errs []error
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		t, err := parseTradeRecord(func(name string) string { return field(rec, name) })
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		trades = append(trades, t)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	SortTrades(trades)
	return trades, nil
}

// parseTradeRecord builds and validates a trade from named fields.
func parseTradeRecord(field func(string) string) (Trade, error) {
	var t Trade
	var errs []error
	var err error

	if t.Date, err = date.Parse(field("date")); err != nil {
		errs = append(errs, invalid("date", "%v", err))
	}
	t.Ticker = field("ticker")
	t.Side = Side(field("side"))
	if t.Quantity, err = ParseQuantity(field("qty")); err != nil {
		errs = append(errs, invalid("qty", "%v", err))
	}
	if t.Price, err = ParseMoney(field("price")); err != nil {
		errs = append(errs, invalid("price", "%v", err))
	}
	if fees := field("fees"); fees != "" {
		if t.Fees, err = ParseMoney(fees); err != nil {
			errs = append(errs, invalid("fees", "%v", err))
		}
	}
	t.Notes = field("notes")
	if len(errs) > 0 {
		return t, errors.Join(errs...)
	}
	return t.Validate()
}

// ExportLedgerCSV writes the ledger entries with all their digits.
func ExportLedgerCSV(w io.Writer, ledger InterestLedger) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ledgerHeader); err != nil {
		return err
	}
	for _, e := range ledger {
		err := cw.Write([]string{
			e.Date.String(),
			e.OpeningDebit.Decimal().String(),
			e.CashActivity.Decimal().String(),
			e.DailyInterest.Decimal().String(),
			e.ClosingDebit.Decimal().String(),
			e.APR.String(),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportLedgerCSV reads entries written by ExportLedgerCSV.
func ImportLedgerCSV(r io.Reader) (InterestLedger, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(ledgerHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || !slices.Equal(records[0], ledgerHeader) {
		return nil, fmt.Errorf("invalid ledger header, want %v", ledgerHeader)
	}

	var ledger InterestLedger
	for i, rec := range records[1:] {
		var e LedgerEntry
		var errs []error
		var err error
		if e.Date, err = date.Parse(rec[0]); err != nil {
			errs = append(errs, err)
		}
		for j, dst := range []*Money{&e.OpeningDebit, &e.CashActivity, &e.DailyInterest, &e.ClosingDebit} {
			if *dst, err = ParseMoney(rec[j+1]); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", ledgerHeader[j+1], err))
			}
		}
		if e.APR, err = ParseRate(rec[5]); err != nil {
			errs = append(errs, err)
		}
		if err := errors.Join(errs...); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		ledger = append(ledger, e)
	}
	return ledger, nil
}
