package margin

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestImportExportTrades checks that an exported trade log imports back identically.
func TestImportExportTrades(t *testing.T) {
	sample := `
date,ticker,side,qty,price,fees,notes
2024-01-15,AAPL,BUY,100,150.25,1,opening
2024-01-16,AAPL,BUY,50,152.5,0,
2024-01-18,AAPL,SELL,75,160,0.5,"partial, FIFO"
`
	sample = strings.TrimLeft(sample, "\n")

	trades, err := ImportTradesCSV(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("ImportTradesCSV() error = %v", err)
	}
	if len(trades) != 3 || trades[2].Notes != "partial, FIFO" || !trades[0].Fees.Equal(M(1)) {
		t.Fatalf("ImportTradesCSV() = %+v", trades)
	}

	var sb strings.Builder
	if err := ExportTradesCSV(&sb, trades); err != nil {
		t.Fatalf("ExportTradesCSV() error = %v", err)
	}
	if got := sb.String(); got != sample {
		t.Errorf("export/import sequence is not stable got\n%s\nwant\n%s", got, sample)
	}
}

func TestImportTradesCSV_Lenient(t *testing.T) {
	// any column order, lower case side, no fees nor notes.
	sample := "Ticker, Qty, Side, Price, Date\nmsft,10,short,400,2024-2-1\n"
	trades, err := ImportTradesCSV(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("ImportTradesCSV() error = %v", err)
	}
	want := Trade{ID: trades[0].ID, Date: d("2024-02-01"), Ticker: "MSFT", Side: Short, Quantity: Q(10), Price: M(400)}
	if diff := cmp.Diff([]Trade{want}, trades, cmpOpts); diff != "" {
		t.Errorf("ImportTradesCSV() mismatch (-want +got):\n%s", diff)
	}
}

func TestImportTradesCSV_Errors(t *testing.T) {
	sample := `date,ticker,side,qty,price
2024-01-15,AAPL,BUY,100,150.25
yesterday,AAPL,BUY,1,1
2024-01-16,AAPL,HOLD,-1,1
`
	_, err := ImportTradesCSV(strings.NewReader(sample))
	if err == nil {
		t.Fatalf("ImportTradesCSV() error = nil")
	}
	for _, want := range []string{"line 3", "invalid date", "line 4", "invalid side", "invalid qty"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("ImportTradesCSV() error = %v, want it to mention %q", err, want)
		}
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("ImportTradesCSV() error is not a validation error")
	}

	if _, err := ImportTradesCSV(strings.NewReader("date,ticker,qty\n")); err == nil || !strings.Contains(err.Error(), `"side"`) {
		t.Errorf("ImportTradesCSV(missing column) error = %v", err)
	}
}

func TestImportExportLedger(t *testing.T) {
	ledger := RecomputeLedger(d("2024-01-02"), ledgerTrades(), DefaultSettings(), nil, LedgerOptions{Through: d("2024-01-10")})

	var sb strings.Builder
	if err := ExportLedgerCSV(&sb, ledger); err != nil {
		t.Fatalf("ExportLedgerCSV() error = %v", err)
	}
	if !strings.HasPrefix(sb.String(), "date,openingDebit,cashActivity,dailyInterest,closingDebit,aprUsed\n2024-01-02,0,10000,") {
		t.Errorf("ExportLedgerCSV() = %s", sb.String())
	}
	got, err := ImportLedgerCSV(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("ImportLedgerCSV() error = %v", err)
	}
	if diff := cmp.Diff(ledger, got, cmpOpts); diff != "" {
		t.Errorf("ImportLedgerCSV() mismatch (-exported +imported):\n%s", diff)
	}

	if _, err := ImportLedgerCSV(strings.NewReader("day,debit\n")); err == nil {
		t.Errorf("ImportLedgerCSV(bad header) error = nil")
	}
}
