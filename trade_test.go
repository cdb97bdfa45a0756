package margin

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSide(t *testing.T) {
	tests := []struct {
		in      string
		want    Side
		wantErr bool
	}{
		{"BUY", Buy, false},
		{" sell ", Sell, false},
		{"Short", Short, false},
		{"cover", Cover, false},
		{"hold", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSide(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseSide(%q) = %q, %v, want %q, error %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestSide(t *testing.T) {
	tests := []struct {
		side     Side
		opens    bool
		lotSide  LotSide
		opposite Side
	}{
		{Buy, true, LongLot, Sell},
		{Sell, false, LongLot, Buy},
		{Short, true, ShortLot, Cover},
		{Cover, false, ShortLot, Short},
	}
	for _, tt := range tests {
		if tt.side.Opens() != tt.opens || tt.side.Closes() == tt.opens {
			t.Errorf("%s opens = %v, want %v", tt.side, tt.side.Opens(), tt.opens)
		}
		if got := tt.side.LotSide(); got != tt.lotSide {
			t.Errorf("%s.LotSide() = %s, want %s", tt.side, got, tt.lotSide)
		}
		if got := tt.side.Opposite(); got != tt.opposite {
			t.Errorf("%s.Opposite() = %s, want %s", tt.side, got, tt.opposite)
		}
	}
}

func TestTrade_CashEffect(t *testing.T) {
	tests := []struct {
		side Side
		want float64
	}{
		{Buy, -1005},
		{Cover, -1005},
		{Sell, 995},
		{Short, 995},
	}
	for _, tt := range tests {
		tr := trade("t", "2024-01-02", "AAPL", tt.side, 10, 100)
		tr.Fees = M(5)
		assertMoney(t, string(tt.side), tr.CashEffect(), tt.want)
	}
}

func TestTrade_Validate(t *testing.T) {
	tests := []struct {
		name   string
		trade  Trade
		fields []string
	}{
		{"valid", trade("t1", "2024-01-02", "AAPL", Buy, 1, 10), nil},
		{"free", trade("t1", "2024-01-02", "AAPL", Buy, 1, 0), nil},
		{"missing date and ticker", Trade{Side: Buy, Quantity: Q(1)}, []string{"date", "ticker"}},
		{"bad side", trade("t1", "2024-01-02", "AAPL", "HOLD", 1, 10), []string{"side"}},
		{"zero quantity", trade("t1", "2024-01-02", "AAPL", Sell, 0, 10), []string{"qty"}},
		{"negative price and fees", Trade{Date: d("2024-01-02"), Ticker: "X", Side: Buy, Quantity: Q(1), Price: M(-1), Fees: M(-1)}, []string{"price", "fees"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.trade.Validate()
			if (err != nil) != (tt.fields != nil) {
				t.Fatalf("Validate() error = %v", err)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error = %v, want ErrValidation", err)
			}
			var got []string
			for _, e := range ValidationErrors(err) {
				got = append(got, e.Field)
			}
			if diff := cmp.Diff(tt.fields, got); diff != "" {
				t.Errorf("Validate() fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTrade_ValidateFixes(t *testing.T) {
	tr, err := Trade{Date: d("2024-01-02"), Ticker: " aapl", Side: "buy", Quantity: Q(1)}.Validate()
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if tr.Ticker != "AAPL" || tr.Side != Buy || tr.ID == "" {
		t.Errorf("Validate() = %+v, want upper case ticker and side and a new id", tr)
	}
}

func TestSortTrades(t *testing.T) {
	trades := []Trade{
		trade("c", "2024-01-03", "AAPL", Buy, 1, 1),
		trade("a", "2024-01-02", "AAPL", Buy, 1, 1),
		trade("d", "2024-01-03", "AAPL", Sell, 1, 1),
		trade("b", "2024-01-02", "AAPL", Sell, 1, 1),
	}
	SortTrades(trades)
	var got string
	for _, tr := range trades {
		got += tr.ID
	}
	if got != "abcd" {
		t.Errorf("SortTrades() order = %s, want abcd", got)
	}
}
