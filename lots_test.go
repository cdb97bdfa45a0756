package margin

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// twoLots returns AAPL lots opened on 2024-01-15 and 2024-01-16.
func twoLots() []Lot {
	return []Lot{
		{ID: "lot1", Ticker: "AAPL", OpenDate: d("2024-01-15"), Side: LongLot, QtyOpen: Q(100), QtyInit: Q(100), CostBasis: M(150.25)},
		{ID: "lot2", Ticker: "AAPL", OpenDate: d("2024-01-16"), Side: LongLot, QtyOpen: Q(50), QtyInit: Q(50), CostBasis: M(152.50)},
	}
}

func openQty(lots []Lot) map[string]Quantity {
	res := make(map[string]Quantity)
	for _, l := range lots {
		res[l.ID] = l.QtyOpen
	}
	return res
}

func TestApplyTrade_Closing(t *testing.T) {
	tests := []struct {
		name     string
		qty      float64
		method   CostBasisMethod
		want     map[string]Quantity
		realized float64
	}{
		{"FIFO partial", 75, FIFO, map[string]Quantity{"lot1": Q(25), "lot2": Q(50)}, 731.25},
		{"LIFO partial", 30, LIFO, map[string]Quantity{"lot1": Q(100), "lot2": Q(20)}, 225},
		{"FIFO across lots", 120, FIFO, map[string]Quantity{"lot2": Q(30)}, 100*9.75 + 20*7.5},
		{"LIFO across lots", 120, LIFO, map[string]Quantity{"lot1": Q(30)}, 50*7.5 + 70*9.75},
		{"everything", 150, FIFO, map[string]Quantity{}, 100*9.75 + 50*7.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := twoLots()
			sell := trade("s1", "2024-01-20", "AAPL", Sell, tt.qty, 160)

			res, err := ApplyTrade(sell, existing, tt.method)
			if err != nil {
				t.Fatalf("ApplyTrade() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, openQty(res.Lots), cmpOpts); diff != "" {
				t.Errorf("ApplyTrade() open quantities mismatch (-want +got):\n%s", diff)
			}
			assertMoney(t, "realized", res.Realized, tt.realized)
			if len(res.NewLots) != 0 {
				t.Errorf("closing trade created %d lots", len(res.NewLots))
			}
			// existing lots are not modified.
			if diff := cmp.Diff(twoLots(), existing, cmpOpts); diff != "" {
				t.Errorf("ApplyTrade() modified its input (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyTrade_Conservation(t *testing.T) {
	lots := twoLots()
	trades := []Trade{
		trade("b1", "2024-01-17", "AAPL", Buy, 10, 155),
		trade("s1", "2024-01-18", "AAPL", Sell, 42.5, 158),
		trade("s2", "2024-01-19", "AAPL", Sell, 0.5, 159),
		trade("b2", "2024-01-19", "MSFT", Buy, 7, 400),
	}
	for _, tr := range trades {
		before := OpenQuantity(lots, tr.Ticker, LongLot)
		res, err := ApplyTrade(tr, lots, FIFO)
		if err != nil {
			t.Fatalf("ApplyTrade(%v) error = %v", tr, err)
		}
		after := OpenQuantity(res.Lots, tr.Ticker, LongLot)
		want := before.Add(tr.Quantity)
		if tr.Side.Closes() {
			want = before.Sub(tr.Quantity)
		} else if len(res.NewLots) != 1 || !res.NewLots[0].QtyOpen.Equal(tr.Quantity) {
			t.Errorf("ApplyTrade(%v) new lots = %v, want one lot of %v", tr, res.NewLots, tr.Quantity)
		}
		if !after.Equal(want) {
			t.Errorf("ApplyTrade(%v) open quantity = %v, want %v", tr, after, want)
		}
		lots = res.Lots
	}
}

func TestApplyTrade_Rejection(t *testing.T) {
	sell := trade("s1", "2024-01-20", "AAPL", Sell, 200, 160)
	_, err := ApplyTrade(sell, twoLots(), FIFO)

	if !errors.Is(err, ErrInsufficientLotQuantity) {
		t.Fatalf("ApplyTrade() error = %v, want ErrInsufficientLotQuantity", err)
	}
	var qerr *InsufficientLotQuantityError
	if !errors.As(err, &qerr) {
		t.Fatalf("ApplyTrade() error is a %T", err)
	}
	if !qerr.Available.Equal(Q(150)) || !qerr.Requested.Equal(Q(200)) {
		t.Errorf("available = %v requested = %v, want 150 and 200", qerr.Available, qerr.Requested)
	}

	// short lots are not available to a SELL, nor long lots to a COVER.
	if err := ValidateSellTrade(trade("c1", "2024-01-20", "AAPL", Cover, 1, 160), twoLots()); !errors.Is(err, ErrInsufficientLotQuantity) {
		t.Errorf("ValidateSellTrade(COVER) error = %v, want ErrInsufficientLotQuantity", err)
	}
	if err := ValidateSellTrade(trade("b1", "2024-01-20", "AAPL", Buy, 1000, 160), nil); err != nil {
		t.Errorf("ValidateSellTrade(BUY) error = %v, want nil", err)
	}
}

func TestApplyTrade_Short(t *testing.T) {
	short := trade("sh1", "2024-02-01", "TSLA", Short, 10, 200)
	res, err := ApplyTrade(short, nil, FIFO)
	if err != nil {
		t.Fatalf("ApplyTrade(SHORT) error = %v", err)
	}
	want := []Lot{{ID: "sh1", TradeID: "sh1", Ticker: "TSLA", OpenDate: d("2024-02-01"), Side: ShortLot, QtyOpen: Q(10), QtyInit: Q(10), CostBasis: M(200)}}
	if diff := cmp.Diff(want, res.NewLots, cmpOpts); diff != "" {
		t.Errorf("ApplyTrade(SHORT) new lots mismatch (-want +got):\n%s", diff)
	}
	if got := res.Lots[0].SignedQty(); !got.Equal(Q(-10)) {
		t.Errorf("SignedQty() = %v, want -10", got)
	}

	// a cover realizes q*(price-cost) like a sell.
	res, err = ApplyTrade(trade("c1", "2024-02-02", "TSLA", Cover, 4, 180), res.Lots, FIFO)
	if err != nil {
		t.Fatalf("ApplyTrade(COVER) error = %v", err)
	}
	assertMoney(t, "realized", res.Realized, -80)
	if diff := cmp.Diff([]LotSlice{{LotID: "sh1", OpenDate: d("2024-02-01"), Quantity: Q(4), CostBasis: M(200), Realized: M(-80)}}, res.Consumed, cmpOpts); diff != "" {
		t.Errorf("ApplyTrade(COVER) consumed mismatch (-want +got):\n%s", diff)
	}
	if got := res.Lots[0].QtyOpen; !got.Equal(Q(6)) {
		t.Errorf("QtyOpen = %v, want 6", got)
	}
}

func TestSplitLot(t *testing.T) {
	lot := twoLots()[0]
	lot.Fees = M(10)

	remaining, sold, err := SplitLot(lot, Q(40))
	if err != nil {
		t.Fatalf("SplitLot() error = %v", err)
	}
	if !remaining.QtyOpen.Equal(Q(60)) || remaining.ID != "lot1" {
		t.Errorf("remaining = %v %v, want lot1 60", remaining.ID, remaining.QtyOpen)
	}
	if !sold.QtyOpen.Equal(Q(40)) || !sold.CostBasis.Equal(lot.CostBasis) {
		t.Errorf("sold = %v @ %v, want 40 @ %v", sold.QtyOpen, sold.CostBasis, lot.CostBasis)
	}
	assertMoney(t, "sold fees", sold.Fees, 4)
	assertMoney(t, "remaining fees", remaining.Fees, 6)
	for _, l := range []Lot{remaining, sold} {
		if err := l.Validate(); err != nil {
			t.Errorf("split lot %s is invalid: %v", l.ID, err)
		}
	}

	for _, q := range []float64{0, -1, 101} {
		if _, _, err := SplitLot(lot, Q(q)); !errors.Is(err, ErrValidation) {
			t.Errorf("SplitLot(%v) error = %v, want a validation error", q, err)
		}
	}
}

func TestLot_Validate(t *testing.T) {
	over := R(1.5)
	tests := []struct {
		name   string
		edit   func(*Lot)
		fields []string
	}{
		{"valid", func(*Lot) {}, nil},
		{"open above init", func(l *Lot) { l.QtyOpen = Q(101) }, []string{"qtyOpen"}},
		{"negative open", func(l *Lot) { l.QtyOpen = Q(-1) }, []string{"qtyOpen"}},
		{"no ticker and side", func(l *Lot) { l.Ticker, l.Side = "", "FLAT" }, []string{"ticker", "side"}},
		{"margin above 1", func(l *Lot) { l.MaintenanceMargin = &over }, []string{"maintenanceMarginPct"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := twoLots()[0]
			tt.edit(&l)
			var got []string
			for _, e := range ValidationErrors(l.Validate()) {
				got = append(got, e.Field)
			}
			if diff := cmp.Diff(tt.fields, got); diff != "" {
				t.Errorf("Validate() fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
