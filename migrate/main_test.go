package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/etnz/margin"
	"github.com/etnz/margin/date"
)

func TestConvertSide(t *testing.T) {
	tests := []struct {
		action, typ string
		want        margin.Side
	}{
		{"buy", "", margin.Buy},
		{"BUY", "long", margin.Buy},
		{"sell", "long", margin.Sell},
		{"sld", "", margin.Sell},
		{"sell", "short", margin.Short},
		{"buy", "short", margin.Cover},
		{"cover", "", margin.Cover},
	}
	for _, tt := range tests {
		t.Run(tt.action+"/"+tt.typ, func(t *testing.T) {
			got, err := legacyTrade{Action: tt.action, Type: tt.typ}.side()
			if err != nil {
				t.Fatalf("side() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("side() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := (legacyTrade{Action: "buy", Type: "option"}).side(); err == nil {
		t.Error("side() with an unknown type succeeded, want an error")
	}
}

func TestMigrate(t *testing.T) {
	legacy := `{"id":"a","date":"2024-01-15","symbol":"aapl","action":"buy","shares":100,"price":150.25,"commission":1}
{"id":"b","date":"2024-01-18","symbol":"AAPL","action":"sell","shares":-75,"price":160}

{"id":"c","date":"2024-01-16","symbol":"TSLA","action":"sell","type":"short","shares":10,"price":200}
`
	var out bytes.Buffer
	n, err := migrate(strings.NewReader(legacy), &out)
	if err != nil {
		t.Fatalf("migrate() error = %v", err)
	}
	if n != 3 {
		t.Errorf("migrate() = %d trades, want 3", n)
	}

	trades, err := margin.DecodeTrades(&out)
	if err != nil {
		t.Fatalf("DecodeTrades() error = %v", err)
	}
	var ids []string
	for _, tr := range trades {
		ids = append(ids, tr.ID)
	}
	if got := strings.Join(ids, ","); got != "a,c,b" {
		t.Errorf("migrated trades = %s, want chronological a,c,b", got)
	}
	if sell := trades[2]; sell.Side != margin.Sell || !sell.Quantity.Equal(margin.Q(75)) {
		t.Errorf("sell = %v %v, want SELL 75", sell.Side, sell.Quantity)
	}
	if buy := trades[0]; buy.Ticker != "AAPL" || !buy.Fees.Equal(margin.M(1)) {
		t.Errorf("buy = %v fees %v, want AAPL with fees 1", buy.Ticker, buy.Fees)
	}

	a, rejected, err := replay(trades, margin.FIFO)
	if err != nil {
		t.Fatal(err)
	}
	if len(rejected) != 0 {
		t.Errorf("replay() rejected %v", rejected)
	}
	if n := len(a.Lots()); n != 2 {
		t.Errorf("replay() left %d open lots, want 2", n)
	}
}

func TestMigrate_Invalid(t *testing.T) {
	legacy := `{"id":"a","date":"2024-01-15","symbol":"AAPL","action":"hold","shares":1,"price":1}
not json
{"id":"c","date":"2024-01-15","symbol":"","action":"buy","shares":1,"price":1}
`
	var out bytes.Buffer
	_, err := migrate(strings.NewReader(legacy), &out)
	if err == nil {
		t.Fatal("migrate() succeeded, want an error")
	}
	for _, want := range []string{"line 1", "line 2", "line 3"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("migrate() error = %v, want it to report %s", err, want)
		}
	}
	if out.Len() != 0 {
		t.Errorf("migrate() wrote %q, want nothing", out.String())
	}
}

func TestReplay_Rejected(t *testing.T) {
	sell := margin.NewTrade(date.MustParse("2024-01-15"), "AAPL", margin.Sell, margin.Q(1), margin.M(1), margin.M(0))
	a, rejected, err := replay([]margin.Trade{sell}, margin.FIFO)
	if err != nil {
		t.Fatal(err)
	}
	if len(rejected) != 1 {
		t.Errorf("replay() rejected %d trades, want 1", len(rejected))
	}
	if n := len(a.Trades()); n != 0 {
		t.Errorf("replay() kept %d trades, want none", n)
	}
}
