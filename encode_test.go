package margin

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeDecodeTrades(t *testing.T) {
	sample := `
{"id":"01HM0000000000000000000001","date":"2024-01-15","ticker":"AAPL","side":"BUY","qty":100,"price":150.25,"fees":1}
{"id":"01HM0000000000000000000003","date":"2024-01-16","ticker":"AAPL","side":"SHORT","qty":0.5,"price":152.5,"fees":0,"notes":"hedge"}
`
	sample = strings.TrimLeft(sample, "\n")

	trades, err := DecodeTrades(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("DecodeTrades() error = %v", err)
	}
	var sb strings.Builder
	if err := EncodeTrades(&sb, trades); err != nil {
		t.Fatalf("EncodeTrades() error = %v", err)
	}
	if got := sb.String(); got != sample {
		t.Errorf("encode/decode sequence is not stable got\n%s\nwant\n%s", got, sample)
	}
}

func TestEncodeTrades_Sorted(t *testing.T) {
	trades := []Trade{
		trade("b", "2024-01-16", "AAPL", Sell, 1, 2),
		trade("a", "2024-01-15", "AAPL", Buy, 1, 1),
	}
	var sb strings.Builder
	if err := EncodeTrades(&sb, trades); err != nil {
		t.Fatalf("EncodeTrades() error = %v", err)
	}
	got, err := DecodeTrades(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("DecodeTrades() error = %v", err)
	}
	if diff := cmp.Diff([]Trade{trades[1], trades[0]}, got, cmpOpts); diff != "" {
		t.Errorf("DecodeTrades() mismatch (-want +got):\n%s", diff)
	}
	if trades[0].ID != "b" {
		t.Errorf("EncodeTrades() sorted its input")
	}
}

func TestDecodeTrades_Errors(t *testing.T) {
	tests := []struct {
		name, input, want string
	}{
		{"not json", "{\"id\":\"a\"\n", "line 1"},
		{"invalid trade", `{"id":"a","date":"2024-01-15","ticker":"AAPL","side":"BUY","qty":1,"price":1,"fees":0}` + "\n\n" + `{"id":"b","date":"2024-01-15","ticker":"AAPL","side":"BUY","qty":0,"price":1,"fees":0}`, "line 3: invalid qty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTrades(strings.NewReader(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("DecodeTrades() error = %v, want %q", err, tt.want)
			}
		})
	}
}
