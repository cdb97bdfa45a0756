package renderer

import (
	"bytes"
	"maps"
	"slices"

	"github.com/etnz/margin/quote"
	md "github.com/nao1215/markdown"
)

// QuotesMarkdown renders quotes sorted by ticker. Unknown fields are shown as "-".
func QuotesMarkdown(quotes map[string]quote.Quote) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Quotes")
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignLeft},
		Header:    []string{"Ticker", "Price", "Volume", "Market"},
		Rows:      [][]string{},
	}
	for _, t := range slices.Sorted(maps.Keys(quotes)) {
		q := quotes[t]
		price, volume, market := "-", "-", "-"
		if q.Price != nil {
			price = q.Price.String()
		}
		if q.Volume != nil {
			volume = q.Volume.String()
		}
		if q.IsMarketOpen != nil {
			market = "closed"
			if *q.IsMarketOpen {
				market = "open"
			}
		}
		table.Rows = append(table.Rows, []string{t, price, volume, market})
	}
	doc.Table(table)
	return doc.String()
}
