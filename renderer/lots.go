package renderer

import (
	"bytes"
	"cmp"
	"slices"

	"github.com/etnz/margin"
	md "github.com/nao1215/markdown"
)

// LotsMarkdown renders the open lots, grouped by ticker in opening order.
func LotsMarkdown(lots []margin.Lot, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Open Lots")
	if len(lots) == 0 {
		doc.PlainText("No open lot.")
		return doc.String()
	}
	sorted := slices.Clone(lots)
	slices.SortStableFunc(sorted, func(a, b margin.Lot) int {
		return cmp.Or(cmp.Compare(a.Ticker, b.Ticker), a.OpenDate.Compare(b.OpenDate))
	})

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Ticker", "Lot", "Opened", "Side", "Open", "Initial", "Cost/Share", "Maintenance"},
	}
	for _, l := range sorted {
		maint := "-"
		if l.MaintenanceMargin != nil {
			maint = l.MaintenanceMargin.Percent()
		}
		table.Rows = append(table.Rows, []string{
			l.Ticker,
			l.ID,
			l.OpenDate.String(),
			string(l.Side),
			l.QtyOpen.String(),
			l.QtyInit.String(),
			l.CostBasis.Format(currency),
			maint,
		})
	}
	doc.Table(table)
	return doc.String()
}

// TradesMarkdown renders the trade log.
func TradesMarkdown(trades []margin.Trade, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Trades")
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignLeft,
		},
		Header: []string{"ID", "Date", "Ticker", "Side", "Quantity", "Price", "Fees", "Notes"},
		Rows:   [][]string{},
	}
	for _, t := range trades {
		table.Rows = append(table.Rows, []string{
			t.ID,
			t.Date.String(),
			t.Ticker,
			string(t.Side),
			t.Quantity.String(),
			t.Price.Format(currency),
			t.Fees.Format(currency),
			t.Notes,
		})
	}
	doc.Table(table)
	return doc.String()
}

// ClosingsMarkdown renders the realized P&L of every closing trade.
func ClosingsMarkdown(closings []margin.Closing, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Realized P&L")
	var total margin.Money
	for _, c := range closings {
		doc.H2(Trade(c.Trade, currency) + " on " + c.Trade.Date.String())
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
			Header:    []string{"Lot", "Opened", "Quantity", "Cost/Share", "Realized"},
		}
		for _, s := range c.Consumed {
			table.Rows = append(table.Rows, []string{s.LotID, s.OpenDate.String(), s.Quantity.String(), s.CostBasis.Format(currency), s.Realized.SignedString()})
		}
		doc.Table(table)
		total = total.Add(c.Realized)
	}
	doc.PlainText("Total realized: " + md.Bold(total.SignedString()))
	return doc.String()
}
