package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/margin"
	md "github.com/nao1215/markdown"
)

// SummaryMarkdown renders the margin report of an account.
func SummaryMarkdown(s margin.AccountSummary) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	cur := s.Currency

	doc.H1(fmt.Sprintf("Margin Summary on %s", s.Date))
	if s.IsMarginCall {
		doc.PlainText(md.Bold(fmt.Sprintf("MARGIN CALL: equity %s is below the maintenance requirement %s.", s.Equity.Format(cur), s.Maintenance.Format(cur))))
	}

	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Metric", "Value"},
		Rows: [][]string{
			{"Market Value", s.MarketValue.Format(cur)},
			{"Debit Balance", s.Debit.Format(cur)},
			{md.Bold("Equity"), md.Bold(s.Equity.Format(cur))},
			{"Maintenance Requirement", s.Maintenance.Format(cur)},
			{"Buying Power", s.BuyingPower.Format(cur)},
			{"Margin Rate", s.APR.Percent()},
			{"Est. Daily Interest", s.EstimatedDailyInterest.Format(cur)},
		},
	})

	if len(s.Positions) > 0 {
		doc.H2("Positions")
		doc.Table(positionsTable(s.Positions, cur))
		for _, p := range s.Positions {
			if !p.PriceKnown {
				doc.PlainText("Positions marked with * have no known price and are valued at cost.")
				break
			}
		}
	}
	return doc.String()
}

func positionsTable(positions []margin.PositionSummary, cur string) md.TableSet {
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Ticker", "Quantity", "Price", "Market Value", "Cost Basis", "Unrealized", "Maintenance"},
	}
	for _, p := range positions {
		price := p.Price.Format(cur)
		if !p.PriceKnown {
			price = "*"
		}
		table.Rows = append(table.Rows, []string{
			p.Ticker,
			p.Quantity.String(),
			price,
			p.MarketValue.Format(cur),
			p.CostBasis.Format(cur),
			p.Unrealized.SignedString(),
			p.Maintenance.Format(cur),
		})
	}
	return table
}
