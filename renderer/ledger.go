package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/margin"
	"github.com/etnz/margin/date"
	md "github.com/nao1215/markdown"
)

// LedgerMarkdown renders the ledger entries within a range, and their total interest.
func LedgerMarkdown(ledger margin.InterestLedger, r date.Range, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Interest Ledger %s", r))
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Date", "Opening Debit", "Activity", "Interest", "Closing Debit", "APR"},
		Rows:   [][]string{},
	}
	for _, e := range ledger {
		if !r.Contains(e.Date) {
			continue
		}
		table.Rows = append(table.Rows, []string{
			e.Date.String(),
			e.OpeningDebit.Format(currency),
			e.CashActivity.SignedString(),
			e.DailyInterest.Round(4).Decimal().String(),
			e.ClosingDebit.Format(currency),
			e.APR.Percent(),
		})
	}
	doc.Table(table)
	doc.PlainText(fmt.Sprintf("Total interest: %s", md.Bold(ledger.TotalInterest(r.From, r.To).Format(currency))))
	return doc.String()
}
