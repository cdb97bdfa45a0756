package renderer

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/etnz/margin"
	md "github.com/nao1215/markdown"
)

// PDTMarkdown renders the day trades of the rolling window.
func PDTMarkdown(s margin.PDTStatus) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Pattern Day Trader Status on %s", s.AsOf))
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight},
		Header:    []string{"Date", "Day", "Day Trades"},
	}
	for _, d := range s.Window {
		table.Rows = append(table.Rows, []string{d.String(), d.Weekday().String(), strconv.Itoa(s.DayTradesByDate[d])})
	}
	table.Rows = append(table.Rows, []string{md.Bold("Total"), "", md.Bold(strconv.Itoa(s.DayTrades))})
	doc.Table(table)

	msg := s.Message()
	if s.IsPDTRisk {
		msg = md.Bold(msg)
	}
	doc.PlainText(msg)
	return doc.String()
}
