package renderer

import (
	"bytes"
	"maps"
	"slices"
	"strconv"

	"github.com/etnz/margin"
	"github.com/etnz/margin/date"
	md "github.com/nao1215/markdown"
)

// SettingsMarkdown renders the broker settings, the rate schedule and the APR overrides.
func SettingsMarkdown(s margin.BrokerSettings, overrides margin.RateOverrides) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Broker " + s.Name)
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Setting", "Value"},
		Rows: [][]string{
			{"Currency", s.Currency},
			{"Day Count Basis", strconv.Itoa(s.DayCountBasis)},
			{"Initial Margin", s.InitialMargin.Percent()},
			{"Maintenance Margin", s.MaintenanceMargin.Percent()},
		},
	})

	doc.H2("Rate Tiers")
	tiers := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"#", "From", "To", "APR"},
	}
	for i, t := range margin.SortTiers(s.Tiers) {
		to := "∞"
		if t.MaxBalance != nil {
			to = t.MaxBalance.Format(s.Currency)
		}
		tiers.Rows = append(tiers.Rows, []string{strconv.Itoa(i), t.MinBalance.Format(s.Currency), to, t.APR.Percent()})
	}
	doc.Table(tiers)

	if len(overrides) > 0 {
		doc.H2("APR Overrides")
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
			Header:    []string{"Date", "APR"},
		}
		days := slices.SortedFunc(maps.Keys(overrides), date.Date.Compare)
		for _, d := range days {
			table.Rows = append(table.Rows, []string{d.String(), overrides[d].Percent()})
		}
		doc.Table(table)
	}
	return doc.String()
}
