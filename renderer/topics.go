package renderer

import (
	"bytes"

	md "github.com/nao1215/markdown"
)

// Topic is a documentation topic and its title.
type Topic struct {
	Name  string
	Title string
}

// TopicsMarkdown renders the documentation topics as a table.
func TopicsMarkdown(topics []Topic) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Topics")
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft},
		Header:    []string{"Topic", "Title"},
	}
	for _, t := range topics {
		table.Rows = append(table.Rows, []string{"`" + t.Name + "`", t.Title})
	}
	doc.Table(table)
	doc.PlainText("Read one with `marg topic <topic>`.")
	return doc.String()
}
