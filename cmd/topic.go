package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/margin/docs"
	"github.com/etnz/margin/renderer"
	"github.com/google/subcommands"
)

type topicCmd struct {
	list bool
}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "show documentation" }
func (*topicCmd) Usage() string {
	return `topic [-list] [<topic>...]

Show documentation for the given topics, "*" for all of them. Without topic,
shows the introduction.
`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.list, "list", false, "list the topics with their title")
}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.list {
		if f.NArg() > 0 {
			fmt.Fprintln(os.Stderr, "-list takes no topic")
			return subcommands.ExitUsageError
		}
		topics, err := topicTitles()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading doc: %v\n", err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.TopicsMarkdown(topics))
		return subcommands.ExitSuccess
	}

	topics := f.Args()
	if len(topics) == 0 {
		topics = []string{"readme"}
	}
	doc, err := docs.GetTopics(topics...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading doc: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'marg topic -list' for the available topics.")
		return subcommands.ExitFailure
	}
	printMarkdown(doc)
	return subcommands.ExitSuccess
}

// topicTitles returns every documentation topic with its title.
func topicTitles() ([]renderer.Topic, error) {
	names, err := docs.GetAllTopics()
	if err != nil {
		return nil, err
	}
	topics := make([]renderer.Topic, 0, len(names))
	for _, name := range names {
		title, err := docs.Title(name)
		if err != nil {
			return nil, err
		}
		topics = append(topics, renderer.Topic{Name: name, Title: title})
	}
	return topics, nil
}
