// Command marg manages a margin account: trades, lots, interest ledger and
// margin requirements.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/margin/cmd"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	// the quote feed can be configured in a .env file.
	_ = godotenv.Load()

	// answers shell completion requests, and exits, when invoked by the shell.
	completion().Complete("marg")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	if sub := flag.Arg(0); sub != "" && !builtin(sub) {
		if found, code := cmd.RunExtension(sub, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}

// builtin reports whether name is a subcommand of marg itself.
func builtin(name string) bool {
	switch name {
	case "help", "flags", "commands":
		return true
	}
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return true
		}
	}
	return false
}

// completion returns the completion tree of marg, with the flags of every subcommand.
func completion() *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: predictors(flag.CommandLine),
	}
	root.Flags["store"] = predict.Files("*")
	root.Flags["settings"] = predict.Files("*.yaml")

	for _, c := range cmd.Commands() {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		sub := &complete.Command{Flags: predictors(fs)}
		switch c.Name() {
		case "import":
			sub.Args = predict.Files("*")
		case "topic":
			sub.Args = predict.Set{"readme", "trades", "lots", "ledger", "tiers", "pdt", "quotes", "store"}
		}
		root.Sub[c.Name()] = sub
	}
	for _, name := range []string{"help", "flags", "commands"} {
		root.Sub[name] = &complete.Command{}
	}
	return root
}

// predictors predicts any value for the flags of fs, and none for boolean flags.
func predictors(fs *flag.FlagSet) map[string]complete.Predictor {
	res := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			res[f.Name] = predict.Nothing
			return
		}
		res[f.Name] = predict.Something
	})
	return res
}
