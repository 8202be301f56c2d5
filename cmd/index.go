package cmd

import (
	"io"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"

	"github.com/energietransitie/etdkit/etdindex"
)

// IndexMain is wrapped by NewIndexCommand and only exported for testing
// purposes.
var IndexMain *etdindex.Main

// NewIndexCommand returns a new cobra command wrapping IndexMain.
func NewIndexCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var err error
	IndexMain = etdindex.NewMain()
	indexCommand := &cobra.Command{
		Use:   "index",
		Short: "print the household index with its validation flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			IndexMain.SetOutput(stdout)
			return IndexMain.Run()
		},
	}
	flags := indexCommand.Flags()
	err = commandeer.Flags(flags, IndexMain)
	if err != nil {
		panic(err)
	}
	return indexCommand
}

func init() {
	subcommandFns["index"] = NewIndexCommand
}
