package cmd

import (
	"io"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"

	"github.com/energietransitie/etdkit/stats"
)

// StatsMain is wrapped by NewStatsCommand and only exported for testing
// purposes.
var StatsMain *stats.Main

// NewStatsCommand returns a new cobra command wrapping StatsMain.
func NewStatsCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var err error
	StatsMain = stats.NewMain()
	statsCommand := &cobra.Command{
		Use:   "stats",
		Short: "print column statistics for a mapped household table or any CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			StatsMain.SetOutput(stdout)
			return StatsMain.Run()
		},
	}
	flags := statsCommand.Flags()
	err = commandeer.Flags(flags, StatsMain)
	if err != nil {
		panic(err)
	}
	return statsCommand
}

func init() {
	subcommandFns["stats"] = NewStatsCommand
}
