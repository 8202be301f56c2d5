package cmd

import (
	"io"
	"log"
	"time"

	"github.com/jaffee/commandeer"
	"github.com/spf13/cobra"

	"github.com/energietransitie/etdkit/ingest"
)

// MapMain is wrapped by NewMapCommand and only exported for testing purposes.
var MapMain *ingest.Main

// NewMapCommand returns a new cobra command wrapping MapMain.
func NewMapCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var err error
	MapMain = ingest.NewMain()
	mapCommand := &cobra.Command{
		Use:   "map",
		Short: "map raw supplier files onto the ETD model and update the index",
		Long: `Reads every raw CSV under the raw path (a file, a directory, or an
s3://bucket/prefix), maps each household onto the canonical column set,
validates it, writes the mapped table, and updates the household index.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			err = MapMain.Run()
			if err != nil {
				return err
			}
			log.Println("Done: ", time.Since(start))
			return nil
		},
	}
	flags := mapCommand.Flags()
	err = commandeer.Flags(flags, MapMain)
	if err != nil {
		panic(err)
	}
	return mapCommand
}

func init() {
	subcommandFns["map"] = NewMapCommand
}
