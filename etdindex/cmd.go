package etdindex

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/energietransitie/etdkit/csvsource"
)

// Main contains the configuration for printing the persisted index.
type Main struct {
	IndexPath string `help:"Path of the household index database."`

	out io.Writer
}

// NewMain gets a new Main with the default configuration.
func NewMain() *Main {
	return &Main{
		IndexPath: "etdindex.db",
		out:       os.Stdout,
	}
}

// SetOutput redirects the printed index, for tests.
func (m *Main) SetOutput(w io.Writer) { m.out = w }

// Run loads the index and prints it as CSV.
func (m *Main) Run() error {
	store, err := OpenBoltStore(m.IndexPath)
	if err != nil {
		return errors.Wrap(err, "opening index store")
	}
	defer store.Close()

	ix, err := Load(zap.NewNop(), store)
	if err != nil {
		return errors.Wrap(err, "loading index")
	}
	ix.UpdateMetaValidators()
	return errors.Wrap(csvsource.WriteFrame(m.out, ix.Frame()), "writing index")
}
