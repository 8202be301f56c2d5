package stats

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/energietransitie/etdkit/csvsource"
	"github.com/energietransitie/etdkit/file"
)

// Main contains the configuration for the column statistics report.
type Main struct {
	Path string `help:"CSV file to summarize, typically a mapped household table."`

	out io.Writer
}

// NewMain gets a new Main with the default configuration.
func NewMain() *Main {
	return &Main{
		out: os.Stdout,
	}
}

// SetOutput redirects the report, for tests.
func (m *Main) SetOutput(w io.Writer) { m.out = w }

// Run reads the file and prints the per-column statistics.
func (m *Main) Run() error {
	rs, err := file.NewRawSource(m.Path)
	if err != nil {
		return errors.Wrap(err, "getting raw source")
	}
	ds, err := csvsource.NewSource(rs).Dataset()
	if err != nil {
		return errors.Wrapf(err, "reading %s", m.Path)
	}
	return errors.Wrap(Render(m.out, Describe(ds.Frame)), "rendering stats")
}
