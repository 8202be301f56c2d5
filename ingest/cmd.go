package ingest

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/energietransitie/etdkit"
	"github.com/energietransitie/etdkit/csvsource"
	"github.com/energietransitie/etdkit/etdindex"
	"github.com/energietransitie/etdkit/file"
	"github.com/energietransitie/etdkit/mapping"
	"github.com/energietransitie/etdkit/s3"
)

// Main contains the configuration for a mapping run over one supplier's raw
// files.
type Main struct {
	RawPath         string        `help:"File or directory of raw supplier CSVs, or s3://bucket/prefix."`
	MappedPath      string        `help:"Directory the mapped household tables are written to."`
	IndexPath       string        `help:"Path of the household index database."`
	TranslatorPath  string        `help:"Directory of the stable-id translator databases."`
	Supplier        string        `help:"Name of the data supplier."`
	Metadata        string        `help:"Optional BSV metadata CSV applied after the run."`
	S3Region        string        `help:"AWS region used with s3:// raw paths."`
	Freq            time.Duration `help:"Cadence readings are padded to."`
	MaxGap          time.Duration `help:"Largest tolerated gap between cumulative readings."`
	MinAvailable    float64       `help:"Minimum fraction of rows a cumulative column must cover."`
	DropUnvalidated bool          `help:"Drop households whose cumulative columns fail validation."`
	Debug           bool          `help:"Enable debug logging."`
}

// NewMain gets a new Main with the default configuration.
func NewMain() *Main {
	return &Main{
		RawPath:        "raw",
		MappedPath:     "mapped",
		IndexPath:      "etdindex.db",
		TranslatorPath: "etdtranslator",
		Supplier:       "unknown",
		S3Region:       "eu-central-1",
		Freq:           mapping.DefaultFreq,
		MaxGap:         mapping.DefaultMaxGap,
		MinAvailable:   mapping.DefaultMinAvailable,
	}
}

// Run maps the raw files and updates the index.
func (m *Main) Run() error {
	log, err := m.logger()
	if err != nil {
		return errors.Wrap(err, "building logger")
	}
	defer log.Sync()

	rs, err := m.rawSource()
	if err != nil {
		return errors.Wrap(err, "getting raw source")
	}

	store, err := etdindex.OpenBoltStore(m.IndexPath)
	if err != nil {
		return errors.Wrap(err, "opening index store")
	}
	ix, err := etdindex.Load(log, store)
	if err != nil {
		store.Close()
		return errors.Wrap(err, "loading index")
	}
	alloc, err := etdindex.NewTranslator(m.TranslatorPath)
	if err != nil {
		store.Close()
		return errors.Wrap(err, "opening id translator")
	}

	opts := []mapping.Option{
		mapping.OptLogger(log),
		mapping.OptFreq(m.Freq),
		mapping.OptMaxGap(m.MaxGap),
		mapping.OptMinAvailable(m.MinAvailable),
	}
	if m.DropUnvalidated {
		opts = append(opts, mapping.OptDropUnvalidated())
	}

	p := &Pipeline{
		Source:   csvsource.NewSource(rs, csvsource.OptLogger(log)),
		Mapper:   mapping.NewMapper(opts...),
		Index:    ix,
		Store:    store,
		Tables:   csvsource.TableDir{Dir: m.MappedPath},
		Alloc:    alloc,
		Supplier: m.Supplier,
		Log:      log,
	}
	defer p.Close()

	if err := p.Run(); err != nil {
		return errors.Wrap(err, "running pipeline")
	}

	if m.Metadata != "" {
		meta, err := csvsource.ReadStringFrame(m.Metadata)
		if err != nil {
			return errors.Wrap(err, "reading BSV metadata")
		}
		if err := ix.ApplyBSVMetadata(meta); err != nil {
			return errors.Wrap(err, "applying BSV metadata")
		}
		if err := store.Save(ix.Entries()); err != nil {
			return errors.Wrap(err, "saving index after metadata")
		}
	}
	return nil
}

func (m *Main) logger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if m.Debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func (m *Main) rawSource() (etdkit.RawSource, error) {
	if strings.HasPrefix(m.RawPath, "s3://") {
		trimmed := strings.TrimPrefix(m.RawPath, "s3://")
		bucket, prefix := trimmed, ""
		if i := strings.IndexByte(trimmed, '/'); i >= 0 {
			bucket, prefix = trimmed[:i], trimmed[i+1:]
		}
		return s3.NewRawSource(m.S3Region, bucket, prefix)
	}
	return file.NewRawSource(m.RawPath)
}
