package etdmodel

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Variable is one row of the bundled model definition table. Empty strings
// are missing values.
type Variable struct {
	Entity     string
	Name       string
	Key        string
	Type       string
	Required   bool
	Resolution string
	FilledBy   string
	Source     string
	Definition string
	Sensitive  bool
}

// LoadModel parses the bundled model definition table, in file order.
func LoadModel() ([]Variable, error) {
	f, err := dataFS.Open("data/etdmodel.csv")
	if err != nil {
		return nil, errors.Wrap(err, "opening bundled model")
	}
	defer f.Close()

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading model header")
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range []string{"Entiteit", "Variabele", "Key", "Type variabele", "Vereist", "Resolutie", "Wie vult?", "Bron", "Definitie", "AVG gevoelig"} {
		if _, ok := idx[col]; !ok {
			return nil, errors.Errorf("model table misses column %s", col)
		}
	}

	var vars []Variable
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading model line %d", line)
		}
		v := Variable{
			Entity:     naClean(rec[idx["Entiteit"]]),
			Name:       naClean(rec[idx["Variabele"]]),
			Key:        naClean(rec[idx["Key"]]),
			Type:       naClean(rec[idx["Type variabele"]]),
			Required:   rec[idx["Vereist"]] == "Ja",
			Resolution: naClean(rec[idx["Resolutie"]]),
			FilledBy:   naClean(rec[idx["Wie vult?"]]),
			Source:     naClean(rec[idx["Bron"]]),
			Definition: naClean(rec[idx["Definitie"]]),
			Sensitive:  rec[idx["AVG gevoelig"]] == "Ja",
		}
		vars = append(vars, v)
	}
	return vars, nil
}

func naClean(s string) string {
	if IsNAToken(s) {
		return ""
	}
	return s
}
