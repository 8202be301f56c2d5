package etdkit

import "io"

// Dataset is one household's raw readings plus the supplier identifiers
// needed to place it in the index.
type Dataset struct {
	HuisIDLeverancier    string
	ProjectIDLeverancier string
	File                 string
	Frame                *Frame
}

// Source is the interface for getting raw data one household dataset at a
// time. Dataset returns io.EOF when the source is exhausted.
type Source interface {
	Dataset() (*Dataset, error)
}

// NamedReadCloser is a ReadCloser which can also tell you its name.
type NamedReadCloser interface {
	io.ReadCloser
	Name() string
}

// RawSource is the interface for getting raw supplier files one at a time.
// NextReader returns io.EOF when there are no more files.
type RawSource interface {
	NextReader() (NamedReadCloser, error)
}
