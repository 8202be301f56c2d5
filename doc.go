// etdkit maps raw energy-metering datasets onto the canonical ETD model,
// validates them, and maintains an index of processed households.
//
// The mapping journey mirrors how raw supplier data flows through the kit:
//
// 1. RawSource
//
//	A RawSource hands out named readers for raw supplier files, wherever
//	they live - a local folder, an S3 bucket. It does not interpret the
//	bytes; that is the job of a Source.
//
// 2. Source
//
//	A Source turns raw files into Datasets: one household's readings as a
//	Frame of typed, nullable columns, plus the supplier identifiers needed
//	to place it in the index. csvsource reads the CSV exports suppliers
//	actually deliver.
//
// 3. Mapping
//
//	The mapping package reconciles a Dataset against the ETD model: columns
//	are reordered and completed, readings are padded to a fixed cadence,
//	sparse device columns are filled down, and cumulative meter readings
//	are turned into per-interval difference columns with meter resets and
//	zero runs detected and corrected.
//
// 4. Validation
//
//	The validate package attaches record-level flag columns to each mapped
//	table and computes dataset-level flags from the whole table. Flags are
//	nullable booleans: a validator that cannot run yields NA, never false.
//
// 5. Index
//
//	The etdindex package assigns each household a stable numeric id and
//	keeps one entry per household with its supplier metadata and dataset
//	flags, persisted in bolt.
//
// The ingest package wires these stages into a sequential pipeline; the cmd
// packages expose them as the etdkit command.
package etdkit
