// Package core provides the parsing pipeline for LI-COR gas-exchange logs.
//
// This package is the heart of the converter, containing all parsing and
// typing logic independent of any CLI, HTTP or output format. It can be
// used by the CLI, the HTTP API, or tests without modification.
//
// # Pipeline
//
// A log file passes through four stages:
//
//  1. [ParseRaw] splits the text into a header key/value map and a data
//     matrix of column categories, names, units and rows.
//  2. [Device.ValidateHeader] checks the header against the instrument model
//     and [Device.ParseMetadata] extracts serial numbers and versions.
//  3. [Measurement.ValidateColumns] checks that the columns required by the
//     measurement configuration are present.
//  4. [BuildDataset] resolves each column's type from the [Dictionary] (or
//     its units) and converts it, falling back to text for the whole column
//     if any cell does not parse.
//
// [Parser] runs all four:
//
//	dict, _ := dictionary.Default()
//	p, _ := core.NewParser(core.DeviceLI6800, core.MeasurementFluorometer, dict)
//	ds, err := p.ParseFile("2025-05-30-0948_logdata")
//
// # Concurrency
//
// Parsing is synchronous and keeps no state between calls. A [Dictionary]
// is immutable after construction, so one dictionary and any number of
// parsers can be shared across goroutines without locking.
//
// # Error Handling
//
// Every pipeline failure is a [*ParseError] with a [ErrorKind]. Use
// errors.Is with the Err* sentinels to test for a kind, and [MapError] to
// get a user-facing message with a support code.
package core
