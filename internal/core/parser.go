package core

import (
	"fmt"
	"io"
	"os"
)

// Parser runs the full pipeline for one device and measurement configuration.
// A Parser holds no mutable state and may be shared between goroutines.
type Parser struct {
	device      Device
	measurement Measurement
	dict        *Dictionary
}

// NewParser creates a parser for the given device and configuration.
// The dictionary is only read; it may be shared with other parsers.
func NewParser(device Device, measurement Measurement, dict *Dictionary) (*Parser, error) {
	if device.Name() == "unknown" {
		return nil, fmt.Errorf("invalid device %d", device)
	}
	if _, ok := measurements[measurement]; !ok {
		return nil, fmt.Errorf("invalid config %d", measurement)
	}
	if dict == nil {
		dict = NewDictionary(nil)
	}
	return &Parser{device: device, measurement: measurement, dict: dict}, nil
}

// Device returns the device this parser validates against.
func (p *Parser) Device() Device { return p.device }

// Measurement returns the configuration this parser validates against.
func (p *Parser) Measurement() Measurement { return p.measurement }

// Dictionary returns the variable dictionary used for typing.
func (p *Parser) Dictionary() *Dictionary { return p.dict }

// ParseContent parses the full text of a log file.
//
// Stages:
//  1. Split into header map and raw data matrix
//  2. Validate the header against the device and extract metadata
//  3. Validate the column set against the measurement configuration
//  4. Convert columns to typed values
func (p *Parser) ParseContent(content string) (*Dataset, error) {
	raw, err := ParseRaw(content)
	if err != nil {
		return nil, err
	}

	if err := p.device.ValidateHeader(raw.Header); err != nil {
		return nil, err
	}
	metadata, err := p.device.ParseMetadata(raw.Header)
	if err != nil {
		return nil, err
	}

	if err := p.measurement.ValidateColumns(raw.ColumnNames); err != nil {
		return nil, err
	}

	ds, err := BuildDataset(raw, p.dict)
	if err != nil {
		return nil, err
	}
	ds.Metadata = metadata
	return ds, nil
}

// ParseReader reads r to the end and parses its content.
// A UTF-8 byte order mark is skipped and invalid UTF-8 replaced.
func (p *Parser) ParseReader(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(NewInputReader(r))
	if err != nil {
		return nil, IOError(err)
	}
	return p.ParseContent(string(data))
}

// ParseFile opens and parses the log file at path.
func (p *Parser) ParseFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, IOError(err)
	}
	defer f.Close()
	return p.ParseReader(f)
}
