package core

import (
	"fmt"
	"slices"
)

// Measurement identifies the measurement configuration a log was recorded
// with. Each configuration requires a fixed set of columns.
type Measurement int

const (
	MeasurementStandard Measurement = iota + 1
	MeasurementFluorometer
	MeasurementAquatic
	MeasurementSoil
)

// measurementSpec describes one configuration.
type measurementSpec struct {
	name     string
	label    string
	required []string
}

// gasExchange are the columns every leaf gas-exchange log carries.
var gasExchange = []string{
	"obs",   // observation number
	"A",     // net CO2 assimilation
	"E",     // transpiration rate
	"Ca",    // reference CO2 concentration
	"Ci",    // intercellular CO2 concentration
	"gsw",   // stomatal conductance to water vapor
	"gbw",   // boundary layer conductance to water vapor
	"Tleaf", // leaf temperature
	"Tair",  // air temperature
	"Flow",  // flow rate
	"Pa",    // atmospheric pressure
}

var measurements = map[Measurement]measurementSpec{
	MeasurementStandard: {
		name:     "standard",
		label:    "Gas exchange",
		required: gasExchange,
	},
	MeasurementFluorometer: {
		name:  "fluorometer",
		label: "Gas exchange with chlorophyll fluorescence",
		required: append(slices.Clone(gasExchange), []string{
			"F",      // fluorescence yield
			"Fm'",    // maximum fluorescence in light
			"Fo'",    // minimum fluorescence in light
			"PhiPS2", // quantum yield of PSII
			"ETR",    // electron transport rate
			"qP",     // photochemical quenching
			"NPQ",    // non-photochemical quenching
		}...),
	},
	MeasurementAquatic: {
		name:  "aquatic",
		label: "Aquatic chamber",
		required: []string{
			"obs",
			"Qabs", // flux absorbed by sample
			"Qin",  // flux incident on sample
			"Qout", // flux leaving sample
			"A",
			"E",
			"Pa",
		},
	},
	MeasurementSoil: {
		name:  "soil",
		label: "Soil respiration",
		required: []string{
			"obs",
			"A",     // soil CO2 efflux
			"Tsoil", // soil temperature
			"VWC",   // volumetric water content
			"Pa",
			"Flow",
		},
	},
}

// Measurements returns every configuration in declaration order.
func Measurements() []Measurement {
	return []Measurement{
		MeasurementStandard,
		MeasurementFluorometer,
		MeasurementAquatic,
		MeasurementSoil,
	}
}

// ParseMeasurement converts a configuration name to a Measurement.
func ParseMeasurement(s string) (Measurement, error) {
	key := normalizeCell(s)
	for _, m := range Measurements() {
		if measurements[m].name == key {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown config %q (must be standard, fluorometer, aquatic or soil)", s)
}

// String returns the configuration name, e.g. "fluorometer".
func (m Measurement) String() string {
	if def, ok := measurements[m]; ok {
		return def.name
	}
	return "unknown"
}

// Label returns a human-readable description of the configuration.
func (m Measurement) Label() string {
	if def, ok := measurements[m]; ok {
		return def.label
	}
	return "Unknown"
}

// RequiredVariables returns the columns this configuration requires, in
// the order they are checked. The returned slice must not be modified.
func (m Measurement) RequiredVariables() []string {
	return measurements[m].required
}

// ValidateColumns checks that every required variable is present.
// It stops at and reports the first missing variable.
func (m Measurement) ValidateColumns(columns []string) error {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	for _, v := range m.RequiredVariables() {
		if _, ok := present[v]; !ok {
			return &ParseError{
				Kind:     KindMissingRequiredVariable,
				Variable: v,
				Config:   m.String(),
			}
		}
	}
	return nil
}
