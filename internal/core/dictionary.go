package core

import (
	"sort"
	"strings"
)

// unitMarkers are substrings of a unit string that identify a physical
// quantity. A column whose units contain any of them holds numbers.
var unitMarkers = []string{
	"V",    // voltage
	"µmol", // molar concentration
	"umol",
	"mmol",
	"kPa", // pressure
	"C",   // temperature (°C)
	"m-2", // per area
	"s-1", // per time
	"cm2", // area
}

// InferDataType guesses a variable's type from its unit string.
// Unitless variables are treated as text.
func InferDataType(units string) DataType {
	if units == "" {
		return String
	}
	for _, m := range unitMarkers {
		if strings.Contains(units, m) {
			return Float
		}
	}
	return String
}

// Dictionary is an immutable lookup table of known variables, keyed by
// internal name. It is safe for concurrent use once built.
type Dictionary struct {
	vars map[string]VariableDef
}

// NewDictionary builds a dictionary from a list of definitions.
// When two definitions share an internal name the first one wins.
// Definitions with an empty internal name are ignored.
func NewDictionary(defs []VariableDef) *Dictionary {
	vars := make(map[string]VariableDef, len(defs))
	for _, d := range defs {
		if d.InternalName == "" {
			continue
		}
		if _, exists := vars[d.InternalName]; exists {
			continue
		}
		vars[d.InternalName] = d
	}
	return &Dictionary{vars: vars}
}

// Lookup returns the definition for an internal name.
func (d *Dictionary) Lookup(name string) (VariableDef, bool) {
	if d == nil {
		return VariableDef{}, false
	}
	def, ok := d.vars[name]
	return def, ok
}

// IsKnown reports whether a variable name is in the dictionary.
func (d *Dictionary) IsKnown(name string) bool {
	_, ok := d.Lookup(name)
	return ok
}

// Len returns the number of variables.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.vars)
}

// All returns every definition sorted by internal name.
func (d *Dictionary) All() []VariableDef {
	if d == nil {
		return nil
	}
	defs := make([]VariableDef, 0, len(d.vars))
	for _, def := range d.vars {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].InternalName < defs[j].InternalName
	})
	return defs
}
