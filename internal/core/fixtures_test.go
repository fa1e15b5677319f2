package core

import (
	"os"
	"strings"
	"testing"
)

const sampleFile = "testdata/li6800_fluorometer.txt"

// testDictionary returns the subset of the LI-6800 dictionary the sample
// file needs. UserDef is deliberately absent.
func testDictionary() *Dictionary {
	defs := []VariableDef{
		{InternalName: "obs", DisplayLabel: "Obs#", Description: "Observation count", DataType: Integer},
		{InternalName: "time", DisplayLabel: "Time", Units: "s", Description: "Seconds since 1970", DataType: Float},
		{InternalName: "date", DisplayLabel: "Date", Description: "Date and time", DataType: String},
		{InternalName: "hhmmss", DisplayLabel: "hhmmss", Description: "Time of day", DataType: String},
		{InternalName: "stable", DisplayLabel: "Stable", Description: "Stability criteria met", DataType: Boolean},
	}
	floats := []string{"A", "E", "Ca", "Ci", "gsw", "gbw", "Tleaf", "Tair", "Flow", "Pa",
		"F", "Fm'", "Fo'", "PhiPS2", "ETR", "qP", "NPQ", "CO2_s"}
	for _, name := range floats {
		defs = append(defs, VariableDef{
			InternalName: name,
			DisplayLabel: name,
			Description:  name + " description",
			DataType:     Float,
		})
	}
	return NewDictionary(defs)
}

func readSample(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(sampleFile)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	return string(data)
}

// logFile assembles a minimal log file from header pairs and data lines.
// Each data line is given with '|' as the field separator for readability.
func logFile(header [][2]string, data ...string) string {
	var b strings.Builder
	b.WriteString("[Header]\n")
	for _, kv := range header {
		b.WriteString(kv[0] + "\t" + kv[1] + "\n")
	}
	b.WriteString("[Data]\n")
	for _, line := range data {
		b.WriteString(strings.ReplaceAll(line, "|", "\t") + "\n")
	}
	return b.String()
}

var validHeader = [][2]string{
	{"Console s/n", "68C-901292"},
	{"Console ver", "Bluestem v.2.1.13"},
	{"Head s/n", "68H-581292"},
}
