package core

import (
	"errors"
	"slices"
	"testing"
)

func TestParseMeasurement(t *testing.T) {
	tests := []struct {
		input   string
		want    Measurement
		wantErr bool
	}{
		{input: "standard", want: MeasurementStandard},
		{input: "Fluorometer", want: MeasurementFluorometer},
		{input: " aquatic ", want: MeasurementAquatic},
		{input: "SOIL", want: MeasurementSoil},
		{input: "leaf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMeasurement(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMeasurement(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMeasurement(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMeasurement_RequiredVariables(t *testing.T) {
	for _, m := range Measurements() {
		req := m.RequiredVariables()
		if len(req) == 0 {
			t.Errorf("%s: no required variables", m)
		}
		if m.Label() == "Unknown" {
			t.Errorf("%s: missing label", m)
		}
	}

	std := MeasurementStandard.RequiredVariables()
	fl := MeasurementFluorometer.RequiredVariables()
	for _, v := range std {
		if !slices.Contains(fl, v) {
			t.Errorf("fluorometer config missing gas exchange variable %q", v)
		}
	}
	for _, v := range []string{"Fm'", "Fo'", "PhiPS2", "NPQ"} {
		if !slices.Contains(fl, v) {
			t.Errorf("fluorometer config missing %q", v)
		}
	}
}

func TestMeasurement_ValidateColumns(t *testing.T) {
	tests := []struct {
		name         string
		measurement  Measurement
		columns      []string
		wantVariable string
	}{
		{
			name:        "all standard columns present",
			measurement: MeasurementStandard,
			columns:     MeasurementStandard.RequiredVariables(),
		},
		{
			name:        "extra columns ignored",
			measurement: MeasurementStandard,
			columns:     append(slices.Clone(MeasurementStandard.RequiredVariables()), "UserDef", "CO2_s"),
		},
		{
			name:         "missing A",
			measurement:  MeasurementStandard,
			columns:      []string{"obs", "E"},
			wantVariable: "A",
		},
		{
			name:         "first missing reported",
			measurement:  MeasurementStandard,
			columns:      []string{},
			wantVariable: "obs",
		},
		{
			name:         "fluorometer needs fluorescence",
			measurement:  MeasurementFluorometer,
			columns:      MeasurementStandard.RequiredVariables(),
			wantVariable: "F",
		},
		{
			name:         "soil needs Tsoil",
			measurement:  MeasurementSoil,
			columns:      []string{"obs", "A"},
			wantVariable: "Tsoil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.measurement.ValidateColumns(tt.columns)
			if tt.wantVariable == "" {
				if err != nil {
					t.Fatalf("ValidateColumns() error = %v", err)
				}
				return
			}

			if !errors.Is(err, ErrMissingRequiredVariable) {
				t.Fatalf("ValidateColumns() error = %v, want missing variable", err)
			}
			var pe *ParseError
			errors.As(err, &pe)
			if pe.Variable != tt.wantVariable {
				t.Errorf("Variable = %q, want %q", pe.Variable, tt.wantVariable)
			}
			if pe.Config != tt.measurement.String() {
				t.Errorf("Config = %q, want %q", pe.Config, tt.measurement.String())
			}
		})
	}
}

func TestMeasurement_ErrorMessage(t *testing.T) {
	err := MeasurementStandard.ValidateColumns([]string{"obs", "E"})
	want := `missing required variable "A" for config "standard"`
	if err == nil || err.Error() != want {
		t.Errorf("error = %v, want %q", err, want)
	}
}
