package core

import (
	"math"
	"testing"
)

// ----------------------------------------------------------------------------
// IsNullCell Tests
// ----------------------------------------------------------------------------

func TestIsNullCell(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"-", true},
		{"none", true},
		{"None", true},
		{"NONE", true},
		{"--", false},
		{"0", false},
		{"nan", false},
		{"null", false},
		{"nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsNullCell(tt.input); got != tt.want {
				t.Errorf("IsNullCell(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToPgFloat8 Tests
// ----------------------------------------------------------------------------

func TestToPgFloat8(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOK    bool
		wantValid bool
		wantValue float64
	}{
		// Valid: numbers
		{name: "decimal", input: "10.5", wantOK: true, wantValid: true, wantValue: 10.5},
		{name: "integer", input: "415", wantOK: true, wantValid: true, wantValue: 415},
		{name: "negative", input: "-2.25", wantOK: true, wantValid: true, wantValue: -2.25},
		{name: "exponent", input: "2.13e-3", wantOK: true, wantValid: true, wantValue: 0.00213},
		{name: "leading decimal point", input: ".5", wantOK: true, wantValid: true, wantValue: 0.5},
		{name: "overflow saturates", input: "1e400", wantOK: true, wantValid: true, wantValue: math.Inf(1)},
		{name: "negative overflow saturates", input: "-1e400", wantOK: true, wantValid: true, wantValue: math.Inf(-1)},
		{name: "infinity word", input: "inf", wantOK: true, wantValid: true, wantValue: math.Inf(1)},

		// Valid: nulls
		{name: "empty is null", input: "", wantOK: true, wantValid: false},
		{name: "dash is null", input: "-", wantOK: true, wantValid: false},
		{name: "none is null", input: "None", wantOK: true, wantValid: false},

		// Invalid
		{name: "text", input: "abc", wantOK: false},
		{name: "thousands separator", input: "1,000", wantOK: false},
		{name: "trailing unit", input: "25C", wantOK: false},
		{name: "hex float", input: "0x1p-2", wantOK: false},
		{name: "signed hex float", input: "-0X1.8p1", wantOK: false},
		{name: "digit underscores", input: "1_000", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToPgFloat8(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ToPgFloat8(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Valid != tt.wantValid {
				t.Errorf("ToPgFloat8(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if got.Valid && got.Float64 != tt.wantValue && math.Abs(got.Float64-tt.wantValue) > 1e-12 {
				t.Errorf("ToPgFloat8(%q) = %v, want %v", tt.input, got.Float64, tt.wantValue)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToPgInt8 Tests
// ----------------------------------------------------------------------------

func TestToPgInt8(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOK    bool
		wantValid bool
		wantValue int64
	}{
		{name: "positive", input: "42", wantOK: true, wantValid: true, wantValue: 42},
		{name: "negative", input: "-7", wantOK: true, wantValid: true, wantValue: -7},
		{name: "zero", input: "0", wantOK: true, wantValid: true, wantValue: 0},
		{name: "max int64", input: "9223372036854775807", wantOK: true, wantValid: true, wantValue: math.MaxInt64},
		{name: "empty is null", input: "", wantOK: true, wantValid: false},
		{name: "dash is null", input: "-", wantOK: true, wantValid: false},
		{name: "decimal rejected", input: "1.0", wantOK: false},
		{name: "exponent rejected", input: "1e3", wantOK: false},
		{name: "overflow rejected", input: "9223372036854775808", wantOK: false},
		{name: "text rejected", input: "abc", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToPgInt8(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ToPgInt8(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Valid != tt.wantValid {
				t.Errorf("ToPgInt8(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if got.Valid && got.Int64 != tt.wantValue {
				t.Errorf("ToPgInt8(%q) = %d, want %d", tt.input, got.Int64, tt.wantValue)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToPgBool Tests
// ----------------------------------------------------------------------------

func TestToPgBool(t *testing.T) {
	tests := []struct {
		input     string
		wantOK    bool
		wantValid bool
		wantValue bool
	}{
		{"true", true, true, true},
		{"TRUE", true, true, true},
		{"1", true, true, true},
		{"on", true, true, true},
		{"Yes", true, true, true},
		{"false", true, true, false},
		{"0", true, true, false},
		{"OFF", true, true, false},
		{"no", true, true, false},
		{"", true, false, false},
		{"none", true, false, false},
		{"maybe", false, false, false},
		{"2", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ToPgBool(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ToPgBool(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got.Valid != tt.wantValid {
				t.Errorf("ToPgBool(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if got.Bool != tt.wantValue {
				t.Errorf("ToPgBool(%q) = %v, want %v", tt.input, got.Bool, tt.wantValue)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToPgText Tests
// ----------------------------------------------------------------------------

func TestToPgText(t *testing.T) {
	tests := []struct {
		input     string
		wantValid bool
	}{
		{"", false},
		{"-", true},
		{"none", true},
		{"abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ToPgText(tt.input)
			if got.Valid != tt.wantValid {
				t.Errorf("ToPgText(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if got.Valid && got.String != tt.input {
				t.Errorf("ToPgText(%q) = %q, want input unchanged", tt.input, got.String)
			}
		})
	}
}

func TestParseDataType(t *testing.T) {
	tests := []struct {
		input  string
		want   DataType
		wantOK bool
	}{
		{"float", Float, true},
		{"Double", Float, true},
		{"integer", Integer, true},
		{"int", Integer, true},
		{" string ", String, true},
		{"boolean", Boolean, true},
		{"bool", Boolean, true},
		{"decimal", String, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDataType(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseDataType(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
