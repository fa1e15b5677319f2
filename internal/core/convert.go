package core

// convert.go provides cell conversion functions for instrument data.
//
// Instrument consoles write missing values in several ways:
//   - empty cells (trailing tabs, unused channels)
//   - a single dash
//   - the word "none" in any case
//
// All three are nulls regardless of the target type. Every ToPg* function
// returns ok=false when a non-null cell cannot be represented in the target
// type; the column builder uses that to decide whether the whole column
// falls back to text.

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// IsNullCell reports whether a raw cell denotes a missing value.
func IsNullCell(s string) bool {
	return s == "" || s == "-" || strings.EqualFold(s, "none")
}

// ToPgFloat8 converts a cell to pgtype.Float8.
func ToPgFloat8(s string) (pgtype.Float8, bool) {
	if IsNullCell(s) {
		return pgtype.Float8{Valid: false}, true
	}
	if isHexFloat(s) {
		return pgtype.Float8{Valid: false}, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Overflow saturates to ±Inf instead of failing the column.
		if !errors.Is(err, strconv.ErrRange) || !math.IsInf(f, 0) {
			return pgtype.Float8{Valid: false}, false
		}
	}
	return pgtype.Float8{Float64: f, Valid: true}, true
}

// isHexFloat reports whether s uses Go's hexadecimal float syntax, which
// consoles never write and decimal parsers reject.
func isHexFloat(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// ToPgInt8 converts a cell to pgtype.Int8.
// Decimal points and exponents are rejected; "1.0" is not an integer.
func ToPgInt8(s string) (pgtype.Int8, bool) {
	if IsNullCell(s) {
		return pgtype.Int8{Valid: false}, true
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return pgtype.Int8{Valid: false}, false
	}
	return pgtype.Int8{Int64: i, Valid: true}, true
}

// ToPgBool converts a cell to pgtype.Bool.
// Accepts true/false, 1/0, on/off, yes/no in any case.
func ToPgBool(s string) (pgtype.Bool, bool) {
	if IsNullCell(s) {
		return pgtype.Bool{Valid: false}, true
	}

	switch strings.ToLower(s) {
	case "true", "1", "on", "yes":
		return pgtype.Bool{Bool: true, Valid: true}, true
	case "false", "0", "off", "no":
		return pgtype.Bool{Bool: false, Valid: true}, true
	default:
		return pgtype.Bool{Valid: false}, false
	}
}

// ToPgText converts a cell to pgtype.Text.
// Only the empty string is null; "-" and "none" are kept verbatim so that a
// column that fell back to text still carries every original value.
func ToPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// normalizeCell lowercases and trims a value for case-insensitive matching.
func normalizeCell(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
