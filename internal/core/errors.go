package core

import (
	"fmt"
)

// ErrorKind classifies a parse failure.
type ErrorKind int

const (
	KindInvalidFileFormat ErrorKind = iota + 1
	KindMissingRequiredHeader
	KindUnknownVariable
	KindMissingRequiredVariable
	KindMalformedDataSection
	KindDataTypeError
	KindIO
	KindDictionaryParse
	KindInvalidHeaderFormat
	KindEmptyDataSection
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidFileFormat:
		return "invalid_file_format"
	case KindMissingRequiredHeader:
		return "missing_required_header"
	case KindUnknownVariable:
		return "unknown_variable"
	case KindMissingRequiredVariable:
		return "missing_required_variable"
	case KindMalformedDataSection:
		return "malformed_data_section"
	case KindDataTypeError:
		return "data_type_error"
	case KindIO:
		return "io"
	case KindDictionaryParse:
		return "dictionary_parse"
	case KindInvalidHeaderFormat:
		return "invalid_header_format"
	case KindEmptyDataSection:
		return "empty_data_section"
	default:
		return "unknown"
	}
}

// ParseError is returned for every failure in the parsing pipeline.
// Only the fields relevant to Kind are set.
//
// KindUnknownVariable, KindMalformedDataSection and KindDataTypeError are
// never produced by the pipeline: short/long rows are padded or truncated and
// unconvertible columns fall back to text. They remain so callers can
// classify errors from other producers uniformly.
type ParseError struct {
	Kind         ErrorKind
	Field        string // MissingRequiredHeader
	Variable     string // MissingRequiredVariable, UnknownVariable, DataTypeError
	Config       string // MissingRequiredVariable
	Device       string // InvalidFileFormat
	Message      string // InvalidHeaderFormat
	Expected     int    // MalformedDataSection
	Found        int    // MalformedDataSection
	Value        string // DataTypeError
	ExpectedType string // DataTypeError
	Err          error  // IO, DictionaryParse
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case KindInvalidFileFormat:
		return fmt.Sprintf("invalid file format for device %s", e.Device)
	case KindMissingRequiredHeader:
		return fmt.Sprintf("missing required header field: %s", e.Field)
	case KindUnknownVariable:
		return fmt.Sprintf("unknown variable: %s", e.Variable)
	case KindMissingRequiredVariable:
		return fmt.Sprintf("missing required variable %q for config %q", e.Variable, e.Config)
	case KindMalformedDataSection:
		return fmt.Sprintf("malformed data section: expected %d columns, found %d", e.Expected, e.Found)
	case KindDataTypeError:
		return fmt.Sprintf("data type error for variable %q: cannot convert %q to %s", e.Variable, e.Value, e.ExpectedType)
	case KindIO:
		return fmt.Sprintf("io error: %v", e.Err)
	case KindDictionaryParse:
		return fmt.Sprintf("dictionary parse error: %v", e.Err)
	case KindInvalidHeaderFormat:
		return fmt.Sprintf("invalid header format: %s", e.Message)
	case KindEmptyDataSection:
		return "empty or invalid data section"
	default:
		return "parse error"
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is matches any *ParseError with the same Kind, so the sentinels below
// work with errors.Is regardless of the detail fields.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidFileFormat       = &ParseError{Kind: KindInvalidFileFormat}
	ErrMissingRequiredHeader   = &ParseError{Kind: KindMissingRequiredHeader}
	ErrUnknownVariable         = &ParseError{Kind: KindUnknownVariable}
	ErrMissingRequiredVariable = &ParseError{Kind: KindMissingRequiredVariable}
	ErrMalformedDataSection    = &ParseError{Kind: KindMalformedDataSection}
	ErrDataTypeError           = &ParseError{Kind: KindDataTypeError}
	ErrIO                      = &ParseError{Kind: KindIO}
	ErrDictionaryParse         = &ParseError{Kind: KindDictionaryParse}
	ErrInvalidHeaderFormat     = &ParseError{Kind: KindInvalidHeaderFormat}
	ErrEmptyDataSection        = &ParseError{Kind: KindEmptyDataSection}
)

func errMissingHeader(field string) error {
	return &ParseError{Kind: KindMissingRequiredHeader, Field: field}
}

func errInvalidFormat(device string) error {
	return &ParseError{Kind: KindInvalidFileFormat, Device: device}
}

func errHeaderFormat(msg string) error {
	return &ParseError{Kind: KindInvalidHeaderFormat, Message: msg}
}

func errEmptyData() error {
	return &ParseError{Kind: KindEmptyDataSection}
}

// IOError wraps an I/O failure as a ParseError.
func IOError(err error) error {
	return &ParseError{Kind: KindIO, Err: err}
}

// DictionaryError wraps a dictionary decoding failure as a ParseError.
func DictionaryError(err error) error {
	return &ParseError{Kind: KindDictionaryParse, Err: err}
}
