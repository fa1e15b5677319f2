package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. The CLI prints the code next to each failed file and the HTTP
// API returns it in the error body.
//
// # Header Errors (HDR001-HDR099)
//
//	HDR001 - Missing header field: a key the device always writes is absent
//	HDR002 - Wrong device: the console version does not match the device
//	HDR003 - Bad section markers: [Header] or [Data] missing or out of order
//
// # Variable Errors (VAR001-VAR099)
//
//	VAR001 - Missing variable: a column required by the configuration is absent
//	VAR002 - Unknown variable
//
// # Data Errors (DATA001-DATA099)
//
//	DATA001 - Empty data section: fewer than three header rows or no data rows
//	DATA002 - Malformed data section
//	DATA003 - Type error
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Read error
//
// # Server Errors (SRV001)
//
//	SRV001 - Busy: every parse slot stayed taken for the wait timeout
//
// # Dictionary Errors (DICT001)
//
//	DICT001 - Dictionary could not be parsed
//
// # Default Error (ERR000)
//
// Fallback for errors that are not a *ParseError and match no known pattern.

import (
	"errors"
	"fmt"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var kindMessages = map[ErrorKind]UserMessage{
	KindMissingRequiredHeader: {
		Message: "A required header field is missing",
		Action:  "Check that the file was exported unmodified from the console",
		Code:    "HDR001",
	},
	KindInvalidFileFormat: {
		Message: "The file was not written by the selected device",
		Action:  "Check the --device option against the instrument that produced the file",
		Code:    "HDR002",
	},
	KindInvalidHeaderFormat: {
		Message: "The [Header] or [Data] section marker is missing or out of order",
		Action:  "Make sure the file is a complete log file and not an excerpt",
		Code:    "HDR003",
	},
	KindMissingRequiredVariable: {
		Message: "A column required by the measurement configuration is missing",
		Action:  "Check the --config option or enable the missing variable on the console",
		Code:    "VAR001",
	},
	KindUnknownVariable: {
		Message: "The file contains an unknown variable",
		Action:  "Add the variable to the dictionary",
		Code:    "VAR002",
	},
	KindEmptyDataSection: {
		Message: "The data section is empty",
		Action:  "Log at least one observation before exporting the file",
		Code:    "DATA001",
	},
	KindMalformedDataSection: {
		Message: "The data section has an inconsistent number of columns",
		Action:  "Re-export the file from the console",
		Code:    "DATA002",
	},
	KindDataTypeError: {
		Message: "A value could not be converted to its variable's type",
		Action:  "Check the value in the file",
		Code:    "DATA003",
	},
	KindIO: {
		Message: "The file could not be read",
		Action:  "Check that the file exists and is readable",
		Code:    "FILE002",
	},
	KindDictionaryParse: {
		Message: "The variable dictionary could not be parsed",
		Action:  "Fix the dictionary file or unset LICOR_DICTIONARY to use the built-in one",
		Code:    "DICT001",
	},
}

var fileTooLargeMessage = UserMessage{
	Message: "File exceeds the maximum size limit",
	Action:  "Raise LICOR_MAX_FILE_SIZE or split the log",
	Code:    "FILE001",
}

var tooManyParsesMessage = UserMessage{
	Message: "The server is busy parsing other files",
	Action:  "Wait a moment and retry",
	Code:    "SRV001",
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
// Parse errors are mapped by kind; a file size overrun wins over the IO
// kind that wraps it.
//
// Example:
//
//	msg := MapError(err)
//	// msg.Code == "HDR001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if errors.Is(err, ErrFileTooLarge) {
		return fileTooLargeMessage
	}
	if errors.Is(err, ErrTooManyParses) {
		return tooManyParsesMessage
	}

	var pe *ParseError
	if errors.As(err, &pe) {
		if msg, ok := kindMessages[pe.Kind]; ok {
			return msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// Error returns the user message; Unwrap returns the original for logging.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil for a nil error.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
