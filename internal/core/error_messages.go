package core

// error_messages.go maps technical errors to user-facing messages.
//
// Each message carries a code users can quote when reporting a problem:
//
//	FILE001  file not found            FILE002  file unreadable
//	FILE003  file too large            FILE004  file empty
//	PARSE001 malformed CSV             PARSE002 required column missing
//	PARSE003 header row missing
//	VAL001   quantity not a number     VAL002   quantity negative
//	VAL003   invalid form input
//	STORE001 store locked              STORE002 table missing
//	STORE003 store unreachable         STORE004 store failure
//	REQ001   cancelled                 REQ002   timed out
//	REQ003   another import running
//	ERR000   anything else
//
// Rules are checked in order and the first match wins. A rule matches when
// the error belongs to its category (errors.Is) and, if a pattern is set,
// the error text contains the pattern (case-insensitive).

import (
	"context"
	"errors"
	"io/fs"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorRule struct {
	category error  // nil matches any error
	pattern  string // "" matches any text
	msg      UserMessage
}

var errorRules = []errorRule{
	// Request lifecycle
	{category: context.Canceled, msg: UserMessage{
		Message: "The request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}},
	{category: context.DeadlineExceeded, msg: UserMessage{
		Message: "The operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "REQ002",
	}},
	{category: ErrImportBusy, msg: UserMessage{
		Message: "Another import is still running",
		Action:  "Wait for it to finish and try again",
		Code:    "REQ003",
	}},

	// File errors
	{category: fs.ErrNotExist, msg: UserMessage{
		Message: "The file could not be found",
		Action:  "Check the path and select the file again",
		Code:    "FILE001",
	}},
	{category: ErrFileTooLarge, msg: UserMessage{
		Message: "The file is too large",
		Action:  "Split the file into smaller parts",
		Code:    "FILE003",
	}},
	{category: ErrEmptyFile, msg: UserMessage{
		Message: "The file is empty",
		Action:  "Select a CSV file with a header row",
		Code:    "FILE004",
	}},
	{category: ErrFile, msg: UserMessage{
		Message: "The file could not be read or written",
		Action:  "Check that the file exists and you have permission to use it",
		Code:    "FILE002",
	}},

	// Parse errors
	{category: ErrMissingColumn, msg: UserMessage{
		Message: "A required column is missing from the CSV",
		Action:  "Check the header row of your file",
		Code:    "PARSE002",
	}},
	{category: ErrNoHeader, msg: UserMessage{
		Message: "The CSV has no header row",
		Action:  "Add a header row naming each column",
		Code:    "PARSE003",
	}},
	{category: ErrParse, msg: UserMessage{
		Message: "The file is not a valid CSV",
		Action:  "Ensure the file is comma-separated with properly quoted fields",
		Code:    "PARSE001",
	}},

	// Validation errors
	{category: ErrValidation, pattern: msgNotWholeNumber, msg: UserMessage{
		Message: "Invalid data entry. Check quantities",
		Action:  "Quantities must be whole numbers",
		Code:    "VAL001",
	}},
	{category: ErrValidation, pattern: msgNegative, msg: UserMessage{
		Message: "Invalid data entry. Check quantities",
		Action:  "Quantities cannot be negative",
		Code:    "VAL002",
	}},
	{category: ErrValidation, msg: UserMessage{
		Message: "Invalid data entry",
		Action:  "Review the highlighted fields",
		Code:    "VAL003",
	}},

	// Store errors
	{category: ErrStore, pattern: "database is locked", msg: UserMessage{
		Message: "The inventory file is in use by another program",
		Action:  "Close other copies of the tracker and try again",
		Code:    "STORE001",
	}},
	{category: ErrStore, pattern: "no such table", msg: UserMessage{
		Message: "The inventory table does not exist",
		Action:  "Initialize the store first",
		Code:    "STORE002",
	}},
	{category: ErrStore, pattern: "does not exist", msg: UserMessage{
		Message: "The inventory table does not exist",
		Action:  "Initialize the store first",
		Code:    "STORE002",
	}},
	{category: ErrStore, pattern: "connection refused", msg: UserMessage{
		Message: "Unable to connect to the store",
		Action:  "Please try again in a few moments",
		Code:    "STORE003",
	}},
	{category: ErrStore, pattern: "unable to open", msg: UserMessage{
		Message: "Unable to open the store",
		Action:  "Check the store path and its permissions",
		Code:    "STORE003",
	}},
	{category: ErrStore, msg: UserMessage{
		Message: "The store reported an error",
		Action:  "Please try again",
		Code:    "STORE004",
	}},
}

var defaultUserMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again",
	Code:    "ERR000",
}

// MapError converts a technical error into a user-friendly message.
// Returns the ERR000 message for unrecognized errors and a zero value for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	text := strings.ToLower(err.Error())
	for _, rule := range errorRules {
		if rule.category != nil && !errors.Is(err, rule.category) {
			continue
		}
		if rule.pattern != "" && !strings.Contains(text, strings.ToLower(rule.pattern)) {
			continue
		}
		return rule.msg
	}

	return defaultUserMessage
}

// FormatUserMessage renders a UserMessage as a single line.
func FormatUserMessage(msg UserMessage) string {
	if msg.Action == "" {
		return msg.Message + " (" + msg.Code + ")"
	}
	return msg.Message + ". " + msg.Action + " (" + msg.Code + ")"
}
