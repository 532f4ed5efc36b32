package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// Only failures that stop a run are mapped here. Data problems found inside a
// file are never errors; they are diagnostics carried in the report.
//
// Error codes are grouped by category:
//
// # Schema Errors (SCH001-SCH099)
//
// The schema document could not be compiled. No rows were processed.
//
//	SCH001 - Invalid pattern: A column format is not a valid regular expression
//	         Action: Fix the datatype format of the named column
//	         Patterns: "invalid pattern"
//
//	SCH002 - Unknown key column: The primary key names a column that does not exist
//	         Action: Make every primaryKey entry match a column name
//	         Patterns: "unknown primary key column"
//
//	SCH003 - Duplicate column: A column name is declared twice
//	         Action: Give every column a unique name
//	         Patterns: "duplicate column"
//
//	SCH004 - Unreadable schema: The schema document could not be read
//	         Action: Upload a CSVW schema as JSON or YAML
//	         Patterns: "invalid schema"
//
// # File Errors (FILE001-FILE099)
//
// Errors related to the uploaded data file:
//
//	FILE001 - File too large: File exceeds maximum size limit
//	          Action: Split the file into smaller files
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Unsupported format: The file type is not supported
//	          Action: Upload a .csv, .xlsx or .json file
//	          Patterns: "unsupported format"
//
//	FILE003 - Invalid rows: The JSON file is not a list of row objects
//	          Action: Provide an array of objects keyed by column name
//	          Patterns: "invalid json rows"
//
//	FILE004 - No file: No file was selected
//	          Action: Please select a data file to upload
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: The uploaded file has no header row
//	          Action: Upload a file with a header row and data rows
//	          Patterns: "empty file"
//
//	FILE006 - Unreadable workbook: The spreadsheet could not be opened
//	          Action: Save the workbook as .xlsx and try again
//	          Patterns: "invalid workbook"
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - System busy: Too many reports are being generated
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent reports"
//
//	RUN002 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	RUN003 - Request timeout: Request timed out
//	         Action: Try a smaller file or try again later
//	         Patterns: "context deadline exceeded"
//
//	RUN004 - Unknown output: The requested output format does not exist
//	         Action: Use json, xlsx or html
//	         Patterns: "unknown report format"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns are listed
// before general ones (every schema error also contains "invalid schema").

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// Order matters: the first match wins.
var errorPatterns = []errorPattern{
	// Schema errors
	{
		pattern: "invalid pattern",
		msg: UserMessage{
			Message: "A column format is not a valid regular expression",
			Action:  "Fix the datatype format of the named column",
			Code:    "SCH001",
		},
	},
	{
		pattern: "unknown primary key column",
		msg: UserMessage{
			Message: "The primary key names a column that does not exist",
			Action:  "Make every primaryKey entry match a column name",
			Code:    "SCH002",
		},
	},
	{
		pattern: "duplicate column",
		msg: UserMessage{
			Message: "A column name is declared twice",
			Action:  "Give every column a unique name",
			Code:    "SCH003",
		},
	},
	{
		pattern: "invalid schema",
		msg: UserMessage{
			Message: "The schema document could not be read",
			Action:  "Upload a CSVW schema as JSON or YAML",
			Code:    "SCH004",
		},
	},

	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported format",
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Upload a .csv, .xlsx or .json file",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid json rows",
		msg: UserMessage{
			Message: "The JSON file is not a list of row objects",
			Action:  "Provide an array of objects keyed by column name",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a data file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file has no header row",
			Action:  "Upload a file with a header row and data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "invalid workbook",
		msg: UserMessage{
			Message: "The spreadsheet could not be opened",
			Action:  "Save the workbook as .xlsx and try again",
			Code:    "FILE006",
		},
	},

	// Run errors
	{
		pattern: "too many concurrent reports",
		msg: UserMessage{
			Message: "Too many reports are being generated",
			Action:  "Please wait a moment and try again",
			Code:    "RUN001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "RUN002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "RUN003",
		},
	},
	{
		pattern: "unknown report format",
		msg: UserMessage{
			Message: "The requested output format does not exist",
			Action:  "Use json, xlsx or html",
			Code:    "RUN004",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
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

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
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

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
