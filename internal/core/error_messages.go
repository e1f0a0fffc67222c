package core

// Error codes reference
//
// Batch rejections and file failures are logged with a short support code so an
// operator can tell a schema drift from a network hiccup without reading the raw
// driver message. Codes are grouped by category:
//
//	DB001-DB099   database constraints and connectivity
//	VAL001-VAL099 values the destination refused
//	API001-API099 REST endpoint responses
//	FILE001-FILE099 spreadsheet reading
//	ERR000        nothing matched; check the logged technical error
//
// Patterns are matched case-insensitively with strings.Contains and the first match
// wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage is the operator-facing description of an error.
type UserMessage struct {
	Message string // What went wrong
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Database constraints (DB001-DB003)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A row with this key already exists",
			Action:  "Set UPLOAD_HASH_COLUMN to skip rows that were already loaded",
			Code:    "DB001",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Review the consolidated data for repeated rows",
			Code:    "DB002",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Review the consolidated data for repeated rows",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates not-null",
		msg: UserMessage{
			Message: "A required column is empty",
			Action:  "Check the source spreadsheets for missing values",
			Code:    "DB003",
		},
	},

	// =========================================================================
	// Database connectivity (DB004-DB007)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the database",
			Action:  "Check SUPABASE_URL or SINK_DSN and try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Run the upload again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Lower UPLOAD_BATCH_SIZE or raise SINK_TIMEOUT",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Run the upload again",
			Code:    "DB007",
		},
	},

	// =========================================================================
	// Value errors (VAL001-VAL004)
	// =========================================================================
	{
		pattern: "invalid input syntax",
		msg: UserMessage{
			Message: "A value does not match the column type",
			Action:  "Check the destination column types against the remapped data",
			Code:    "VAL001",
		},
	},
	{
		pattern: "value too long",
		msg: UserMessage{
			Message: "A text value is longer than the column allows",
			Action:  "Widen the column or trim the source value",
			Code:    "VAL002",
		},
	},
	{
		pattern: "out of range",
		msg: UserMessage{
			Message: "A number is out of range for its column",
			Action:  "Check numeric columns such as vagas for misplaced values",
			Code:    "VAL003",
		},
	},
	{
		pattern: "column",
		msg: UserMessage{
			Message: "The destination does not have one of the uploaded columns",
			Action:  "Apply the pending migrations or check the header mapping",
			Code:    "VAL004",
		},
	},

	// =========================================================================
	// REST endpoint (API001-API005)
	// =========================================================================
	{
		pattern: "status 401",
		msg: UserMessage{
			Message: "The API key was rejected",
			Action:  "Check SUPABASE_SERVICE_ROLE_KEY",
			Code:    "API001",
		},
	},
	{
		pattern: "status 403",
		msg: UserMessage{
			Message: "The API key is not allowed to write this table",
			Action:  "Use the service role key or adjust row level security",
			Code:    "API002",
		},
	},
	{
		pattern: "status 404",
		msg: UserMessage{
			Message: "The destination table or function does not exist",
			Action:  "Run the migrate command first",
			Code:    "API003",
		},
	},
	{
		pattern: "status 413",
		msg: UserMessage{
			Message: "The batch is too large for the endpoint",
			Action:  "Lower UPLOAD_BATCH_SIZE",
			Code:    "API004",
		},
	},
	{
		pattern: "status 429",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Wait a moment before running the upload again",
			Code:    "API005",
		},
	},

	// =========================================================================
	// Spreadsheet reading (FILE001-FILE003)
	// =========================================================================
	{
		pattern: "unsupported file",
		msg: UserMessage{
			Message: "The file type is not supported",
			Action:  "Export the sheet as .xlsx",
			Code:    "FILE001",
		},
	},
	{
		pattern: "zip: not a valid zip file",
		msg: UserMessage{
			Message: "The workbook is corrupted or not really an .xlsx file",
			Action:  "Open and save the file again in a spreadsheet editor",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save the file as UTF-8",
			Code:    "FILE003",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logged error for details",
	Code:    "ERR000",
}

// MapError converts a technical error to an operator-facing message.
// If no pattern matches, a generic message with code ERR000 is returned.
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

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched a specific pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
