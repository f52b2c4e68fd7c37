package core

// error_messages.go maps technical errors to user-facing messages with a
// support code.
//
// Codes by category:
//
//	RES001  Resource not found
//	RES002  Resource is missing url, login or password
//	FILE001 Import payload too large
//	FILE003 Import payload is not valid UTF-8
//	FILE004 No import payload provided
//	DB001   Storage unavailable (connection refused/reset, breaker open)
//	DB002   Storage timed out
//	DB000   Any other storage failure
//	UPL002  Too many imports in progress
//	UPL004  Request cancelled
//	UPL005  Request timed out
//	RATE001 Rate limited
//	REQ001  Request body is not valid JSON
//	REQ002  Required request field missing
//	ERR000  Fallback
//
// Known sentinels are matched with errors.Is first; anything else falls back
// to case-insensitive substring patterns, first match wins.

import (
	"context"
	"errors"
	"strings"
)

// UserMessage is a user-friendly error description.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

var (
	msgNotFound = UserMessage{
		Message: "Resource not found",
		Action:  "Refresh the list; it may have been deleted",
		Code:    "RES001",
	}
	msgInvalidResource = UserMessage{
		Message: "URL, login and password are all required",
		Action:  "Fill in every field and try again",
		Code:    "RES002",
	}
	msgEncoding = UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save the file as UTF-8 text",
		Code:    "FILE003",
	}
	msgBusy = UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgDeadline = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}
	msgStorage = UserMessage{
		Message: "Could not save changes",
		Action:  "Please try again; an import may have been partially saved",
		Code:    "DB000",
	}
)

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are checked in order against the lowercased error text.
// Storage-specific patterns must precede the generic storage fallback.
var errorPatterns = []errorPattern{
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB001",
		},
	},
	{
		pattern: "circuit breaker is open",
		msg: UserMessage{
			Message: "Database is temporarily unavailable",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Database operation timed out",
			Action:  "Please try again later",
			Code:    "DB002",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum import size",
			Action:  "Split the file into smaller parts",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was provided",
			Action:  "Select a text file to import",
			Code:    "FILE004",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "invalid json",
		msg: UserMessage{
			Message: "Request body is not valid JSON",
			Action:  "Check the request format",
			Code:    "REQ001",
		},
	},
	{
		pattern: "is required",
		msg: UserMessage{
			Message: "A required field is missing",
			Action:  "Include every required field",
			Code:    "REQ002",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return msgNotFound
	case errors.Is(err, ErrInvalidResource):
		return msgInvalidResource
	case errors.Is(err, ErrEncoding):
		return msgEncoding
	case errors.Is(err, ErrTooManyImports):
		return msgBusy
	case errors.Is(err, context.Canceled):
		return msgCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return msgDeadline
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	if errors.Is(err, ErrStorage) {
		return msgStorage
	}
	return defaultMessage
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
