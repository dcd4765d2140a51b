// Package core provides the business logic for spreadsheet-backed tables.
//
// # Error Codes Reference
//
// This file maps technical errors to user-friendly messages with codes for
// support reference. Typed errors are classified first; remote failures are
// then refined by matching their text.
//
// # Row and Table Errors (ROW001-ROW099)
//
//	ROW001 - Not found: No record with this id exists
//	         Action: Refresh the list; the record may have been deleted
//	ROW002 - Unknown table: The table is not configured
//	         Action: Verify the table name is correct
//	ROW003 - Unknown view: The view is not configured
//	         Action: Verify the view name is correct
//
// # Schema and Validation Errors
//
//	SCH001 - Schema error: The sheet has no usable header row
//	         Action: Restore the header row of the sheet
//	VAL001 - Required field: A required field is empty
//	         Action: Fill in every required field and try again
//
// # Remote Store Errors (RIO001-RIO099)
//
//	RIO001 - Unauthorized: The remote store rejected the credentials
//	         Patterns: "401", "403", "unauthorized", "not authenticated", "invalid_grant"
//	RIO002 - Quota: The remote store is rate limiting requests
//	         Patterns: "429", "quota", "rate limit"
//	RIO003 - Timeout: The remote store did not answer in time
//	         Patterns: "timeout", "deadline exceeded"
//	RIO004 - Unavailable: The remote store could not be reached
//	         Fallback for any other RemoteIOError
//
// # Cascade Errors
//
//	CAS001 - Partial cascade: Some related records could not be deleted
//	         Action: Review related tables for leftover records
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
package core

import (
	"errors"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	patterns []string
	msg      UserMessage
}

// remotePatterns refine remote failures by their text. The first matching
// entry wins, so more specific patterns come first.
var remotePatterns = []errorPattern{
	{
		patterns: []string{"401", "403", "unauthorized", "not authenticated", "invalid_grant"},
		msg: UserMessage{
			Message: "The remote store rejected the credentials",
			Action:  "Sign in again to refresh access",
			Code:    "RIO001",
		},
	},
	{
		patterns: []string{"429", "quota", "rate limit"},
		msg: UserMessage{
			Message: "The remote store is limiting requests",
			Action:  "Wait a minute and try again",
			Code:    "RIO002",
		},
	},
	{
		patterns: []string{"timeout", "deadline exceeded"},
		msg: UserMessage{
			Message: "The remote store did not answer in time",
			Action:  "Please try again",
			Code:    "RIO003",
		},
	},
}

var (
	msgNotFound = UserMessage{
		Message: "No record with this id exists",
		Action:  "Refresh the list; the record may have been deleted",
		Code:    "ROW001",
	}
	msgUnknownTable = UserMessage{
		Message: "The table is not configured",
		Action:  "Verify the table name is correct",
		Code:    "ROW002",
	}
	msgUnknownView = UserMessage{
		Message: "The view is not configured",
		Action:  "Verify the view name is correct",
		Code:    "ROW003",
	}
	msgSchema = UserMessage{
		Message: "The sheet has no usable header row",
		Action:  "Restore the header row of the sheet",
		Code:    "SCH001",
	}
	msgValidation = UserMessage{
		Message: "A required field is empty",
		Action:  "Fill in every required field and try again",
		Code:    "VAL001",
	}
	msgRemote = UserMessage{
		Message: "The remote store could not be reached",
		Action:  "Please try again in a few moments",
		Code:    "RIO004",
	}
	msgPartialCascade = UserMessage{
		Message: "Some related records could not be deleted",
		Action:  "Review related tables for leftover records",
		Code:    "CAS001",
	}
	msgDefault = UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again or contact support",
		Code:    "ERR000",
	}
)

// MapError converts a technical error to a user-friendly message.
// Returns the default message if no classification applies.
func MapError(err error) UserMessage {
	if err == nil {
		return msgDefault
	}

	var (
		validation *ValidationError
		schema     *SchemaError
		partial    *PartialCascadeError
		rio        *RemoteIOError
	)

	switch {
	case errors.Is(err, ErrNotFound):
		return msgNotFound
	case errors.Is(err, ErrUnknownTable):
		return msgUnknownTable
	case errors.Is(err, ErrUnknownView):
		return msgUnknownView
	case errors.As(err, &validation):
		msg := msgValidation
		msg.Message = "Required field is empty: " + strings.Join(validation.Fields, ", ")
		return msg
	case errors.As(err, &schema):
		return msgSchema
	case errors.As(err, &partial):
		return msgPartialCascade
	case errors.As(err, &rio):
		return matchRemote(rio.Err)
	}

	// Untyped errors may still come from a remote client.
	if msg, ok := matchPattern(err); ok {
		return msg
	}
	return msgDefault
}

func matchRemote(err error) UserMessage {
	if msg, ok := matchPattern(err); ok {
		return msg
	}
	return msgRemote
}

func matchPattern(err error) (UserMessage, bool) {
	if err == nil {
		return UserMessage{}, false
	}
	text := strings.ToLower(err.Error())
	for _, ep := range remotePatterns {
		for _, p := range ep.patterns {
			if strings.Contains(text, p) {
				return ep.msg, true
			}
		}
	}
	return UserMessage{}, false
}
