// Package core holds the country profile model, the dataset loader, the
// compatibility evaluator and the read-only reference catalog.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Codes are grouped by category:
//
// # Dataset Errors (DATA001-DATA099)
//
//	DATA001 - Dataset unavailable: Country data could not be loaded
//	          Action: Run fetchdata to rebuild the reference dataset
//	          Patterns: "dataset unavailable"
//
//	DATA002 - Fetch failed: The raw dataset could not be downloaded
//	          Action: Check the source URL and network, then re-run fetchdata
//	          Patterns: "fetch dataset"
//
//	DATA003 - Bad artifact: The reference dataset file is not valid JSON
//	          Action: Delete the file and re-run fetchdata
//	          Patterns: "decode artifact"
//
//	DATA004 - Timeout: Loading the dataset took too long
//	          Action: Please try again later
//	          Patterns: "context deadline exceeded"
//
// # Store Errors (STORE001-STORE099)
//
//	STORE001 - Database unreachable: Unable to connect to database
//	           Action: Please try again in a few moments
//	           Patterns: "connection refused"
//
// # Selection Errors (SEL001-SEL099)
//
//	SEL001 - Country not found: No country with that name
//	         Action: Pick a country from the list
//	         Patterns: "country not found"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Missing parameter: A required query parameter is empty
//	         Action: Provide both home and destination countries
//	         Patterns: "missing parameter"
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
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.
package core

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	// ErrDatasetUnavailable is returned when the reference catalog can't be built.
	ErrDatasetUnavailable = errors.New("dataset unavailable")

	// ErrCountryNotFound is returned by lookups that require a known country.
	ErrCountryNotFound = errors.New("country not found")

	// ErrMissingParameter is returned when a request omits a required value.
	ErrMissingParameter = errors.New("missing parameter")
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

var errorPatterns = []errorPattern{
	// =========================================================================
	// Dataset Errors (DATA001-DATA004)
	// =========================================================================
	{
		pattern: "dataset unavailable",
		msg: UserMessage{
			Message: "Country data could not be loaded",
			Action:  "Run fetchdata to rebuild the reference dataset",
			Code:    "DATA001",
		},
	},
	{
		pattern: "fetch dataset",
		msg: UserMessage{
			Message: "The raw dataset could not be downloaded",
			Action:  "Check the source URL and network, then re-run fetchdata",
			Code:    "DATA002",
		},
	},
	{
		pattern: "decode artifact",
		msg: UserMessage{
			Message: "The reference dataset file is not valid JSON",
			Action:  "Delete the file and re-run fetchdata",
			Code:    "DATA003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Loading the dataset took too long",
			Action:  "Please try again later",
			Code:    "DATA004",
		},
	},

	// =========================================================================
	// Store Errors (STORE001)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "STORE001",
		},
	},

	// =========================================================================
	// Selection and Request Errors (SEL001, REQ001)
	// =========================================================================
	{
		pattern: "country not found",
		msg: UserMessage{
			Message: "No country with that name",
			Action:  "Pick a country from the list",
			Code:    "SEL001",
		},
	},
	{
		pattern: "missing parameter",
		msg: UserMessage{
			Message: "A required query parameter is empty",
			Action:  "Provide both home and destination countries",
			Code:    "REQ001",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
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
// It returns the first matching pattern, or the ERR000 fallback.
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

// IsUserFacing reports whether err matches a known pattern (not ERR000).
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging.
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

// LogValue logs the code and action next to the technical cause.
func (e *UserError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("code", e.User.Code),
		slog.String("message", e.User.Message),
		slog.String("action", e.User.Action),
		slog.String("cause", e.Technical.Error()),
	)
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
