package core

// # Error Codes Reference
//
// User-facing errors carry a code that support staff can look up here.
// Sentinel errors are matched first with errors.Is; anything else is matched
// case-insensitively against technical message patterns from the stores.
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - System busy: Too many imports in progress
//	         Action: Please wait a moment and try again
//	IMP002 - Unknown source: The import source is not registered
//	         Action: Use one of the sources listed by GET /api/sources
//	IMP003 - Order not saved: The store accepted the write but returned nothing
//	         Action: Re-run the import; unchanged rows are skipped
//	IMP004 - Invalid tenant: Tenant id is not a UUID
//	         Action: Check the tenant id in the request path
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds maximum size limit
//	FILE002 - Invalid CSV: File could not be parsed as CSV
//	FILE004 - No file: No file was provided
//	FILE005 - Empty file: The file has no rows
//	FILE006 - No header: No row looks like an order export header
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: An order with this external id already exists
//	DB004 - Connection refused: Unable to connect to database
//	DB005 - Connection reset: Database connection was interrupted
//	DB006 - Timeout: Operation timed out
//	DB007 - Busy: Database was busy with conflicting operations
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	REQ002 - Request timeout
//	REQ003 - Invalid request body
//	RATE001 - Rate limited: Too many requests
//
// # Default Error (ERR000)
//
// ERR000 is the fallback when nothing matches; check the application logs for
// the technical error, which is always logged alongside the code.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidTenant is returned when a tenant id cannot be parsed.
	ErrInvalidTenant = errors.New("invalid tenant id")
	// ErrFileTooLarge is returned when an import exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrNoFile is returned when an import request carries no file.
	ErrNoFile = errors.New("no file provided")
	// ErrInvalidRequest is returned for malformed request bodies.
	ErrInvalidRequest = errors.New("invalid request body")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// sentinelMessages maps sentinel errors to user messages. Checked in order.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrTooManyImports, UserMessage{"Too many imports in progress", "Please wait a moment and try again", "IMP001"}},
	{ErrUnknownSource, UserMessage{"The import source is not registered", "Use one of the sources listed by GET /api/sources", "IMP002"}},
	{ErrNotPersisted, UserMessage{"The order could not be saved", "Re-run the import; unchanged rows are skipped", "IMP003"}},
	{ErrInvalidTenant, UserMessage{"The tenant id is not valid", "Check the tenant id in the request path", "IMP004"}},
	{ErrFileTooLarge, UserMessage{"File exceeds maximum size limit", "Split the export into smaller files", "FILE001"}},
	{ErrNoFile, UserMessage{"No file was provided", "Attach a CSV export in the 'file' field", "FILE004"}},
	{ErrEmptyFile, UserMessage{"The file has no rows", "Export the report again with data rows", "FILE005"}},
	{ErrHeaderNotFound, UserMessage{"No order export header was found", "Check the source or add header aliases to the header map file", "FILE006"}},
	{ErrInvalidRequest, UserMessage{"The request body is not valid", "Send JSON with a 'rows' array or a multipart CSV upload", "REQ003"}},
	{context.Canceled, UserMessage{"Request was cancelled", "Please try again", "REQ001"}},
	{context.DeadlineExceeded, UserMessage{"Request timed out", "Try a smaller file or try again later", "REQ002"}},
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so more specific patterns come first.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"duplicate key", UserMessage{"An order with this external id already exists", "Re-run the import; existing orders are updated", "DB001"}},
	{"unique constraint", UserMessage{"An order with this external id already exists", "Re-run the import; existing orders are updated", "DB001"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller file or try again later", "DB006"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},
	{"database is locked", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},
	{"parse csv", UserMessage{"File could not be parsed as CSV", "Save the export as CSV with one header row", "FILE002"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
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

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with its user-facing message.
// Error returns the friendly text; Unwrap exposes the original.
type UserError struct {
	UserMessage
	Err error
}

// NewUserError wraps err, or returns nil for a nil err.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{UserMessage: MapError(err), Err: err}
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Err }
