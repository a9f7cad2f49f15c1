package main

import (
	"fmt"
	"strings"

	"github.com/fireside-db/fireside/fireside"
)

// CLIError represents a user-friendly CLI error with context and suggestions
type CLIError struct {
	Operation   string   // The operation that failed (e.g., "create document", "list collections")
	Cause       string   // The underlying cause (e.g., "document not found")
	Details     string   // Additional technical details
	Suggestions []string // Helpful suggestions for the user
	Underlying  error    // Original error for debugging
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var msg strings.Builder

	if e.Operation != "" {
		msg.WriteString(fmt.Sprintf("Failed to %s", e.Operation))
	} else {
		msg.WriteString("Operation failed")
	}

	if e.Cause != "" {
		msg.WriteString(fmt.Sprintf(": %s", e.Cause))
	}

	if e.Details != "" {
		msg.WriteString(fmt.Sprintf(" (%s)", e.Details))
	}

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			msg.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return msg.String()
}

// Unwrap returns the underlying error for error chain compatibility
func (e *CLIError) Unwrap() error {
	return e.Underlying
}

// NewNotFoundError creates an error for missing resources
func NewNotFoundError(operation, resource, id string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("%s %q not found", resource, id),
		Suggestions: suggestions,
	}
}

// NewConfigError creates an error for configuration issues
func NewConfigError(operation, issue string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("configuration error: %s", issue),
		Suggestions: suggestions,
	}
}

// NewInputError creates an error for invalid user input
func NewInputError(operation, issue string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       issue,
		Suggestions: suggestions,
	}
}

// NewStoreError wraps a client library error with user-facing context
// and suggestions keyed off the error taxonomy.
func NewStoreError(operation string, underlying error, suggestions ...string) *CLIError {
	cause := "store operation failed"
	details := ""

	if underlying != nil {
		details = underlying.Error()

		switch {
		case fireside.IsNotFound(underlying):
			cause = "resource not found"
			if len(suggestions) == 0 {
				suggestions = []string{
					"Check the collection and document ID",
					"Run 'fireside collections list' to see known collections",
				}
			}
		case fireside.IsAuthError(underlying):
			cause = "the store rejected the credentials"
			if len(suggestions) == 0 {
				suggestions = []string{
					"Check FIRESIDE_API_KEY or --api-key",
					"Check that the key is enabled for this project",
				}
			}
		case strings.Contains(strings.ToLower(details), "connection refused"),
			strings.Contains(strings.ToLower(details), "no such host"):
			cause = "could not reach the store"
			if len(suggestions) == 0 {
				suggestions = []string{
					"Check the network connection",
					"Check --endpoint if one is configured",
				}
			}
		}
	}

	return &CLIError{
		Operation:   operation,
		Cause:       cause,
		Details:     details,
		Suggestions: suggestions,
		Underlying:  underlying,
	}
}
