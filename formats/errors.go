package formats

import (
	"fmt"
	"strings"
)

// DetectionError reports that no registered handler claimed a file.
type DetectionError struct {
	Path      string
	Attempted []string
}

// Error implements the error interface
func (e *DetectionError) Error() string {
	return fmt.Sprintf(
		"could not detect file format of %s (tried: %s); pass an explicit format name",
		e.Path, strings.Join(e.Attempted, ", "))
}

// ParseError reports that a handler matched a file but could not
// locate or structure its data block.
type ParseError struct {
	Format  string
	Path    string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: failed to parse %s: %s: %v", e.Format, e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: failed to parse %s: %s", e.Format, e.Path, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the cause
func (e *ParseError) Unwrap() error {
	return e.Cause
}

func newParseError(format, path, message string, cause error) *ParseError {
	return &ParseError{Format: format, Path: path, Message: message, Cause: cause}
}

// EncodingError reports that none of the supported text encodings
// decoded a file.
type EncodingError struct {
	Path      string
	Attempted []string
}

// Error implements the error interface
func (e *EncodingError) Error() string {
	return fmt.Sprintf("could not decode %s: tried encodings %s",
		e.Path, strings.Join(e.Attempted, ", "))
}
