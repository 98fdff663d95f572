// Package errors provides standardized error types and helpers for the tamarack codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrCorrupt indicates the database file violates the on-disk format
	ErrCorrupt = errors.New("corrupt database")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
)

// Sentinel errors for specific format violations. Each is wrapped by a
// CorruptError that adds page/offset context, so callers can test for the
// kind with errors.Is and still read the position from the CorruptError.
var (
	// ErrBadMagic indicates the 16-byte file header magic is wrong
	ErrBadMagic = errors.New("bad magic string")
	// ErrMalformedVarint indicates a varint ran out of bytes before terminating
	ErrMalformedVarint = errors.New("malformed varint")
	// ErrUnknownPageType indicates a page-type byte outside {2, 5, 10, 13}
	ErrUnknownPageType = errors.New("unknown page type")
	// ErrInvalidSerialType indicates a serial-type code outside the format's table
	ErrInvalidSerialType = errors.New("invalid serial type")
	// ErrReservedSerialType indicates serial type 10 or 11
	ErrReservedSerialType = errors.New("reserved serial type")
	// ErrTruncatedRecord indicates a record read past its declared boundary
	ErrTruncatedRecord = errors.New("truncated record")
	// ErrInvalidText indicates TEXT bytes that are not valid UTF-8
	ErrInvalidText = errors.New("invalid text encoding")
)

// Sentinel errors for failed lookups. Each is wrapped by a NotFoundError,
// so callers can tell a missing table from a missing column with errors.Is.
var (
	// ErrTableNotFound indicates a table name that resolves to no catalog entry
	ErrTableNotFound = errors.New("table not found")
	// ErrColumnNotFound indicates a column name missing from a table's definition
	ErrColumnNotFound = errors.New("column not found")
)

// CorruptError represents a format violation with file position context.
// Every decode failure is reported through one of these so the page number
// and byte offset survive to the user-facing message.
type CorruptError struct {
	Page   uint32 // Page number (1-based), 0 if not page-scoped
	Offset int64  // Byte offset within the page (or file, when Page is 0), -1 if unknown
	Detail string // Human-readable description of the violation
	Err    error  // Underlying error, usually one of the format sentinels
}

func (e *CorruptError) Error() string {
	pos := ""
	switch {
	case e.Page != 0 && e.Offset >= 0:
		pos = fmt.Sprintf(" (page %d, offset %d)", e.Page, e.Offset)
	case e.Page != 0:
		pos = fmt.Sprintf(" (page %d)", e.Page)
	case e.Offset >= 0:
		pos = fmt.Sprintf(" (offset %d)", e.Offset)
	}
	if e.Err != nil {
		return fmt.Sprintf("corrupt database%s: %s: %v", pos, e.Detail, e.Err)
	}
	return fmt.Sprintf("corrupt database%s: %s", pos, e.Detail)
}

func (e *CorruptError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrCorrupt
}

// Is matches the category sentinel even when Err carries a kind sentinel,
// so errors.Is(err, ErrCorrupt) holds for every CorruptError.
func (e *CorruptError) Is(target error) bool {
	return target == ErrCorrupt
}

// NotFoundError represents a failed lookup with context. These are
// user-facing query errors, never corruption.
type NotFoundError struct {
	Resource string // Type of resource (e.g., "table", "column")
	Name     string // Name that failed to resolve
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.Name)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// UnsupportedError represents a feature the reader deliberately refuses,
// such as overflow-page payloads or query text outside the closed grammar.
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

// IOError represents an I/O operation error with file position context.
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "open", "stat")
	Path      string // File path involved
	Offset    int64  // File offset of the failed operation, -1 if not applicable
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" && e.Offset >= 0 {
		return fmt.Sprintf("failed to %s %s at offset %d: %v", e.Operation, e.Path, e.Offset, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for creating common errors

// NewCorrupt creates a CorruptError. kind should be one of the format
// sentinels (ErrMalformedVarint, ErrTruncatedRecord, ...) or an already
// wrapped decode error; it may be nil for generic structural violations.
func NewCorrupt(page uint32, offset int64, detail string, kind error) *CorruptError {
	return &CorruptError{
		Page:   page,
		Offset: offset,
		Detail: detail,
		Err:    kind,
	}
}

// NewNotFound creates a NotFoundError. Table and column lookups carry
// their own kind sentinel so callers can tell them apart with errors.Is.
func NewNotFound(resource, name string) *NotFoundError {
	e := &NotFoundError{
		Resource: resource,
		Name:     name,
	}
	switch resource {
	case "table":
		e.Err = ErrTableNotFound
	case "column":
		e.Err = ErrColumnNotFound
	}
	return e
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, offset int64, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Offset:    offset,
		Err:       err,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
