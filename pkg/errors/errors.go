// Package errors provides custom error types for the gacetas catalog.
// These errors enable programmatic error checking across the catalog
// store, the persistence adapters, and the HTTP surface, where each
// failure class maps to a distinct user-visible outcome.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's chain matches target.
// It's an alias for the standard library errors.Is for convenience.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// It's an alias for the standard library errors.As for convenience.
var As = errors.As

// Common sentinel errors for the gacetas catalog
var (
	// ErrNotFound indicates that a requested record was not found
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates that provided input was invalid
	ErrValidation = errors.New("invalid input")

	// ErrConflict indicates a uniqueness or referential violation
	ErrConflict = errors.New("conflict")

	// ErrPermission indicates a mutation attempted outside an admin session
	ErrPermission = errors.New("permission denied")

	// ErrPersistence indicates that a persistence adapter call failed
	ErrPersistence = errors.New("persistence failure")

	// ErrAuthentication indicates that supplied credentials were rejected
	ErrAuthentication = errors.New("authentication failed")

	// ErrInitialization indicates that the initial catalog load failed
	ErrInitialization = errors.New("initialization failed")

	// ErrReadOnly indicates an attempt to modify a read-only store
	ErrReadOnly = errors.New("read only")
)

// NotFoundError represents an error when a record is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConflictError represents a violation of a uniqueness or referential
// invariant, such as a duplicate category name or deleting a category
// that still owns files.
type ConflictError struct {
	Resource string
	ID       string
	Message  string
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("conflict on %s %s: %s", e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("conflict on %s: %s", e.Resource, e.Message)
}

// Is implements errors.Is support
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NewConflictError creates a new ConflictError
func NewConflictError(resource, id, message string) *ConflictError {
	return &ConflictError{Resource: resource, ID: id, Message: message}
}

// PermissionError represents a mutation attempted without an admin session
type PermissionError struct {
	Operation string
}

// Error implements the error interface
func (e *PermissionError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("operation %s requires an admin session", e.Operation)
	}
	return "operation requires an admin session"
}

// Is implements errors.Is support
func (e *PermissionError) Is(target error) bool {
	return target == ErrPermission
}

// NewPermissionError creates a new PermissionError
func NewPermissionError(operation string) *PermissionError {
	return &PermissionError{Operation: operation}
}

// ReadOnlyError represents a mutation attempted on a read-only store
type ReadOnlyError struct {
	Operation string
}

// Error implements the error interface
func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("catalog is read-only, cannot %s", e.Operation)
}

// Is implements errors.Is support
func (e *ReadOnlyError) Is(target error) bool {
	return target == ErrReadOnly
}

// NewReadOnlyError creates a new ReadOnlyError
func NewReadOnlyError(operation string) *ReadOnlyError {
	return &ReadOnlyError{Operation: operation}
}

// PersistenceError represents a failed persistence adapter call
type PersistenceError struct {
	Operation string // "create", "update", "delete", "list", "subscribe"
	Resource  string // "file", "category", "blob"
	ID        string
	Err       error
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("persistence failure during %s of %s %s: %v", e.Operation, e.Resource, e.ID, e.Err)
	}
	return fmt.Sprintf("persistence failure during %s of %s: %v", e.Operation, e.Resource, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// NewPersistenceError creates a new PersistenceError
func NewPersistenceError(operation, resource, id string, err error) *PersistenceError {
	return &PersistenceError{Operation: operation, Resource: resource, ID: id, Err: err}
}

// AuthenticationError represents rejected credentials
type AuthenticationError struct {
	Username string
	Message  string
}

// Error implements the error interface
func (e *AuthenticationError) Error() string {
	if e.Username != "" {
		return fmt.Sprintf("authentication failed for %s: %s", e.Username, e.Message)
	}
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// NewAuthenticationError creates a new AuthenticationError
func NewAuthenticationError(username, message string) *AuthenticationError {
	return &AuthenticationError{Username: username, Message: message}
}

// InitializationError represents a failed startup load. The caller is
// expected to surface it and leave the store empty in degraded
// public-read mode.
type InitializationError struct {
	Component string
	Err       error
}

// Error implements the error interface
func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialization of %s failed: %v", e.Component, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *InitializationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *InitializationError) Is(target error) bool {
	return target == ErrInitialization
}

// NewInitializationError creates a new InitializationError
func NewInitializationError(component string, err error) *InitializationError {
	return &InitializationError{Component: component, Err: err}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "delete", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file, message string, err error) *ParseError {
	return &ParseError{Format: format, File: file, Message: message, Err: err}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsPermission checks if an error is a permission error
func IsPermission(err error) bool {
	return errors.Is(err, ErrPermission)
}

// IsReadOnly checks if an error indicates a read-only store
func IsReadOnly(err error) bool {
	return errors.Is(err, ErrReadOnly)
}

// IsPersistence checks if an error is a persistence error
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// IsAuthentication checks if an error is an authentication error
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// Helper wrapping functions for common patterns

// WrapPersistence wraps an error as a PersistenceError
func WrapPersistence(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewPersistenceError(operation, resource, id, err)
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}
