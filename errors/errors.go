/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a record is required but not found
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput is returned when caller supplied input is malformed
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfiguration is returned when a database config group cannot be used
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidField is returned when a query references a column that does not exist
	ErrInvalidField = errors.New("invalid field")

	// ErrTypeNotFound is returned when the base model type of a decode is unknown
	ErrTypeNotFound = errors.New("model type not found")

	// ErrRelatedTypeNotFound is returned when a joined alias cannot be resolved to a model type
	ErrRelatedTypeNotFound = errors.New("related model type not found")

	// ErrMutationFailed is returned when the key-attribute store rejects a put or delete
	ErrMutationFailed = errors.New("mutation failed")

	// ErrStorage is returned for any other failure reported by the underlying driver
	ErrStorage = errors.New("storage error")

	// ErrKeyGenerationExhausted is returned when no unused item key could be generated
	ErrKeyGenerationExhausted = errors.New("key generation exhausted")

	// ErrQueryBoundExceeded is returned when a paginated scan hits its page request bound
	ErrQueryBoundExceeded = errors.New("query bound exceeded")
)

// NotFoundError represents an error when a record is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConfigurationError reports a database group whose connection parameters are
// missing or rejected by the server.
type ConfigurationError struct {
	Group  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration for database %q: %s: %v", e.Group, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid configuration for database %q: %s", e.Group, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// InvalidFieldError reports a column that the schema does not have.
type InvalidFieldError struct {
	Table string
	Field string
	Err   error
}

func (e *InvalidFieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid field in query on %q: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("invalid field %q on %q", e.Field, e.Table)
}

func (e *InvalidFieldError) Is(target error) bool {
	return target == ErrInvalidField
}

func (e *InvalidFieldError) Unwrap() error {
	return e.Err
}

// TypeNotFoundError is raised when the requested base type is not registered.
type TypeNotFoundError struct {
	Type string
}

func (e *TypeNotFoundError) Error() string {
	return fmt.Sprintf("model type %q not registered", e.Type)
}

func (e *TypeNotFoundError) Is(target error) bool {
	return target == ErrTypeNotFound
}

// RelatedTypeNotFoundError is raised when a result row carries columns for an
// alias that does not resolve to a registered type.
type RelatedTypeNotFoundError struct {
	Base  string
	Alias string
}

func (e *RelatedTypeNotFoundError) Error() string {
	return fmt.Sprintf("related model type %q (joined on %q) not registered", e.Alias, e.Base)
}

func (e *RelatedTypeNotFoundError) Is(target error) bool {
	return target == ErrRelatedTypeNotFound
}

// MutationError carries the message of a rejected put or delete.
type MutationError struct {
	Operation string
	Table     string
	Message   string
	Err       error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s on %q failed: %s", e.Operation, e.Table, e.Message)
}

func (e *MutationError) Is(target error) bool {
	return target == ErrMutationFailed
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// StorageError wraps a driver failure together with the statement that caused it.
type StorageError struct {
	Query string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error executing %q: %v", e.Query, e.Err)
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// KeyGenerationError is returned when every generated key candidate collided.
type KeyGenerationError struct {
	Table    string
	Attempts int
}

func (e *KeyGenerationError) Error() string {
	return fmt.Sprintf("no unused key found for %q after %d attempts", e.Table, e.Attempts)
}

func (e *KeyGenerationError) Is(target error) bool {
	return target == ErrKeyGenerationExhausted
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(modelType, key string) error {
	return &NotFoundError{Type: modelType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(group, reason string, err error) error {
	return &ConfigurationError{Group: group, Reason: reason, Err: err}
}

// NewInvalidFieldError creates a new InvalidFieldError
func NewInvalidFieldError(table, field string, err error) error {
	return &InvalidFieldError{Table: table, Field: field, Err: err}
}

// NewTypeNotFoundError creates a new TypeNotFoundError
func NewTypeNotFoundError(modelType string) error {
	return &TypeNotFoundError{Type: modelType}
}

// NewRelatedTypeNotFoundError creates a new RelatedTypeNotFoundError
func NewRelatedTypeNotFoundError(base, alias string) error {
	return &RelatedTypeNotFoundError{Base: base, Alias: alias}
}

// NewMutationError creates a new MutationError
func NewMutationError(operation, table, message string, err error) error {
	return &MutationError{Operation: operation, Table: table, Message: message, Err: err}
}

// NewStorageError creates a new StorageError
func NewStorageError(query string, err error) error {
	return &StorageError{Query: query, Err: err}
}

// NewKeyGenerationError creates a new KeyGenerationError
func NewKeyGenerationError(table string, attempts int) error {
	return &KeyGenerationError{Table: table, Attempts: attempts}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsInvalidField checks if an error is an invalid field error
func IsInvalidField(err error) bool {
	return errors.Is(err, ErrInvalidField)
}

// IsTypeNotFound checks if an error is a base type not found error
func IsTypeNotFound(err error) bool {
	return errors.Is(err, ErrTypeNotFound)
}

// IsRelatedTypeNotFound checks if an error is a related type not found error
func IsRelatedTypeNotFound(err error) bool {
	return errors.Is(err, ErrRelatedTypeNotFound)
}

// IsMutationFailed checks if an error is an emulated mutation failure
func IsMutationFailed(err error) bool {
	return errors.Is(err, ErrMutationFailed)
}

// IsStorageError checks if an error is a generic storage error
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsKeyGenerationExhausted checks if an error is a key generation failure
func IsKeyGenerationExhausted(err error) bool {
	return errors.Is(err, ErrKeyGenerationExhausted)
}

// IsQueryBoundExceeded checks if an error is a scan cut short by its page request bound
func IsQueryBoundExceeded(err error) bool {
	return errors.Is(err, ErrQueryBoundExceeded)
}
