/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("Car", "123")

	expected := `Car with key "123" not found`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound should return true for NotFoundError")
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "with field",
			field:    "where",
			message:  "2 placeholders but 1 value",
			expected: `validation failed for field "where": 2 placeholders but 1 value`,
		},
		{
			name:     "without field",
			field:    "",
			message:  "missing table",
			expected: "validation failed: missing table",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)

			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}
			if !IsValidationError(err) {
				t.Error("IsValidationError should return true for ValidationError")
			}
		})
	}
}

func TestConfigurationError(t *testing.T) {
	cause := fmt.Errorf("access denied for user 'app'")
	err := NewConfigurationError("default", "connect", cause)

	if !IsConfigurationError(err) {
		t.Error("ConfigurationError should match ErrInvalidConfiguration")
	}
	if !errors.Is(err, cause) {
		t.Error("ConfigurationError should unwrap to its cause")
	}
	if IsStorageError(err) {
		t.Error("ConfigurationError must not be reported as a generic storage error")
	}
}

func TestDecodeErrorsAreDistinct(t *testing.T) {
	base := NewTypeNotFoundError("Car")
	related := NewRelatedTypeNotFoundError("Car", "Owner")

	if !IsTypeNotFound(base) || IsRelatedTypeNotFound(base) {
		t.Error("TypeNotFoundError should only match ErrTypeNotFound")
	}
	if !IsRelatedTypeNotFound(related) || IsTypeNotFound(related) {
		t.Error("RelatedTypeNotFoundError should only match ErrRelatedTypeNotFound")
	}
	if related.Error() != `related model type "Owner" (joined on "Car") not registered` {
		t.Errorf("unexpected message %q", related.Error())
	}
}

func TestInvalidFieldWrappedInStorageError(t *testing.T) {
	inner := NewInvalidFieldError("cars", "colour", fmt.Errorf("no such column: colour"))
	wrapped := NewStorageError("SELECT * FROM cars WHERE colour = ?", inner)

	if !IsInvalidField(wrapped) {
		t.Error("IsInvalidField should see through StorageError")
	}
	if !IsStorageError(wrapped) {
		t.Error("outer error should still be a storage error")
	}
}

func TestMutationError(t *testing.T) {
	err := NewMutationError("put", "cars", "ConditionalCheckFailed", nil)

	expected := `put on "cars" failed: ConditionalCheckFailed`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
	if !IsMutationFailed(err) {
		t.Error("MutationError should match ErrMutationFailed")
	}
}

func TestKeyGenerationError(t *testing.T) {
	err := NewKeyGenerationError("cars", 10)
	if !IsKeyGenerationExhausted(err) {
		t.Error("KeyGenerationError should match ErrKeyGenerationExhausted")
	}
}

func TestErrorWrapping(t *testing.T) {
	original := NewNotFoundError("Car", "123")
	wrapped := fmt.Errorf("load failed: %w", original)

	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should work with wrapped errors")
	}
}

func TestQueryBoundWrappedInStorageError(t *testing.T) {
	err := NewStorageError("SELECT COUNT(*) FROM `cars` limit 100",
		fmt.Errorf("%w: stopped after 100 page requests", ErrQueryBoundExceeded))

	if !IsQueryBoundExceeded(err) {
		t.Error("IsQueryBoundExceeded should see through StorageError")
	}
	if !IsStorageError(err) {
		t.Error("outer error should still be a storage error")
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrInvalidConfiguration,
		ErrInvalidField,
		ErrTypeNotFound,
		ErrRelatedTypeNotFound,
		ErrMutationFailed,
		ErrStorage,
		ErrKeyGenerationExhausted,
		ErrQueryBoundExceeded,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v matches %v", err1, err2)
			}
		}
	}
}
