package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "message only",
			err:      &Error{Code: EINVALID, Message: "malformed attributes document"},
			expected: "malformed attributes document",
		},
		{
			name:     "with operation",
			err:      &Error{Code: EINVALID, Op: "attributes.parse_ids", Message: "malformed attributes document"},
			expected: "attributes.parse_ids: malformed attributes document",
		},
		{
			name: "with wrapped error",
			err: &Error{
				Code:    EINTERNAL,
				Op:      "catalog.attribute",
				Message: "failed to load attribute",
				Err:     errors.New("connection refused"),
			},
			expected: "catalog.attribute: failed to load attribute: connection refused",
		},
		{
			name: "wrapped error without op",
			err: &Error{
				Code:    EINTERNAL,
				Message: "failed to load attribute",
				Err:     errors.New("connection refused"),
			},
			expected: "failed to load attribute: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := &Error{Code: EINTERNAL, Message: "wrapped", Err: underlying}

	if unwrapped := err.Unwrap(); unwrapped != underlying {
		t.Errorf("Error.Unwrap() = %v, want %v", unwrapped, underlying)
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is should find underlying error")
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil error", err: nil, expected: ""},
		{name: "domain error", err: &Error{Code: EINVALID, Message: "test"}, expected: EINVALID},
		{
			name:     "wrapped domain error",
			err:      fmt.Errorf("wrapped: %w", &Error{Code: ENOTFOUND, Message: "test"}),
			expected: ENOTFOUND,
		},
		{name: "non-domain error", err: errors.New("some error"), expected: EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.expected {
				t.Errorf("ErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil error", err: nil, expected: ""},
		{
			name:     "domain error with message",
			err:      &Error{Code: EINVALID, Message: "attribute id must be positive"},
			expected: "attribute id must be positive",
		},
		{
			name:     "internal error hides message",
			err:      &Error{Code: EINTERNAL, Message: "postgres://user:secret@db leaked"},
			expected: "An internal error occurred. Please try again later.",
		},
		{
			name:     "non-domain error returns generic message",
			err:      errors.New("some internal detail"),
			expected: "An internal error occurred. Please try again later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err); got != tt.expected {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorOp(t *testing.T) {
	if got := ErrorOp(&Error{Code: EINVALID, Op: "attributes.add"}); got != "attributes.add" {
		t.Errorf("ErrorOp() = %q, want %q", got, "attributes.add")
	}
	if got := ErrorOp(NewValidationError("api.validate", "value", "is required")); got != "api.validate" {
		t.Errorf("ErrorOp(ValidationError) = %q, want %q", got, "api.validate")
	}
	if got := ErrorOp(errors.New("test")); got != "" {
		t.Errorf("ErrorOp() = %q, want empty", got)
	}
	if got := ErrorOp(nil); got != "" {
		t.Errorf("ErrorOp(nil) = %q, want empty", got)
	}
}

func TestErrorf(t *testing.T) {
	err := Errorf(EINVALID, "attributes.add", "attribute id must be positive: %d", -4)

	var domainErr *Error
	if !errors.As(err, &domainErr) {
		t.Fatal("Errorf should return *Error")
	}
	if domainErr.Code != EINVALID {
		t.Errorf("Code = %q, want %q", domainErr.Code, EINVALID)
	}
	if domainErr.Message != "attribute id must be positive: -4" {
		t.Errorf("Message = %q", domainErr.Message)
	}
}

func TestWrapError(t *testing.T) {
	t.Run("wraps non-nil error", func(t *testing.T) {
		underlying := errors.New("XML syntax error on line 1: unexpected EOF")
		err := WrapError(underlying, EINVALID, "attributes.parse_ids", "malformed attributes document")

		if !IsCode(err, EINVALID) {
			t.Errorf("Code = %q, want %q", ErrorCode(err), EINVALID)
		}
		if !errors.Is(err, underlying) {
			t.Error("should wrap underlying error")
		}
	})

	t.Run("returns nil for nil error", func(t *testing.T) {
		if err := WrapError(nil, EINTERNAL, "test", "test"); err != nil {
			t.Errorf("WrapError(nil) should return nil, got %v", err)
		}
	})
}

func TestValidationError(t *testing.T) {
	t.Run("single field error", func(t *testing.T) {
		err := NewValidationError("api.add", "attribute_id", "attribute_id is required")

		expected := "api.add: attribute_id: attribute_id is required"
		if err.Error() != expected {
			t.Errorf("Error() = %q, want %q", err.Error(), expected)
		}
		if !IsValidationError(err) {
			t.Error("IsValidationError should be true")
		}
	})

	t.Run("multiple field errors", func(t *testing.T) {
		err := NewValidationError("api.add", "attribute_id", "required")
		err = AddFieldError(err, "value", "too long")

		fields := GetValidationFields(err)
		if len(fields) != 2 {
			t.Errorf("Fields count = %d, want 2", len(fields))
		}
	})

	t.Run("add field to nil error", func(t *testing.T) {
		err := AddFieldError(nil, "attribute_id", "required")
		if len(GetValidationFields(err)) != 1 {
			t.Error("AddFieldError(nil) should create a single field error")
		}
	})

	t.Run("non-validation error has no fields", func(t *testing.T) {
		if fields := GetValidationFields(errors.New("test")); fields != nil {
			t.Error("GetValidationFields should return nil for non-validation error")
		}
	})
}

func TestConvenienceFunctions(t *testing.T) {
	if ErrorCode(NotFound("catalog.attribute", "address attribute", "7")) != ENOTFOUND {
		t.Error("NotFound should carry ENOTFOUND")
	}
	if ErrorCode(Invalid("attributes.add", "attribute is required")) != EINVALID {
		t.Error("Invalid should carry EINVALID")
	}

	underlying := errors.New("db error")
	err := Internal(underlying, "catalog.attributes", "failed to list attributes")
	if ErrorCode(err) != EINTERNAL {
		t.Error("Internal should carry EINTERNAL")
	}
	if !errors.Is(err, underlying) {
		t.Error("Internal should wrap underlying error")
	}
	if ErrorMessage(err) != "An internal error occurred. Please try again later." {
		t.Errorf("Internal message should be hidden, got %q", ErrorMessage(err))
	}
}
