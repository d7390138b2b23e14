package lens

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/roach88/reclens/internal/diag"
	"github.com/roach88/reclens/internal/fieldtable"
)

// ErrorCode categorizes lens errors.
type ErrorCode string

const (
	// ErrCodeInvalidType: generic or non-struct type, or a struct with a
	// lens-typed field.
	ErrCodeInvalidType ErrorCode = "INVALID_TYPE"

	// ErrCodeTypeMismatch: applying or combining across record types.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeMissingFields: Create without every required field.
	ErrCodeMissingFields ErrorCode = "MISSING_FIELDS"

	// ErrCodeUnexpectedNestedLens: a nested lens for a non-record field.
	ErrCodeUnexpectedNestedLens ErrorCode = "UNEXPECTED_NESTED_LENS"

	// ErrCodeIncompatibleValue: a value of the wrong type, or null for a
	// non-nullable field.
	ErrCodeIncompatibleValue ErrorCode = "INCOMPATIBLE_VALUE"

	// ErrCodeCasefoldCollision: two keys equal under case folding.
	ErrCodeCasefoldCollision ErrorCode = "CASEFOLD_COLLISION"

	// ErrCodeInternalLimit: more eligible fields than a table can hold.
	ErrCodeInternalLimit ErrorCode = "INTERNAL_LIMIT_EXCEEDED"
)

// Error is returned by every lens operation that cannot be satisfied.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Type is the record type involved, if any.
	Type reflect.Type

	// Field is the offending field or key, if any.
	Field string

	// Fields lists missing fields for ErrCodeMissingFields, in declaration order.
	Fields []string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: key %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var le *Error
	return errors.As(err, &le) && le.Code == code
}

// IsInvalidType reports whether err is an INVALID_TYPE error.
func IsInvalidType(err error) bool { return hasCode(err, ErrCodeInvalidType) }

// IsTypeMismatch reports whether err is a TYPE_MISMATCH error.
func IsTypeMismatch(err error) bool { return hasCode(err, ErrCodeTypeMismatch) }

// IsMissingFields reports whether err is a MISSING_FIELDS error.
func IsMissingFields(err error) bool { return hasCode(err, ErrCodeMissingFields) }

// IsUnexpectedNestedLens reports whether err is an UNEXPECTED_NESTED_LENS error.
func IsUnexpectedNestedLens(err error) bool { return hasCode(err, ErrCodeUnexpectedNestedLens) }

// IsIncompatibleValue reports whether err is an INCOMPATIBLE_VALUE error.
func IsIncompatibleValue(err error) bool { return hasCode(err, ErrCodeIncompatibleValue) }

// IsCasefoldCollision reports whether err is a CASEFOLD_COLLISION error.
func IsCasefoldCollision(err error) bool { return hasCode(err, ErrCodeCasefoldCollision) }

// IsInternalLimit reports whether err is an INTERNAL_LIMIT_EXCEEDED error.
func IsInternalLimit(err error) bool { return hasCode(err, ErrCodeInternalLimit) }

// fromTableError lifts a field table build error into an *Error with the
// same code.
func fromTableError(err error) error {
	var te *fieldtable.Error
	if !errors.As(err, &te) {
		return err
	}
	return &Error{
		Code:    ErrorCode(te.Code),
		Type:    te.Type,
		Message: te.Message,
		Err:     te,
	}
}

func newTypeMismatch(want, got reflect.Type, format string) *Error {
	return &Error{
		Code:    ErrCodeTypeMismatch,
		Type:    want,
		Message: fmt.Sprintf(format, diag.TypeName(want), diag.TypeName(got)),
	}
}

func newIncompatible(t reflect.Type, key, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeIncompatibleValue,
		Type:    t,
		Field:   key,
		Message: fmt.Sprintf(format, args...),
	}
}
