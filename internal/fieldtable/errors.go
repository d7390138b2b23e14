package fieldtable

import (
	"errors"
	"reflect"
)

// Code categorizes table build errors. Values are shared with the lens
// package error codes.
type Code string

const (
	CodeInvalidType       Code = "INVALID_TYPE"
	CodeCasefoldCollision Code = "CASEFOLD_COLLISION"
	CodeInternalLimit     Code = "INTERNAL_LIMIT_EXCEEDED"
)

// Error is a table build failure.
type Error struct {
	Code    Code
	Type    reflect.Type
	Field   string
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// IsInvalidType reports whether err is an INVALID_TYPE table error.
func IsInvalidType(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Code == CodeInvalidType
}
