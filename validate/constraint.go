package validate

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// ConstraintError is a CUE failure, either compiling a constraint or
// checking a value against it.
type ConstraintError struct {
	Expr    string
	Message string
	Pos     token.Pos
}

func (e *ConstraintError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("constraint %s: %s", e.Expr, e.Message)
}

// Constraint returns a Func that checks values against a CUE expression,
// for example `>0 & <=100`, `=~"^[a-z]+$"` or `{city: string}`. The value
// must unify with the expression and be concrete.
func Constraint(expr string) (Func, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(expr, cue.Filename("constraint"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(expr, err)
	}

	// A cue.Context is not safe for concurrent use.
	var mu sync.Mutex
	return func(v any) error {
		mu.Lock()
		defer mu.Unlock()

		val := ctx.Encode(v)
		if err := val.Err(); err != nil {
			return formatCUEError(expr, err)
		}
		if err := schema.Unify(val).Validate(cue.Concrete(true)); err != nil {
			return formatCUEError(expr, err)
		}
		return nil
	}, nil
}

// MustConstraint is Constraint for expressions known to compile.
func MustConstraint(expr string) Func {
	fn, err := Constraint(expr)
	if err != nil {
		panic(err)
	}
	return fn
}

func formatCUEError(expr string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &ConstraintError{Expr: expr, Message: err.Error()}
	}
	first := errs[0]
	ce := &ConstraintError{Expr: expr, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
