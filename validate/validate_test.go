package validate

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reclens/lens"
)

type address struct {
	City string `json:"city"`
	Zip  string `json:"zip"`
}

type account struct {
	Name    string   `json:"name"`
	Age     int      `json:"age"`
	Email   *string  `json:"email"`
	Address *address `json:"address"`
}

type unregistered struct {
	X int `json:"x"`
}

var errEmpty = errors.New("must not be empty")

func nonEmpty(s string) error {
	if s == "" {
		return errEmpty
	}
	return nil
}

func TestRegister_UnknownField(t *testing.T) {
	err := Register[account](Validators{"Nope": func(any) error { return nil }})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Nope" is not a field`)

	_, ok := Lookup(reflect.TypeFor[account]())
	assert.False(t, ok, "a rejected set is not installed")
}

func TestRegister_NilFunc(t *testing.T) {
	err := Register[account](Validators{"Name": nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil validator")
}

func TestRegister_NotARecord(t *testing.T) {
	err := Register[int](Validators{})
	require.Error(t, err)
	assert.True(t, lens.IsInvalidType(err))
}

func TestCheck(t *testing.T) {
	require.NoError(t, Register[account](Validators{
		"Name": Typed(nonEmpty),
		"Age":  MustConstraint(">=0 & <150"),
	}))
	t.Cleanup(Unregister[account])

	ok, err := lens.New[account](map[string]any{"Name": "ada", "Age": 36})
	require.NoError(t, err)
	assert.NoError(t, Check(ok))

	bad, err := lens.New[account](map[string]any{"Name": "", "Age": -1})
	require.NoError(t, err)
	err = Check(bad)
	require.Error(t, err)

	assert.ErrorIs(t, err, errEmpty)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Name", fe.Field, "failures are reported in field order")
	assert.Contains(t, err.Error(), "validate.account.Name: must not be empty")
	assert.Contains(t, err.Error(), "validate.account.Age:")
}

func TestCheck_AbsentKeysSkipped(t *testing.T) {
	calls := 0
	require.NoError(t, Register[account](Validators{
		"Name": func(any) error { calls++; return nil },
	}))
	t.Cleanup(Unregister[account])

	l, err := lens.New[account](map[string]any{"Age": 3})
	require.NoError(t, err)
	assert.NoError(t, Check(l))
	assert.Zero(t, calls)
}

func TestCheck_Unregistered(t *testing.T) {
	l, err := lens.New[unregistered](map[string]any{"X": 1})
	require.NoError(t, err)
	assert.NoError(t, Check(l))
}

func TestCheck_NestedAndNullable(t *testing.T) {
	require.NoError(t, Register[account](Validators{
		"Address": MustConstraint(`null | {City: string & !=""}`),
		"Email":   Typed(func(s *string) error {
			if s != nil && *s == "" {
				return errEmpty
			}
			return nil
		}),
	}))
	t.Cleanup(Unregister[account])

	l, err := lens.New[account](map[string]any{
		"Address": map[string]any{"City": "Oslo"},
		"Email":   nil,
	})
	require.NoError(t, err)
	assert.NoError(t, Check(l))

	l, err = lens.New[account](map[string]any{"Address": map[string]any{"City": ""}})
	require.NoError(t, err)
	err = Check(l)
	require.Error(t, err)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Address", fe.Field)

	m, err := lens.NewMap(reflect.TypeFor[account](), map[string]any{"Address": nil})
	require.NoError(t, err)
	assert.NoError(t, CheckMap(m))
}

func TestLookup_ReturnsCopy(t *testing.T) {
	require.NoError(t, Register[account](Validators{"Name": Typed(nonEmpty)}))
	t.Cleanup(Unregister[account])

	v, ok := Lookup(reflect.TypeFor[account]())
	require.True(t, ok)
	delete(v, "Name")

	again, _ := Lookup(reflect.TypeFor[account]())
	assert.Contains(t, again, "Name")
	assert.Contains(t, Registered(), "github.com/roach88/reclens/validate.account")
}

func TestTyped_WrongType(t *testing.T) {
	err := Typed(nonEmpty)(42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected string, got int")
}
