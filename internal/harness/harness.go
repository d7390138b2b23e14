package harness

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"

	"github.com/roach88/reclens/codec"
	"github.com/roach88/reclens/internal/format/jsonfmt"
	"github.com/roach88/reclens/internal/format/yamlfmt"
	"github.com/roach88/reclens/lens"
)

// Harness runs scenarios against its registered record types.
type Harness struct {
	types map[string]reflect.Type
}

// New creates a harness with no registered types.
func New() *Harness {
	return &Harness{types: make(map[string]reflect.Type)}
}

// Register makes t available to scenarios as name.
func (h *Harness) Register(name string, t reflect.Type) error {
	if _, dup := h.types[name]; dup {
		return fmt.Errorf("type %q already registered", name)
	}
	if _, err := lens.NewMap(t, nil); err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}
	h.types[name] = t
	return nil
}

// Register is the generic form of Harness.Register.
func Register[T any](h *Harness, name string) error {
	return h.Register(name, reflect.TypeFor[T]())
}

// Types returns the registered names, sorted.
func (h *Harness) Types() []string {
	names := make([]string, 0, len(h.types))
	for name := range h.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes a scenario. Failed expectations and assertions are reported
// in the result; the error is for scenarios that cannot run at all (unknown
// type, unbuildable base).
func (h *Harness) Run(s *Scenario) (*Result, error) {
	t, ok := h.types[s.Type]
	if !ok {
		return nil, fmt.Errorf("scenario %s: unknown type %q", s.Name, s.Type)
	}
	c := lens.Codec(t)

	state, err := h.base(t, c, s)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: build base: %w", s.Name, err)
	}

	result := NewResult()
	if result.Base, err = encodeState(c, state); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	for i := range s.Steps {
		step := &s.Steps[i]
		next, event := runStep(t, state, step)
		event.Step = i
		if event.Error == "" {
			state = next
		}
		if event.State, err = encodeState(c, state); err != nil {
			return nil, fmt.Errorf("scenario %s: step %d: %w", s.Name, i, err)
		}
		result.Trace = append(result.Trace, event)
		checkExpect(result, event, step.Expect)
	}

	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) base(t reflect.Type, c codec.Codec, s *Scenario) (any, error) {
	if s.Base.Kind == 0 {
		return reflect.New(t).Elem().Interface(), nil
	}
	v, err := yamlfmt.Decode(c, &s.Base)
	if err != nil {
		return nil, err
	}
	return v.(lens.Map).Create()
}

func runStep(t reflect.Type, state any, step *Step) (any, TraceEvent) {
	event := TraceEvent{Op: step.Op}

	m, err := stepLens(t, step)
	if err != nil {
		event.Error = errorText(err)
		return nil, event
	}
	event.Keys = m.Keys()

	var next any
	switch step.Op {
	case OpCreate:
		next, err = m.Create()
	case OpApply:
		next, err = m.ApplyTo(state)
	case OpDiff:
		next, err = m.ApplyTo(state)
		if err == nil {
			event.Keys, err = changedKeys(state, next)
		}
	}
	if err != nil {
		event.Error = errorText(err)
		return nil, event
	}
	return next, event
}

func stepLens(t reflect.Type, step *Step) (lens.Map, error) {
	c := lens.Codec(t)

	var (
		v   any
		err error
	)
	switch {
	case step.Properties != nil:
		var opts []lens.Option
		if step.CaseFold {
			opts = append(opts, lens.CaseFold())
		}
		return lens.PropertiesMap(t, step.Properties, opts...)
	case step.JSON != "":
		v, err = jsonfmt.Unmarshal(c, []byte(step.JSON))
	default:
		v, err = yamlfmt.Decode(c, &step.Lens)
	}
	if err != nil {
		return lens.Map{}, err
	}
	return v.(lens.Map), nil
}

// changedKeys returns the fields that differ between two instances.
func changedKeys(before, after any) ([]string, error) {
	from, err := lens.Project(before)
	if err != nil {
		return nil, err
	}
	to, err := lens.Project(after)
	if err != nil {
		return nil, err
	}
	d, err := to.Diff(from)
	if err != nil {
		return nil, err
	}
	return d.Keys(), nil
}

// errorText is the code of a lens error, otherwise the message.
func errorText(err error) string {
	var le *lens.Error
	if errors.As(err, &le) {
		return string(le.Code)
	}
	return err.Error()
}

// encodeState returns the JSON encoding of state decoded into plain values,
// so it compares the same way expectations read from YAML do.
func encodeState(c codec.Codec, state any) (any, error) {
	data, err := jsonfmt.Marshal(c, state)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return out, nil
}

func checkExpect(result *Result, event TraceEvent, expect *Expect) {
	prefix := fmt.Sprintf("steps[%d] (%s)", event.Step, event.Op)

	if expect == nil || expect.Error == "" {
		if event.Error != "" {
			result.AddError(fmt.Sprintf("%s: unexpected error: %s", prefix, event.Error))
		}
	} else if !errorMatches(event.Error, expect.Error) {
		result.AddError(fmt.Sprintf("%s: expected error %q, got %q", prefix, expect.Error, event.Error))
	}
	if expect == nil {
		return
	}

	if expect.State != nil {
		want, err := normalize(expect.State)
		if err != nil {
			result.AddError(fmt.Sprintf("%s: %v", prefix, err))
		} else if !matchSubset(event.State, want) {
			result.AddError(fmt.Sprintf("%s: state %v does not contain %v", prefix, event.State, want))
		}
	}
	if expect.Keys != nil && !slices.Equal(expect.Keys, event.Keys) {
		result.AddError(fmt.Sprintf("%s: expected keys %v, got %v", prefix, expect.Keys, event.Keys))
	}
}
