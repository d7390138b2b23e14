package harness

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// AssertionError is a failed assertion with enough context to debug it.
type AssertionError struct {
	Type     string       // Assertion type
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for context
}

func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		if event.Error != "" {
			fmt.Fprintf(&buf, "  [%d] %s %v -> %s\n", event.Step, event.Op, event.Keys, event.Error)
			continue
		}
		fmt.Fprintf(&buf, "  [%d] %s %v\n", event.Step, event.Op, event.Keys)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertFinalState:
			err = assertFinalState(result, a)
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func assertFinalState(result *Result, a Assertion) error {
	want, err := normalize(a.Expect)
	if err != nil {
		return err
	}
	final := result.Final()
	if matchSubset(final, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalState,
		Expected: fmt.Sprintf("final state containing %v", want),
		Actual:   fmt.Sprintf("%v", final),
		Trace:    result.Trace,
	}
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, event := range trace {
		if event.Op != a.Op {
			continue
		}
		if a.Error == "" || errorMatches(event.Error, a.Error) {
			return nil
		}
	}

	expected := "op " + a.Op
	if a.Error != "" {
		expected += " failing with " + a.Error
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op == a.Op {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("op %s %d time(s)", a.Op, a.Count),
		Actual:   fmt.Sprintf("%d time(s)", count),
		Trace:    trace,
	}
}

// errorMatches compares an observed error text with an expectation: equal
// codes, or a substring of a plain message.
func errorMatches(got, want string) bool {
	if got == "" {
		return false
	}
	return got == want || strings.Contains(got, want)
}

// normalize passes v through JSON so numbers compare as float64 like the
// encoded states do.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize expectation: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("normalize expectation: %w", err)
	}
	return out, nil
}

// matchSubset reports whether actual contains expected. Maps match when
// every expected key matches recursively; anything else must be equal.
func matchSubset(actual, expected any) bool {
	want, ok := expected.(map[string]any)
	if !ok {
		return reflect.DeepEqual(actual, expected)
	}
	got, ok := actual.(map[string]any)
	if !ok {
		return false
	}
	for k, v := range want {
		av, exists := got[k]
		if !exists || !matchSubset(av, v) {
			return false
		}
	}
	return true
}
