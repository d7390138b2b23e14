// Package harness runs lens scenarios written in YAML against registered
// record types.
//
// A scenario starts from a base instance and runs a list of steps. Each
// step builds an update lens, applies it (or creates a fresh instance from
// it) and records the outcome in a trace. Assertions then check the trace
// and the final state.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	type: settings            # name passed to Harness.Register
//	base: {host: a, port: 1}  # optional; built with Create
//	steps:
//	  - op: apply             # apply | create | diff
//	    lens: {port: 2}       # wire names, decoded through the lens codec
//	    expect:
//	      state: {port: 2}    # subset match on the encoded state
//	  - op: apply
//	    properties: {"limits.max_conns": "3"}
//	    case_fold: true
//	  - op: create
//	    lens: {}
//	    expect:
//	      error: MISSING_FIELDS
//	assertions:
//	  - type: final_state
//	    expect: {host: a}
//	  - type: trace_count
//	    op: apply
//	    count: 2
//
// Step lenses come from exactly one of lens (YAML, decoded with the YAML
// driver), json (a JSON document) or properties (a flat property map).
//
// # Assertion Types
//
//   - final_state: the encoded final state contains the expected values
//   - trace_contains: a step with the given op (and error code, if set) ran
//   - trace_count: the given op ran exactly count times
//
// # Determinism
//
// States are recorded in their JSON encoding, so a trace is stable across
// runs and can be compared with a golden file.
package harness
