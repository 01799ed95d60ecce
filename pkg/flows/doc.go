// Package flows defines scripted agent tasks and validates their outcomes
// against live marketplace data.
//
// A Flow pairs a natural-language instruction (what an agent is asked to do)
// with machine-checkable expectations (what the data must look like
// afterwards). The Validator inspects a store and produces a Result per flow:
// a PASS/FAIL verdict plus per-field expected/actual/passed checks. A missed
// expectation is a FAIL result, never an error; errors are reserved for
// unknown flows and broken rule expressions.
//
// Ten flows covering create, update, delete, search, and aggregate checks
// ship builtin; additional flows load from YAML files.
package flows
