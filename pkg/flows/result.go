package flows

import "fmt"

// Verdict strings carried on results.
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

// FieldCheck is one expected/actual comparison inside a validation result.
// Expected and Actual hold whatever renders most usefully for the check:
// literal values for field comparisons, descriptive strings for counts and
// rules.
type FieldCheck struct {
	Field    string `json:"field"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Passed   bool   `json:"passed"`
}

// Result is the outcome of validating one flow. Passed is true only when
// every check passed; Status carries the same verdict as PASS/FAIL for
// human readers.
type Result struct {
	FlowID  string       `json:"flowId"`
	Name    string       `json:"name"`
	Status  string       `json:"status"`
	Passed  bool         `json:"passed"`
	Message string       `json:"message"`
	Checks  []FieldCheck `json:"checks,omitempty"`
}

// finish derives Passed and Status from the accumulated checks and picks
// the pass or fail message.
func (r *Result) finish(passMsg, failMsg string) {
	r.Passed = true
	for _, c := range r.Checks {
		if !c.Passed {
			r.Passed = false
			break
		}
	}
	if r.Passed {
		r.Status = StatusPass
		r.Message = passMsg
	} else {
		r.Status = StatusFail
		r.Message = failMsg
	}
}

// fail marks the result failed with a single explanatory check.
func (r *Result) fail(msg string, check FieldCheck) {
	r.Passed = false
	r.Status = StatusFail
	r.Message = msg
	r.Checks = append(r.Checks, check)
}

// Summary aggregates the results of validating every registered flow.
type Summary struct {
	Total       int      `json:"total"`
	Passed      int      `json:"passed"`
	Failed      int      `json:"failed"`
	SuccessRate string   `json:"successRate"`
	Results     []Result `json:"results"`
}

func summarize(results []Result) *Summary {
	s := &Summary{Total: len(results), Results: results}
	for _, r := range results {
		if r.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	if s.Total > 0 {
		s.SuccessRate = fmt.Sprintf("%.1f%%", float64(s.Passed)/float64(s.Total)*100)
	} else {
		s.SuccessRate = "0%"
	}
	return s
}
