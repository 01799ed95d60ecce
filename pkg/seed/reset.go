package seed

import (
	"log/slog"
	"time"

	"github.com/marketd/marketd/pkg/logging"
	"github.com/marketd/marketd/pkg/market"
)

// Step result statuses.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// StepReport records the outcome of one seed step.
type StepReport struct {
	Step   string `json:"step"`
	Rows   int    `json:"rows"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Report is the full account of a reset: what was cleared, what each step
// did, and the table counts afterward. Success is false as soon as one step
// fails; the steps after it are reported as skipped.
type Report struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Cleared    []market.TableCount `json:"cleared"`
	Steps      []StepReport        `json:"steps"`
	Counts     map[string]int      `json:"counts"`
	DurationMS int64               `json:"durationMs"`
}

// Runner resets stores to the canonical seed state.
type Runner struct {
	steps []Step
	log   *slog.Logger
}

// NewRunner returns a runner over the default seed sequence.
func NewRunner(log *slog.Logger) *Runner {
	return &Runner{
		steps: Steps(),
		log:   logging.Component(log, "seed"),
	}
}

// Reset clears every table and replays the seed sequence, all under the
// store's write lock: concurrent readers see the old state or the new state,
// never the gap between. On step failure the remaining steps are skipped and
// the returned error is a SeedError naming the failing step; the report
// still describes everything that happened.
func (r *Runner) Reset(store *market.Store) (*Report, error) {
	start := time.Now()
	report := &Report{}
	var failure error

	store.Exclusive(func(t *market.Tables) {
		report.Cleared = t.ClearAll()
		for _, step := range r.steps {
			if failure != nil {
				report.Steps = append(report.Steps, StepReport{Step: step.Name, Status: StatusSkipped})
				continue
			}
			rows, err := step.Apply(t)
			if err != nil {
				failure = &market.SeedError{Step: step.Name, Err: err}
				report.Steps = append(report.Steps, StepReport{
					Step:   step.Name,
					Rows:   rows,
					Status: StatusFailed,
					Error:  err.Error(),
				})
				continue
			}
			report.Steps = append(report.Steps, StepReport{Step: step.Name, Rows: rows, Status: StatusOK})
		}
		report.Counts = t.Counts()
	})

	report.DurationMS = time.Since(start).Milliseconds()
	if failure != nil {
		report.Message = failure.Error()
		r.log.Error("store reset failed", "error", failure, "duration", time.Since(start))
		return report, failure
	}

	report.Success = true
	report.Message = "store reset to seed state"
	r.log.Debug("store reset",
		"listings", report.Counts[market.TableListings],
		"sellers", report.Counts[market.TableSellers],
		"duration", time.Since(start))
	return report, nil
}

// Provision seeds a brand-new store. It is Reset on an empty store, used
// when a session is created.
func (r *Runner) Provision() (*market.Store, *Report, error) {
	store := market.NewStore()
	report, err := r.Reset(store)
	return store, report, err
}
