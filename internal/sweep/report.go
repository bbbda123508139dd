package sweep

import (
	"sync"
	"time"

	"github.com/2beens/marathon/internal/telemetry/metrics"
	"github.com/2beens/marathon/pkg"

	"go.uber.org/multierr"
)

const (
	resultOK      = "ok"
	resultPartial = "partial"
	resultFailed  = "failed"
)

// Report summarizes one sweep. It is safe for concurrent use while the sweep runs.
type Report struct {
	mutex sync.Mutex

	RunID      string         `json:"runId"`
	AsOf       string         `json:"asOf"`
	StartedAt  time.Time      `json:"startedAt"`
	Duration   time.Duration  `json:"duration"`
	Subjects   int            `json:"subjects"`
	Sent       int            `json:"sent"`
	Skipped    int            `json:"skipped"`
	Failed     int            `json:"failed"`
	Reconciled int64          `json:"reconciled"`
	Outcomes   map[string]int `json:"outcomes"`
	Errors     []string       `json:"errors,omitempty"`

	err error
}

func newReport(runID string, asOf time.Time) *Report {
	return &Report{
		RunID:     runID,
		AsOf:      pkg.FormatDate(asOf),
		StartedAt: time.Now(),
		Outcomes:  make(map[string]int),
	}
}

func (r *Report) addSubject() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.Subjects++
}

func (r *Report) addOutcome(outcome string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.Outcomes[outcome]++
	switch outcome {
	case metrics.OutcomeSent:
		r.Sent++
	case metrics.OutcomeSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
}

func (r *Report) addError(err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.err = multierr.Append(r.err, err)
	r.Errors = append(r.Errors, err.Error())
}

func (r *Report) finish() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.Duration = time.Since(r.StartedAt)
}

// Err combines all per-subject errors of the sweep, nil if there were none.
func (r *Report) Err() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.err
}

func (r *Report) result(sweepErr error) string {
	switch {
	case sweepErr != nil:
		return resultFailed
	case r.Err() != nil:
		return resultPartial
	default:
		return resultOK
	}
}
