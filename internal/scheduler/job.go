package scheduler

import (
	"context"
	"errors"
	"time"
)

// Job is a unit of scheduled work
type Job interface {
	// Name returns the unique job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron spec (with seconds)
	Schedule() string
}

// JobResult is the outcome of one run, retries included
type JobResult struct {
	JobName   string        `json:"jobName"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Attempts  int           `json:"attempts"`
}

// maxHistory is the number of results kept per job
const maxHistory = 100

// JobHistory keeps the most recent results of one job
type JobHistory struct {
	JobName string      `json:"jobName"`
	Results []JobResult `json:"results"`
}

// AddResult appends a result, dropping the oldest past maxHistory
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > maxHistory {
		h.Results = h.Results[len(h.Results)-maxHistory:]
	}
}

// Latest returns up to n results, newest first
func (h *JobHistory) Latest(n int) []JobResult {
	if n <= 0 || n > len(h.Results) {
		n = len(h.Results)
	}
	out := make([]JobResult, 0, n)
	for i := len(h.Results) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.Results[i])
	}
	return out
}

// SuccessRate returns the share of successful runs in [0, 1]
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	ok := 0
	for _, r := range h.Results {
		if r.Success {
			ok++
		}
	}
	return float64(ok) / float64(len(h.Results))
}

// permanentError marks a failure that retrying cannot fix
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the scheduler does not retry it
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
