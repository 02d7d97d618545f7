package wapi

import (
	"time"

	"wapi/providers"
)

// Status tells what one cycle did for one record.
type Status int

const (
	// StatusSkipped: the cache already held the resolved address; the
	// provider was not contacted.
	StatusSkipped Status = iota
	// StatusUnchanged: the provider was asked and confirmed the record is
	// already current.
	StatusUnchanged
	// StatusUpdated: the provider applied a new value or created the
	// record.
	StatusUpdated
	// StatusFailed: the record could not be brought current this cycle.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusUnchanged:
		return "unchanged"
	case StatusUpdated:
		return "updated"
	case StatusFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// Result is the per-record outcome of one cycle.
type Result struct {
	Record  ManagedRecord
	Status  Status
	Outcome providers.Outcome
	// Attempts counts provider calls made for this record; zero means the
	// provider was never reached.
	Attempts int
	Err      error
}

// Report collects every record's result for one cycle. Records fail
// individually; the report as a whole always exists.
type Report struct {
	Results []Result
	Elapsed time.Duration
}

type Summary struct {
	Skipped   int
	Unchanged int
	Updated   int
	Failed    int
}

func (r *Report) Summarize() Summary {
	var s Summary
	for _, res := range r.Results {
		switch res.Status {
		case StatusSkipped:
			s.Skipped++
		case StatusUnchanged:
			s.Unchanged++
		case StatusUpdated:
			s.Updated++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}

func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// OK reports whether every record ended the cycle current.
func (r *Report) OK() bool {
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			return false
		}
	}
	return true
}
