package batch

import (
	"fmt"
	"strings"
)

// Outcome is the terminal result of one file's processing attempt.
type Outcome struct {
	File      string `json:"file"`
	OK        bool   `json:"ok"`
	ErrDetail string `json:"error,omitempty"`
}

// Report aggregates a batch run. FailedFiles preserves submission order.
type Report struct {
	Total       int      `json:"total"`
	Succeeded   int      `json:"succeeded"`
	Failed      int      `json:"failed"`
	SuccessRate float64  `json:"success_rate"`
	Message     string   `json:"message"`
	FailedFiles []string `json:"failed_files,omitempty"`
}

// Build computes the report from outcomes listed in submission order. Pure:
// no I/O, no retained references.
func Build(outcomes []Outcome) *Report {
	r := &Report{Total: len(outcomes)}
	var failures []string
	for _, o := range outcomes {
		if o.OK {
			r.Succeeded++
		} else {
			r.Failed++
			detail := o.File
			if o.ErrDetail != "" {
				detail = fmt.Sprintf("%s (%s)", o.File, o.ErrDetail)
			}
			failures = append(failures, detail)
			r.FailedFiles = append(r.FailedFiles, o.File)
		}
	}
	if r.Total > 0 {
		r.SuccessRate = 100 * float64(r.Succeeded) / float64(r.Total)
	}

	if r.Total == 0 {
		r.Message = "Batch processing completed: no files supplied"
		return r
	}
	r.Message = fmt.Sprintf("Batch processing completed: %d/%d files successful (%.1f%%)",
		r.Succeeded, r.Total, r.SuccessRate)
	if r.Failed > 0 {
		r.Message += fmt.Sprintf(". Failed files: [%s]", strings.Join(failures, ", "))
	}
	return r
}

// AnySucceeded reports whether the call envelope counts as a success. A
// fully failed batch is still a normal response so callers can read the
// per-file detail.
func (r *Report) AnySucceeded() bool {
	return r.Succeeded > 0
}
