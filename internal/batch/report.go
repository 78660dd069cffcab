package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Report is the end-of-day record written by the daemon.
type Report struct {
	Date        string         `json:"date"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Total       int            `json:"total"`
	Success     int            `json:"success"`
	Failed      int            `json:"failed"`
	ByKind      map[string]int `json:"failuresByKind,omitempty"`
	Results     []Entry        `json:"results"`
}

func NewReport(date string, entries []Entry, generatedAt time.Time) *Report {
	s := Summarize(entries)
	r := &Report{
		Date:        date,
		GeneratedAt: generatedAt,
		Total:       s.Total,
		Success:     s.Success,
		Failed:      s.Failed,
		Results:     entries,
	}
	if len(s.ByKind) > 0 {
		r.ByKind = make(map[string]int, len(s.ByKind))
		for k, n := range s.ByKind {
			r.ByKind[string(k)] = n
		}
	}
	return r
}

// WriteJSONL copies the results array of an encoded report to w, one
// compact entry per line. Returns the number of lines written.
func WriteJSONL(w io.Writer, report []byte) (int, error) {
	var r struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(report, &r); err != nil {
		return 0, fmt.Errorf("parsing report: %w", err)
	}

	for i, item := range r.Results {
		compact, err := json.Marshal(item)
		if err != nil {
			return i, fmt.Errorf("compacting entry %d: %w", i, err)
		}
		if _, err := w.Write(append(compact, '\n')); err != nil {
			return i, fmt.Errorf("writing line: %w", err)
		}
	}
	return len(r.Results), nil
}
