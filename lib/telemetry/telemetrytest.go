package telemetry

import (
	"fmt"
	"strings"
	"sync"
)

// Report is a single call recorded by a RecordingAPI.
type Report struct {
	Kind   string
	ID     string
	Params []any
}

// RecordingAPI is an API that keeps every report in memory, for tests.
type RecordingAPI struct {
	mu      sync.Mutex
	Reports []Report
}

func (r *RecordingAPI) record(kind, id string, params []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Reports = append(r.Reports, Report{Kind: kind, ID: id, Params: params})
}

func (r *RecordingAPI) ReportBroken(id string, params ...any) {
	r.record("broken", id, params)
}

func (r *RecordingAPI) ReportWarning(id string, params ...any) {
	r.record("warning", id, params)
}

func (r *RecordingAPI) ReportDebug(msg string, params ...any) {
	r.record("debug", msg, params)
}

func (r *RecordingAPI) ReportCount(id string, count int64) {
	r.record("count", id, []any{count})
}

// Find returns the reports of the given kind whose id contains `id`.
func (r *RecordingAPI) Find(kind, id string) []Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Report
	for _, rep := range r.Reports {
		if rep.Kind == kind && strings.Contains(rep.ID, id) {
			out = append(out, rep)
		}
	}
	return out
}

func (r Report) String() string {
	return fmt.Sprintf("%s %s %v", r.Kind, r.ID, r.Params)
}
