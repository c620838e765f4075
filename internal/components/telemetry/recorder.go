package telemetry

import "sync"

// Report is a single call made against a Recorder.
type Report struct {
	ID     string
	Params []any
}

// Recorder implements API by keeping every report in memory so tests can
// make assertions on what a component reported.
type Recorder struct {
	mu       sync.Mutex
	Broken   []Report
	Warnings []Report
	Counts   map[string]int64
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Broken = append(r.Broken, Report{ID: id, Params: params})
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, Report{ID: id, Params: params})
}

func (r *Recorder) ReportDebug(string, ...any) {}

func (r *Recorder) ReportCount(id string, count int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Counts == nil {
		r.Counts = map[string]int64{}
	}
	r.Counts[id] = count
}

// WarningIDs returns the ids of all warnings reported so far.
func (r *Recorder) WarningIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, len(r.Warnings))
	for i, w := range r.Warnings {
		ids[i] = w.ID
	}
	return ids
}

// BrokenIDs returns the ids of all breakages reported so far.
func (r *Recorder) BrokenIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, len(r.Broken))
	for i, b := range r.Broken {
		ids[i] = b.ID
	}
	return ids
}
