// Package diagnostics records per-compile step logs. A Recorder is an
// explicit value threaded through one compile and handed back to the caller;
// it is never shared between compiles.
package diagnostics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Step is one recorded compile step.
type Step struct {
	Name   string
	Detail string
	At     time.Time
}

// Recorder accumulates the step log, metadata, and elapsed time of a single
// compile.
type Recorder struct {
	id      string
	started time.Time
	steps   []Step
	meta    map[string]string
	elapsed time.Duration
	done    bool
}

// NewRecorder starts a recorder for one compile.
func NewRecorder() *Recorder {
	return &Recorder{
		id:      uuid.NewString(),
		started: time.Now(),
		meta:    make(map[string]string),
	}
}

// ID returns the unique id of this compile.
func (r *Recorder) ID() string { return r.id }

// Step appends a named step to the log.
func (r *Recorder) Step(name, detail string) {
	r.steps = append(r.steps, Step{Name: name, Detail: detail, At: time.Now()})
}

// Stepf appends a named step with a formatted detail.
func (r *Recorder) Stepf(name, format string, args ...any) {
	r.Step(name, fmt.Sprintf(format, args...))
}

// Meta records a metadata entry. Later writes to the same key win.
func (r *Recorder) Meta(key, value string) {
	r.meta[key] = value
}

// Finish fixes the elapsed time. Further calls are no-ops.
func (r *Recorder) Finish() {
	if r.done {
		return
	}
	r.elapsed = time.Since(r.started)
	r.done = true
}

// Elapsed returns the recorded compile duration. Zero until Finish.
func (r *Recorder) Elapsed() time.Duration { return r.elapsed }

// Steps returns the recorded steps in order.
func (r *Recorder) Steps() []Step {
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Report renders the human-readable compile report.
func (r *Recorder) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "compile %s\n", r.id)
	fmt.Fprintf(&b, "started: %s\n", r.started.Format(time.RFC3339Nano))
	if r.done {
		fmt.Fprintf(&b, "elapsed: %s\n", r.elapsed)
	}

	if len(r.meta) > 0 {
		keys := make([]string, 0, len(r.meta))
		for k := range r.meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("metadata:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %s\n", k, r.meta[k])
		}
	}

	b.WriteString("steps:\n")
	for i, s := range r.steps {
		fmt.Fprintf(&b, "  %d. [%s] %s", i+1, s.Name, s.Detail)
		b.WriteString("\n")
	}
	return b.String()
}
