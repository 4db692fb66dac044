package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/tabflow/dag"
	"github.com/kbukum/tabflow/observability"
)

// RunSummary describes a finished run.
type RunSummary struct {
	RunID string `json:"run_id"`
	// State is StateCompleted or StateAborted.
	State     State              `json:"state"`
	StartedAt time.Time          `json:"started_at"`
	Duration  time.Duration      `json:"duration"`
	Succeeded []int              `json:"succeeded"`
	Failed    map[int]Fault      `json:"failed,omitempty"`
	Statuses  map[int]dag.Status `json:"statuses"`
}

// Err returns an EXECUTION_FAULT for the lowest failed node id, or nil.
func (s *RunSummary) Err() error {
	first := -1
	for id := range s.Failed {
		if first == -1 || id < first {
			first = id
		}
	}
	if first == -1 {
		return nil
	}
	return s.Failed[first].Err(first).WithDetail("failed", len(s.Failed))
}

// Listener receives run events. StatusChanged and NodeFailed are called
// with the handler locked, in order per node; implementations must not
// call back into the handler. RunCompleted is called once per run, after
// the handler is idle again.
type Listener interface {
	StatusChanged(nodeID int, status dag.Status)
	NodeFailed(nodeID int, fault Fault)
	RunCompleted(summary RunSummary)
}

// ListenerFuncs adapts optional closures to Listener.
type ListenerFuncs struct {
	OnStatusChanged func(nodeID int, status dag.Status)
	OnNodeFailed    func(nodeID int, fault Fault)
	OnRunCompleted  func(summary RunSummary)
}

func (f ListenerFuncs) StatusChanged(nodeID int, status dag.Status) {
	if f.OnStatusChanged != nil {
		f.OnStatusChanged(nodeID, status)
	}
}

func (f ListenerFuncs) NodeFailed(nodeID int, fault Fault) {
	if f.OnNodeFailed != nil {
		f.OnNodeFailed(nodeID, fault)
	}
}

func (f ListenerFuncs) RunCompleted(summary RunSummary) {
	if f.OnRunCompleted != nil {
		f.OnRunCompleted(summary)
	}
}

// Listeners fans events out in order.
type Listeners []Listener

func (ls Listeners) StatusChanged(nodeID int, status dag.Status) {
	for _, l := range ls {
		l.StatusChanged(nodeID, status)
	}
}

func (ls Listeners) NodeFailed(nodeID int, fault Fault) {
	for _, l := range ls {
		l.NodeFailed(nodeID, fault)
	}
}

func (ls Listeners) RunCompleted(summary RunSummary) {
	for _, l := range ls {
		l.RunCompleted(summary)
	}
}

// StatusEvent is a recorded status change.
type StatusEvent struct {
	Node   int
	Status dag.Status
}

// FailureEvent is a recorded node failure.
type FailureEvent struct {
	Node  int
	Fault Fault
}

// Recorder keeps every event it receives.
type Recorder struct {
	mu       sync.Mutex
	statuses []StatusEvent
	failures []FailureEvent
	runs     []RunSummary
}

func (r *Recorder) StatusChanged(nodeID int, status dag.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, StatusEvent{Node: nodeID, Status: status})
}

func (r *Recorder) NodeFailed(nodeID int, fault Fault) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, FailureEvent{Node: nodeID, Fault: fault})
}

func (r *Recorder) RunCompleted(summary RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, summary)
}

// Statuses returns the recorded status changes of one node.
func (r *Recorder) Statuses(nodeID int) []dag.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []dag.Status
	for _, e := range r.statuses {
		if e.Node == nodeID {
			out = append(out, e.Status)
		}
	}
	return out
}

func (r *Recorder) Failures() []FailureEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]FailureEvent(nil), r.failures...)
}

func (r *Recorder) Runs() []RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RunSummary(nil), r.runs...)
}

// Reset forgets every event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses, r.failures, r.runs = nil, nil, nil
}

// MetricsListener records finished runs.
func MetricsListener(metrics *observability.Metrics) Listener {
	return ListenerFuncs{
		OnRunCompleted: func(s RunSummary) {
			outcome := "completed"
			if s.State == StateAborted {
				outcome = "aborted"
			}
			metrics.RecordRun(context.Background(), outcome, s.Duration)
		},
	}
}
