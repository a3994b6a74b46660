package models

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus is the lifecycle state of one workflow run. Running
// transitions exactly once to completed or failed; terminal records are
// immutable except for log appends during the run.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// LogLevel classifies one execution log line.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// WorkflowLog is one timestamped, append-only log line within an execution.
// Entries are never mutated after AppendLog returns them.
type WorkflowLog struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Level     LogLevel       `json:"level"`
	Message   string         `json:"message"`
	ActionID  string         `json:"action_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// WorkflowExecution is one run record of a workflow. The run goroutine keeps
// appending logs while the record is already visible to API readers, so every
// mutation goes through the record's own mutex and readers take a Snapshot.
type WorkflowExecution struct {
	ID          string          `json:"id"`
	WorkflowID  string          `json:"workflow_id"`
	Status      ExecutionStatus `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
	DurationMS  int64           `json:"duration_ms,omitempty"`
	TriggeredBy string          `json:"triggered_by"`
	Variables   map[string]any  `json:"variables,omitempty"`
	Logs        []*WorkflowLog  `json:"logs"`
	Error       string          `json:"error,omitempty"`

	mu sync.Mutex
}

// NewWorkflowExecution starts a run record in the running state. The record
// keeps its own copy of the variables; the run's working map stays with the
// execution context.
func NewWorkflowExecution(workflowID, triggeredBy string, variables map[string]any, startedAt time.Time) *WorkflowExecution {
	return &WorkflowExecution{
		ID:          "exec-" + uuid.New().String()[:8],
		WorkflowID:  workflowID,
		Status:      ExecutionStatusRunning,
		StartedAt:   startedAt,
		TriggeredBy: triggeredBy,
		Variables:   copyVariables(variables),
		Logs:        make([]*WorkflowLog, 0),
	}
}

// AppendLog adds one log line to the execution and returns it.
func (e *WorkflowExecution) AppendLog(level LogLevel, message, actionID string, data map[string]any) *WorkflowLog {
	entry := &WorkflowLog{
		ID:        "log-" + uuid.New().String()[:8],
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
		ActionID:  actionID,
		Data:      data,
	}

	e.mu.Lock()
	e.Logs = append(e.Logs, entry)
	e.mu.Unlock()

	return entry
}

// SetVariables replaces the recorded variables with a copy of vars. The run
// records its final variable state this way before finishing.
func (e *WorkflowExecution) SetVariables(vars map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Variables = copyVariables(vars)
}

// Complete moves the execution to its terminal completed state.
func (e *WorkflowExecution) Complete(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Status = ExecutionStatusCompleted
	e.finish(now)
}

// Fail moves the execution to its terminal failed state, recording the
// failure reason verbatim.
func (e *WorkflowExecution) Fail(now time.Time, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Status = ExecutionStatusFailed
	e.Error = err.Error()
	e.finish(now)
}

// finish is called with the mutex held.
func (e *WorkflowExecution) finish(now time.Time) {
	finished := now
	e.FinishedAt = &finished
	e.DurationMS = now.Sub(e.StartedAt).Milliseconds()
}

// Snapshot returns a deep copy of the record that is safe to read and
// serialize while the run goroutine keeps mutating the original.
func (e *WorkflowExecution) Snapshot() *WorkflowExecution {
	e.mu.Lock()
	defer e.mu.Unlock()

	clone := &WorkflowExecution{
		ID:          e.ID,
		WorkflowID:  e.WorkflowID,
		Status:      e.Status,
		StartedAt:   e.StartedAt,
		DurationMS:  e.DurationMS,
		TriggeredBy: e.TriggeredBy,
		Variables:   copyVariables(e.Variables),
		Logs:        make([]*WorkflowLog, len(e.Logs)),
		Error:       e.Error,
	}
	copy(clone.Logs, e.Logs)

	if e.FinishedAt != nil {
		finishedAt := *e.FinishedAt
		clone.FinishedAt = &finishedAt
	}

	return clone
}

func copyVariables(vars map[string]any) map[string]any {
	if vars == nil {
		return nil
	}

	copied := make(map[string]any, len(vars))
	for name, value := range vars {
		copied[name] = value
	}

	return copied
}

// ExecutionContext is the execution-scoped state handed to every action
// executor. Variables is intentionally one shared mutable map: a script
// action may set a variable that a later action reads.
type ExecutionContext struct {
	Workflow  *Workflow
	Execution *WorkflowExecution
	Variables map[string]any

	// Dispatch runs another action of the same workflow with full skip and
	// logging semantics. Condition branches go through it.
	Dispatch func(ctx context.Context, action *Action) error
}
