package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkflowExecution(t *testing.T) {
	startedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	variables := map[string]any{"env": "production"}

	execution := NewWorkflowExecution("wf-1", "manual", variables, startedAt)

	assert.NotEmpty(t, execution.ID)
	assert.Contains(t, execution.ID, "exec-")
	assert.Equal(t, "wf-1", execution.WorkflowID)
	assert.Equal(t, ExecutionStatusRunning, execution.Status)
	assert.Equal(t, startedAt, execution.StartedAt)
	assert.Nil(t, execution.FinishedAt)
	assert.Equal(t, "manual", execution.TriggeredBy)
	assert.Equal(t, variables, execution.Variables)
	assert.Empty(t, execution.Logs)
}

func TestWorkflowExecution_Complete(t *testing.T) {
	startedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	finishedAt := startedAt.Add(1500 * time.Millisecond)

	execution := NewWorkflowExecution("wf-1", "manual", nil, startedAt)
	execution.Complete(finishedAt)

	assert.Equal(t, ExecutionStatusCompleted, execution.Status)
	require.NotNil(t, execution.FinishedAt)
	assert.Equal(t, finishedAt, *execution.FinishedAt)
	assert.Equal(t, int64(1500), execution.DurationMS)
	assert.Empty(t, execution.Error)
}

func TestWorkflowExecution_Fail(t *testing.T) {
	startedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	finishedAt := startedAt.Add(200 * time.Millisecond)

	execution := NewWorkflowExecution("wf-1", "manual", nil, startedAt)
	execution.Fail(finishedAt, errors.New("webhook returned non-success status: 500 Internal Server Error"))

	assert.Equal(t, ExecutionStatusFailed, execution.Status)
	require.NotNil(t, execution.FinishedAt)
	assert.Equal(t, int64(200), execution.DurationMS)
	assert.Equal(t, "webhook returned non-success status: 500 Internal Server Error", execution.Error)
}

func TestWorkflowExecution_AppendLog(t *testing.T) {
	execution := NewWorkflowExecution("wf-1", "manual", nil, time.Now().UTC())

	entry := execution.AppendLog(LogLevelInfo, "Executing action: Notify", "act-1", map[string]any{"attempt": 1})

	require.Len(t, execution.Logs, 1)
	assert.Same(t, entry, execution.Logs[0])
	assert.Contains(t, entry.ID, "log-")
	assert.Equal(t, LogLevelInfo, entry.Level)
	assert.Equal(t, "Executing action: Notify", entry.Message)
	assert.Equal(t, "act-1", entry.ActionID)
	assert.Equal(t, map[string]any{"attempt": 1}, entry.Data)
	assert.False(t, entry.Timestamp.IsZero())

	execution.AppendLog(LogLevelError, "Action failed", "act-2", nil)
	require.Len(t, execution.Logs, 2)
	assert.Equal(t, LogLevelError, execution.Logs[1].Level)
}

func TestWorkflowExecution_KeepsOwnVariablesCopy(t *testing.T) {
	variables := map[string]any{"env": "staging"}
	execution := NewWorkflowExecution("wf-1", "manual", variables, time.Now().UTC())

	variables["env"] = "production"
	assert.Equal(t, "staging", execution.Variables["env"])

	execution.SetVariables(variables)
	assert.Equal(t, "production", execution.Variables["env"])

	// SetVariables also copies.
	variables["env"] = "dev"
	assert.Equal(t, "production", execution.Variables["env"])
}

func TestWorkflowExecution_SnapshotIsolation(t *testing.T) {
	execution := NewWorkflowExecution("wf-1", "manual", map[string]any{"env": "staging"}, time.Now().UTC())
	execution.AppendLog(LogLevelInfo, "first", "act-1", nil)

	snapshot := execution.Snapshot()

	execution.AppendLog(LogLevelInfo, "second", "act-1", nil)
	execution.SetVariables(map[string]any{"env": "production"})
	execution.Complete(time.Now().UTC())

	// The snapshot is frozen at the time it was taken.
	assert.Len(t, snapshot.Logs, 1)
	assert.Equal(t, ExecutionStatusRunning, snapshot.Status)
	assert.Nil(t, snapshot.FinishedAt)
	assert.Equal(t, "staging", snapshot.Variables["env"])

	require.Len(t, execution.Logs, 2)
	assert.Equal(t, ExecutionStatusCompleted, execution.Status)
}

func TestWorkflowExecution_ConcurrentAppendAndSnapshot(t *testing.T) {
	execution := NewWorkflowExecution("wf-1", "manual", map[string]any{}, time.Now().UTC())

	const total = 500

	done := make(chan struct{})

	go func() {
		defer close(done)

		for i := 0; i < total; i++ {
			execution.AppendLog(LogLevelInfo, "line", "act-1", nil)
		}

		execution.Complete(time.Now().UTC())
	}()

	// Snapshots and their serialization must stay safe while the run
	// goroutine keeps appending.
	for appending := true; appending; {
		select {
		case <-done:
			appending = false
		default:
			snapshot := execution.Snapshot()

			_, err := json.Marshal(snapshot)
			assert.NoError(t, err)
			assert.LessOrEqual(t, len(snapshot.Logs), total)
		}
	}

	final := execution.Snapshot()
	assert.Len(t, final.Logs, total)
	assert.Equal(t, ExecutionStatusCompleted, final.Status)
}
